// Package callback is the HTTP front of the token client: it receives the
// provider redirect, runs the code exchange and renders the token.
package callback

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/guarzo/discordauth/common"
	"github.com/guarzo/discordauth/common/config"
	"github.com/guarzo/discordauth/common/log"
	"github.com/guarzo/discordauth/common/metrics"
)

// Server hosts the callback routes.
type Server struct {
	cfg      *config.Config
	handler  *Handler
	provider *metrics.Provider
	logger   *zap.Logger
	server   *http.Server
}

// NewServer wires the handler routes. provider may be nil when metrics are disabled.
func NewServer(cfg *config.Config, client common.AuthClient, cache common.CacheRepository, provider *metrics.Provider, logger *zap.Logger) *Server {
	logger = log.Component(logger, "callback")
	return &Server{
		cfg:      cfg,
		handler:  NewHandler(client, cache, cfg.StateRequired, cfg.StateTTL, logger),
		provider: provider,
		logger:   logger,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Router builds the gin engine. Background work started for it stops with ctx.
func (s *Server) Router(ctx context.Context) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(LoggerMiddleware(s.logger))
	if s.provider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(s.provider.MeterProvider(), s.cfg.MetricsNamespace))
		router.GET("/metrics", gin.WrapH(s.provider.Handler()))
	}

	router.GET("/health", s.handler.Health)
	router.GET("/login", s.handler.Login)

	exchange := router.Group("/")
	if s.cfg.RateLimitEnabled {
		exchange.Use(RateLimitMiddleware(ctx, s.cfg.RateLimitRequestsPerSec, s.cfg.RateLimitBurst, s.logger))
	}
	exchange.GET(s.cfg.RedirectPath, s.handler.Callback)
	exchange.POST("/refresh", s.handler.Refresh)

	router.NoRoute(s.handler.NotFound)
	return router
}

// Start serves until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.Router(ctx)
	s.logger.Info("starting callback server",
		zap.String("addr", s.server.Addr),
		zap.String("redirect_path", s.cfg.RedirectPath))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down callback server")
	return s.server.Shutdown(ctx)
}

// LoggerMiddleware logs one line per request.
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", requestid.Get(c)))
	}
}
