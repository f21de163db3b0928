package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/guarzo/discordauth/common"
	"github.com/guarzo/discordauth/common/metrics"
	"github.com/guarzo/discordauth/modules/callback"
)

const shutdownTimeout = 10 * time.Second

// RunServer serves the callback routes until SIGINT or SIGTERM.
func RunServer(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var (
		provider        *metrics.Provider
		exchangeMetrics metrics.ExchangeMetrics = metrics.NoOpExchangeMetrics{}
	)
	if cfg.MetricsEnabled {
		provider, err = metrics.NewProvider()
		if err != nil {
			return err
		}
		exchangeMetrics, err = metrics.NewExchangeMetrics(provider.MeterProvider(), cfg.MetricsNamespace)
		if err != nil {
			return err
		}
	}

	client, httpClient := newAuthClient(cfg, logger, exchangeMetrics)
	defer httpClient.CloseIdleConnections()

	server := callback.NewServer(cfg, client, common.NewCacheStore(), provider, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		if provider != nil {
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Warn("failed to shut down metrics provider", zap.Error(err))
			}
		}
		return nil
	})

	return g.Wait()
}
