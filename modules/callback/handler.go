package callback

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/guarzo/discordauth/common"
	"github.com/guarzo/discordauth/modules/discord"
)

const (
	statePrefix = "state:"
	codePrefix  = "code:"

	// how long a consumed authorization code is remembered
	consumedCodeTTL = 10 * time.Minute
)

// Handler turns provider redirects into token exchanges.
type Handler struct {
	client        common.AuthClient
	cache         common.CacheRepository
	logger        *zap.Logger
	stateRequired bool
	stateTTL      time.Duration
	newState      func() string
}

// NewHandler creates a Handler. States issued by Login live for stateTTL.
func NewHandler(client common.AuthClient, cache common.CacheRepository, stateRequired bool, stateTTL time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		client:        client,
		cache:         cache,
		logger:        logger,
		stateRequired: stateRequired,
		stateTTL:      stateTTL,
		newState:      uuid.NewString,
	}
}

// Login redirects the user agent to the provider consent page with a fresh state.
func (h *Handler) Login(c *gin.Context) {
	state := h.newState()
	h.cache.Set(statePrefix+state, []byte{1}, h.stateTTL)
	c.Redirect(http.StatusFound, h.client.AuthCodeURL(state))
}

// Callback handles GET <redirect path>?code=...&state=...
func (h *Handler) Callback(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		h.logger.Info("authorization denied by provider",
			zap.String("error", providerErr),
			zap.String("request_id", requestID(c)))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             providerErr,
			"error_description": c.Query("error_description"),
		})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.String(http.StatusBadRequest, "Missing code")
		return
	}

	if msg, ok := h.checkState(c.Query("state")); !ok {
		c.String(http.StatusBadRequest, msg)
		return
	}

	if !h.cache.SetIfAbsent(codePrefix+code, []byte{1}, consumedCodeTTL) {
		c.String(http.StatusBadRequest, "Code already used")
		return
	}

	tok, err := h.client.FetchToken(c.Request.Context(), code)
	if err != nil {
		// only a provider answer proves the code was spent
		var exErr *discord.ExchangeError
		if !errors.As(err, &exErr) {
			h.cache.Delete(codePrefix + code)
		}
		h.writeExchangeError(c, err)
		return
	}

	h.logger.Info("access token issued",
		zap.String("token_type", tok.Type),
		zap.String("scope", tok.Scope),
		zap.Int64("expires_at", tok.ExpiresAt()),
		zap.String("request_id", requestID(c)))
	c.JSON(http.StatusOK, tok)
}

// Refresh handles POST /refresh with a refresh_token form field.
func (h *Handler) Refresh(c *gin.Context) {
	refreshToken := c.PostForm("refresh_token")
	if refreshToken == "" {
		c.String(http.StatusBadRequest, "Missing refresh_token")
		return
	}

	tok, err := h.client.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		h.writeExchangeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tok)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// NotFound answers every unrouted path.
func (h *Handler) NotFound(c *gin.Context) {
	c.String(http.StatusNotFound, "Not Found")
}

// checkState consumes a state issued by Login. Unless states are required, an
// empty or unknown state passes.
func (h *Handler) checkState(state string) (string, bool) {
	if state == "" {
		if h.stateRequired {
			return "Missing state", false
		}
		return "", true
	}
	if _, found := h.cache.Get(statePrefix + state); !found {
		if h.stateRequired {
			return "Unknown state", false
		}
		return "", true
	}
	h.cache.Delete(statePrefix + state)
	return "", true
}

func (h *Handler) writeExchangeError(c *gin.Context, err error) {
	h.logger.Error("token exchange failed",
		zap.Error(err),
		zap.String("request_id", requestID(c)))

	var exErr *discord.ExchangeError
	switch {
	case errors.Is(err, discord.ErrMissingCode), errors.Is(err, discord.ErrMissingRefreshToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &exErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":           err.Error(),
			"provider_status": exErr.StatusCode,
		})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

func requestID(c *gin.Context) string {
	return requestid.Get(c)
}
