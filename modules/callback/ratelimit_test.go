package callback

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRateLimitMiddleware_PerIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := gin.New()
	router.Use(RateLimitMiddleware(ctx, 0.001, 1, zap.NewNop()))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	send := func(remote string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = remote
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:2222"))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2:1111"), "other IPs have their own bucket")
}

func TestLimiterStore_Sweep(t *testing.T) {
	store := &limiterStore{rps: 1, burst: 1}
	store.getLimiter("10.0.0.1")

	store.sweep(time.Now().Add(-time.Hour))
	_, ok := store.limiters.Load("10.0.0.1")
	assert.True(t, ok, "recently used limiter survives")

	store.sweep(time.Now().Add(time.Second))
	_, ok = store.limiters.Load("10.0.0.1")
	assert.False(t, ok, "idle limiter is removed")
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		delay time.Duration
		want  int
	}{
		{0, 1},
		{200 * time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{10 * time.Second, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, retryAfterSeconds(tt.delay), tt.delay.String())
	}
}
