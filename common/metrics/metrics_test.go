package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetricLine matches name{...labels...} value, tolerating the scope
// labels the exporter adds.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func scrape(t *testing.T, p *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestExchangeMetrics_RecordExchange(t *testing.T) {
	provider, err := NewProvider()
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	em, err := NewExchangeMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	ctx := context.Background()
	em.RecordExchange(ctx, "authorization_code", StatusSuccess, 120*time.Millisecond)
	em.RecordExchange(ctx, "authorization_code", StatusSuccess, 80*time.Millisecond)
	em.RecordExchange(ctx, "refresh_token", StatusProviderError, 10*time.Millisecond)

	out := scrape(t, provider)
	assertMetricLine(t, out, "test_app_token_exchanges_total",
		`grant_type="authorization_code"[^}]*status="success"`, "2")
	assertMetricLine(t, out, "test_app_token_exchanges_total",
		`grant_type="refresh_token"[^}]*status="provider_error"`, "1")
	assert.Contains(t, out, "test_app_token_exchange_duration_seconds")
}

func TestNoOpExchangeMetrics(t *testing.T) {
	var em ExchangeMetrics = NoOpExchangeMetrics{}
	em.RecordExchange(context.Background(), "refresh_token", StatusSuccess, time.Second)
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	provider, err := NewProvider()
	require.NoError(t, err)

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(provider.MeterProvider(), "test_app"))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	out := scrape(t, provider)
	assertMetricLine(t, out, "test_app_http_requests_total",
		`method="GET"[^}]*path="/health"[^}]*status_code="200"`, "3")
	assertMetricLine(t, out, "test_app_http_requests_total", `path="unknown"`, "1")
}
