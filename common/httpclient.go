package common

import (
	"fmt"
	"net/http"
	"time"
)

// HttpClient is the transport the token client sends requests through.
// This allows mocking or custom transport layers in testing.
type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
	CloseIdleConnections()
}

// HTTPError captures an unexpected status code and response body from a
// provider API call.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, string(e.Body))
}

// userAgentRoundTripper is a custom RoundTripper that adds a User-Agent header.
type userAgentRoundTripper struct {
	Wrapped   http.RoundTripper
	UserAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone request to avoid mutating the original
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.UserAgent)
	return rt.Wrapped.RoundTrip(clone)
}

type httpClient struct {
	client *http.Client
}

// NewHttpClient wraps base with a User-Agent header. A zero timeout leaves the
// client unbounded; callers then bound each call through its context.
func NewHttpClient(userAgent string, base *http.Client, timeout time.Duration) HttpClient {
	if base == nil {
		base = &http.Client{}
	}
	if base.Transport == nil {
		base.Transport = http.DefaultTransport
	}
	if userAgent != "" {
		base.Transport = &userAgentRoundTripper{
			Wrapped:   base.Transport,
			UserAgent: userAgent,
		}
	}
	base.Timeout = timeout

	return &httpClient{client: base}
}

func (h *httpClient) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

func (h *httpClient) CloseIdleConnections() {
	h.client.CloseIdleConnections()
}
