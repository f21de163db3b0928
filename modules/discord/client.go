package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	validation "github.com/jellydator/validation"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/guarzo/discordauth/common"
	"github.com/guarzo/discordauth/common/log"
	"github.com/guarzo/discordauth/common/metrics"
	"github.com/guarzo/discordauth/common/model"
)

const (
	grantAuthorizationCode = "authorization_code"
	grantRefreshToken      = "refresh_token"

	actionFetch   = "fetch access token"
	actionRefresh = "refresh access token"

	// cap on how much of a token endpoint response is read
	maxResponseBytes = 1 << 20
)

// Endpoint is Discord's OAuth2 endpoint. Client credentials travel in the form body.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/v10/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Options is the client's fixed configuration.
type Options struct {
	ClientID     string
	ClientSecret string
	// RedirectURL must match the URL registered with the provider.
	RedirectURL string
	Scopes      []string
	// Endpoint defaults to the Discord endpoint when its TokenURL is empty.
	Endpoint oauth2.Endpoint
}

// ClientOption customizes an AuthClient at construction.
type ClientOption func(*AuthClient)

// WithClock sets the clock stamped onto issued tokens.
func WithClock(clock model.Clock) ClientOption {
	return func(c *AuthClient) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithMetrics records every exchange.
func WithMetrics(m metrics.ExchangeMetrics) ClientOption {
	return func(c *AuthClient) {
		if m != nil {
			c.metrics = m
		}
	}
}

// AuthClient performs the authorization-code and refresh-token exchanges. It holds
// no mutable state and is safe for concurrent use.
type AuthClient struct {
	opts       Options
	oauthCfg   *oauth2.Config
	httpClient common.HttpClient
	logger     *zap.Logger
	clock      model.Clock
	metrics    metrics.ExchangeMetrics
}

var _ common.AuthClient = (*AuthClient)(nil)

// NewAuthClient creates an AuthClient sending requests through httpClient.
func NewAuthClient(opts Options, httpClient common.HttpClient, logger *zap.Logger, options ...ClientOption) *AuthClient {
	if opts.Endpoint.TokenURL == "" {
		opts.Endpoint = Endpoint
	}
	opts.Scopes = append([]string(nil), opts.Scopes...)

	c := &AuthClient{
		opts: opts,
		oauthCfg: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint:     opts.Endpoint,
			RedirectURL:  opts.RedirectURL,
			Scopes:       opts.Scopes,
		},
		httpClient: httpClient,
		logger:     log.Component(logger, "discord.AuthClient"),
		clock:      model.SystemClock,
		metrics:    metrics.NoOpExchangeMetrics{},
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// FetchToken exchanges an authorization code for an AccessToken.
func (c *AuthClient) FetchToken(ctx context.Context, code string) (*model.AccessToken, error) {
	if code == "" {
		return nil, ErrMissingCode
	}
	form := url.Values{
		"client_id":     {c.opts.ClientID},
		"client_secret": {c.opts.ClientSecret},
		"grant_type":    {grantAuthorizationCode},
		"code":          {code},
		"redirect_uri":  {c.opts.RedirectURL},
	}
	return c.exchange(ctx, grantAuthorizationCode, actionFetch, form)
}

// RefreshToken exchanges a refresh token for a new AccessToken. The refresh token
// on the returned token supersedes the one passed in.
func (c *AuthClient) RefreshToken(ctx context.Context, refreshToken string) (*model.AccessToken, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}
	form := url.Values{
		"client_id":     {c.opts.ClientID},
		"client_secret": {c.opts.ClientSecret},
		"grant_type":    {grantRefreshToken},
		"refresh_token": {refreshToken},
	}
	return c.exchange(ctx, grantRefreshToken, actionRefresh, form)
}

// AuthCodeURL returns the consent URL the user is sent to before the redirect.
func (c *AuthClient) AuthCodeURL(state string) string {
	return c.oauthCfg.AuthCodeURL(state)
}

// exchange performs exactly one POST to the token endpoint.
func (c *AuthClient) exchange(ctx context.Context, grantType, action string, form url.Values) (*model.AccessToken, error) {
	start := time.Now()

	tok, status, err := c.doExchange(ctx, action, form)
	c.metrics.RecordExchange(ctx, grantType, status, time.Since(start))

	fields := []zap.Field{
		zap.String("grant_type", grantType),
		zap.String("status", status),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		c.logger.Debug("token exchange failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	c.logger.Debug("token exchange succeeded", fields...)
	return tok, nil
}

func (c *AuthClient) doExchange(ctx context.Context, action string, form url.Values) (*model.AccessToken, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, metrics.StatusTransportError, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, metrics.StatusTransportError, fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, metrics.StatusTransportError, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, metrics.StatusProviderError, &ExchangeError{
			Action:     action,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Payload:    compactJSON(body),
			Body:       body,
		}
	}

	raw, err := decodeTokenResponse(body)
	if err != nil {
		return nil, metrics.StatusDecodeError, &DecodeError{Action: action, Err: err}
	}
	return model.NewAccessToken(raw, c.clock), metrics.StatusSuccess, nil
}

// tokenResponse uses pointers so a missing field is distinguishable from a zero value.
type tokenResponse struct {
	AccessToken  *string `json:"access_token"`
	TokenType    *string `json:"token_type"`
	ExpiresIn    *int64  `json:"expires_in"`
	RefreshToken *string `json:"refresh_token"`
	Scope        *string `json:"scope"`
}

func (r *tokenResponse) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.AccessToken, validation.Required),
		validation.Field(&r.TokenType, validation.Required),
		validation.Field(&r.ExpiresIn, validation.NotNil, validation.Min(int64(0))),
		validation.Field(&r.RefreshToken, validation.NotNil),
		validation.Field(&r.Scope, validation.NotNil),
	)
}

func decodeTokenResponse(body []byte) (model.RawAccessToken, error) {
	var r tokenResponse
	if err := model.JSONUnmarshal(body, &r); err != nil {
		return model.RawAccessToken{}, err
	}
	if err := r.Validate(); err != nil {
		return model.RawAccessToken{}, err
	}
	return model.RawAccessToken{
		AccessToken:  *r.AccessToken,
		TokenType:    *r.TokenType,
		ExpiresIn:    *r.ExpiresIn,
		RefreshToken: *r.RefreshToken,
		Scope:        *r.Scope,
	}, nil
}

func statusText(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// compactJSON returns body compacted, or nil when body is not JSON.
func compactJSON(body []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil
	}
	return buf.Bytes()
}
