package discord

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/guarzo/discordauth/common"
	"github.com/guarzo/discordauth/common/model"
)

// DefaultAPIBaseURL is the Discord REST API root.
const DefaultAPIBaseURL = "https://discord.com/api/v10"

// UserService reads the account behind an access token.
type UserService struct {
	baseURL    string
	httpClient common.HttpClient
}

// NewUserService constructs a UserService. An empty baseURL means DefaultAPIBaseURL.
func NewUserService(baseURL string, httpClient common.HttpClient) *UserService {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	return &UserService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// GetCurrentUser calls GET /users/@me with the token. Requires the identify scope.
func (s *UserService) GetCurrentUser(ctx context.Context, token *model.AccessToken) (*model.User, error) {
	if token == nil || token.Token == "" {
		return nil, fmt.Errorf("no token provided")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/users/@me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	token.OAuth2Token().SetAuthHeader(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &common.HTTPError{StatusCode: resp.StatusCode, Body: data}
	}

	var user model.User
	if err := model.JSONUnmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}
