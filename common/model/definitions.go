package model

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/oauth2"
)

// JSONUnmarshal is the shared JSON decoding helper.
func JSONUnmarshal(data []byte, out interface{}) error {
	return json.Unmarshal(data, out)
}

// Clock returns the current time. Tokens and clients read time only through a Clock.
type Clock func() time.Time

// SystemClock is the wall clock.
var SystemClock Clock = time.Now

func (c Clock) unix() int64 {
	if c == nil {
		return time.Now().Unix()
	}
	return c().Unix()
}

// RawAccessToken is the token endpoint's success response, field for field.
type RawAccessToken struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// TokenRefresher exchanges a refresh token for a new AccessToken.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*AccessToken, error)
}

// AccessToken is a provider-issued token. It is never mutated after construction;
// a refresh produces a new instance.
type AccessToken struct {
	Token        string
	Type         string
	RefreshToken string
	ExpiresIn    int64
	Scope        string

	createdAt int64
	clock     Clock
}

// NewAccessToken builds an AccessToken from a token endpoint response, stamping
// it with the clock's current time (seconds resolution). A nil clock means SystemClock.
func NewAccessToken(raw RawAccessToken, clock Clock) *AccessToken {
	if clock == nil {
		clock = SystemClock
	}
	return &AccessToken{
		Token:        raw.AccessToken,
		Type:         raw.TokenType,
		RefreshToken: raw.RefreshToken,
		ExpiresIn:    raw.ExpiresIn,
		Scope:        raw.Scope,
		createdAt:    clock.unix(),
		clock:        clock,
	}
}

// CreatedAt is the epoch second at which the token was constructed.
func (t *AccessToken) CreatedAt() int64 {
	return t.createdAt
}

// ExpiresAt returns createdAt + expires_in, in epoch seconds.
func (t *AccessToken) ExpiresAt() int64 {
	return t.createdAt + t.ExpiresIn
}

// IsExpired reports whether now >= ExpiresAt(). Expiry is advisory; an expired
// token stays readable.
func (t *AccessToken) IsExpired() bool {
	return t.clock.unix() >= t.ExpiresAt()
}

// Refresh asks issuer for a new token using this token's refresh token.
func (t *AccessToken) Refresh(ctx context.Context, issuer TokenRefresher) (*AccessToken, error) {
	return issuer.RefreshToken(ctx, t.RefreshToken)
}

// Raw returns the token in the provider's wire shape.
func (t *AccessToken) Raw() RawAccessToken {
	return RawAccessToken{
		AccessToken:  t.Token,
		TokenType:    t.Type,
		ExpiresIn:    t.ExpiresIn,
		RefreshToken: t.RefreshToken,
		Scope:        t.Scope,
	}
}

// MarshalJSON renders the provider shape, not the struct's field names.
func (t *AccessToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Raw())
}

// OAuth2Token adapts the token for use with golang.org/x/oauth2 token sources and clients.
func (t *AccessToken) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.Token,
		TokenType:    t.Type,
		RefreshToken: t.RefreshToken,
		Expiry:       time.Unix(t.ExpiresAt(), 0),
	}
	return tok.WithExtra(map[string]interface{}{
		"scope":      t.Scope,
		"expires_in": t.ExpiresIn,
	})
}

// User is the account the token was issued for, as returned by /users/@me.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	GlobalName    string `json:"global_name,omitempty"`
	Discriminator string `json:"discriminator,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Email         string `json:"email,omitempty"`
	Verified      bool   `json:"verified,omitempty"`
	Locale        string `json:"locale,omitempty"`
}
