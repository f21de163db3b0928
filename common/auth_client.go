package common

import (
	"context"

	"github.com/guarzo/discordauth/common/model"
)

// AuthClient is the authorization-code client contract the callback
// dispatcher and the CLI depend on.
type AuthClient interface {
	model.TokenRefresher

	// FetchToken exchanges a one-time authorization code for an AccessToken.
	FetchToken(ctx context.Context, code string) (*model.AccessToken, error)

	// AuthCodeURL is the provider consent URL carrying the given state.
	AuthCodeURL(state string) string
}
