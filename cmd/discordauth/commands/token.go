package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/guarzo/discordauth/common"
	"github.com/guarzo/discordauth/common/model"
	"github.com/guarzo/discordauth/modules/discord"
)

// RunExchange trades an authorization code for a token and prints it.
func RunExchange(ctx context.Context, out io.Writer, code string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, httpClient := newAuthClient(cfg, logger, nil)
	defer httpClient.CloseIdleConnections()

	return exchange(ctx, out, client, code)
}

// RunRefresh trades a refresh token for a new token and prints it.
func RunRefresh(ctx context.Context, out io.Writer, refreshToken string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, httpClient := newAuthClient(cfg, logger, nil)
	defer httpClient.CloseIdleConnections()

	return refresh(ctx, out, client, refreshToken)
}

// RunAuthorizeURL prints the consent URL.
func RunAuthorizeURL(out io.Writer, state string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, _ := newAuthClient(cfg, logger, nil)
	_, err = fmt.Fprintln(out, client.AuthCodeURL(state))
	return err
}

func exchange(ctx context.Context, out io.Writer, client common.AuthClient, code string) error {
	tok, err := client.FetchToken(ctx, code)
	if err != nil {
		return err
	}
	return writeToken(out, tok)
}

func refresh(ctx context.Context, out io.Writer, client common.AuthClient, refreshToken string) error {
	tok, err := client.RefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	return writeToken(out, tok)
}

// RunWhoAmI refreshes the token and prints the rotated token with the account it
// belongs to. The printed refresh token replaces the one passed in.
func RunWhoAmI(ctx context.Context, out io.Writer, refreshToken string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, httpClient := newAuthClient(cfg, logger, nil)
	defer httpClient.CloseIdleConnections()

	return whoAmI(ctx, out, client, discord.NewUserService(cfg.APIBaseURL, httpClient), refreshToken)
}

func whoAmI(ctx context.Context, out io.Writer, client common.AuthClient, users *discord.UserService, refreshToken string) error {
	tok, err := client.RefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	user, err := users.GetCurrentUser(ctx, tok)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Token *model.AccessToken `json:"token"`
		User  *model.User        `json:"user"`
	}{tok, user})
}
