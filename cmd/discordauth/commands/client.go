// Package commands implements the discordauth subcommands.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/guarzo/discordauth/common"
	"github.com/guarzo/discordauth/common/config"
	"github.com/guarzo/discordauth/common/log"
	"github.com/guarzo/discordauth/common/metrics"
	"github.com/guarzo/discordauth/common/model"
	"github.com/guarzo/discordauth/modules/discord"
)

// loadConfig reads and validates the environment configuration.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newAuthClient(cfg *config.Config, logger *zap.Logger, exchangeMetrics metrics.ExchangeMetrics) (*discord.AuthClient, common.HttpClient) {
	httpClient := common.NewHttpClient(cfg.UserAgent, &http.Client{}, cfg.HTTPTimeout)
	client := discord.NewAuthClient(discord.Options{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthURL,
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, httpClient, logger, discord.WithMetrics(exchangeMetrics))
	return client, httpClient
}

func writeToken(w io.Writer, tok *model.AccessToken) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tok)
}
