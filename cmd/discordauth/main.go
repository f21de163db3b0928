// Package main provides the discordauth command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/guarzo/discordauth/cmd/discordauth/commands"
)

func main() {
	cmd := &cli.Command{
		Name:    "discordauth",
		Usage:   "Discord OAuth2 authorization-code client",
		Version: "1.0.0",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the OAuth2 callback server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx)
				},
			},
			{
				Name:  "exchange",
				Usage: "Exchange an authorization code for an access token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "code",
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "Authorization code received on the redirect",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunExchange(ctx, os.Stdout, cmd.String("code"))
				},
			},
			{
				Name:  "refresh",
				Usage: "Exchange a refresh token for a new access token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "refresh-token",
						Aliases:  []string{"r"},
						Required: true,
						Usage:    "Refresh token from a previous exchange",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRefresh(ctx, os.Stdout, cmd.String("refresh-token"))
				},
			},
			{
				Name:  "whoami",
				Usage: "Refresh a token and show the account it belongs to",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "refresh-token",
						Aliases:  []string{"r"},
						Required: true,
						Usage:    "Refresh token from a previous exchange",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunWhoAmI(ctx, os.Stdout, cmd.String("refresh-token"))
				},
			},
			{
				Name:  "authorize-url",
				Usage: "Print the provider consent URL",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "state",
						Aliases: []string{"s"},
						Usage:   "Opaque state to round-trip through the redirect",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunAuthorizeURL(os.Stdout, cmd.String("state"))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "discordauth: %v\n", err)
		os.Exit(1)
	}
}
