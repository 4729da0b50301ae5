package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/fitvault/fitvault/cmd/app/commands"
	"github.com/fitvault/fitvault/internal/app"
	"github.com/fitvault/fitvault/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "health-check",
			Usage: "Verify the configured environment supports envelope operations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				lifecycleUseCase, err := container.LifecycleUseCase()
				if err != nil {
					return err
				}

				if err := lifecycleUseCase.EnsureDefaultKey(ctx); err != nil {
					return err
				}

				envelopeUseCase, err := container.EnvelopeUseCase()
				if err != nil {
					return err
				}

				return commands.RunHealthCheck(
					ctx,
					envelopeUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
				)
			},
		},
	}
}
