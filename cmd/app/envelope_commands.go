package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/fitvault/fitvault/cmd/app/commands"
	"github.com/fitvault/fitvault/internal/app"
	"github.com/fitvault/fitvault/internal/config"
)

func getEnvelopeCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "encrypt",
			Usage: "Encrypt a payload for a user and print the envelope as JSON",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user-id",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "User identity the envelope is bound to",
				},
				&cli.StringFlag{
					Name:     "plaintext",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Payload to encrypt",
				},
			},
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

				return commands.RunEncrypt(
					ctx,
					envelopeUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("user-id"),
					cmd.String("plaintext"),
				)
			},
		},
		{
			Name:  "decrypt",
			Usage: "Decrypt an envelope for a user and print the plaintext",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user-id",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "User identity the envelope is bound to",
				},
				&cli.StringFlag{
					Name:    "envelope",
					Aliases: []string{"e"},
					Value:   "",
					Usage:   "Envelope JSON (omit to read from stdin)",
				},
			},
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

				io := commands.DefaultIO()

				return commands.RunDecrypt(
					ctx,
					envelopeUseCase,
					container.Logger(),
					io.Reader,
					io.Writer,
					cmd.String("user-id"),
					cmd.String("envelope"),
				)
			},
		},
	}
}
