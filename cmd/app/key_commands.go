package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/fitvault/fitvault/cmd/app/commands"
	"github.com/fitvault/fitvault/internal/app"
	"github.com/fitvault/fitvault/internal/config"
	cryptoService "github.com/fitvault/fitvault/internal/crypto/service"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-master-key",
			Usage: "Generate a new default master key for envelope encryption",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "id",
					Aliases: []string{"i"},
					Value:   "",
					Usage:   "Master key ID (e.g., prod-default-2026)",
				},
				&cli.StringFlag{
					Name:  "kms-provider",
					Value: "",
					Usage: "KMS provider (localsecrets, gcpkms, awskms, azurekeyvault, hashivault)",
				},
				&cli.StringFlag{
					Name:  "kms-key-uri",
					Value: "",
					Usage: "KMS key URI (e.g., base64key://, gcpkms://projects/.../cryptoKeys/...)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunCreateMasterKey(
					ctx,
					cryptoService.NewKMSService(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("kms-provider"),
					cmd.String("kms-key-uri"),
				)
			},
		},
		{
			Name:  "issue-user-key",
			Usage: "Issue a fresh master key for a user and print its metadata",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user-id",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "User identity the key is issued to",
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

				return commands.RunIssueUserKey(
					ctx,
					lifecycleUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("user-id"),
				)
			},
		},
		{
			Name:  "rotate-user-key",
			Usage: "Rotate a user's master key and print the new key's metadata",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user-id",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "User identity owning the key",
				},
				&cli.StringFlag{
					Name:     "old-key-id",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Key ID being rotated out",
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

				return commands.RunRotateUserKey(
					ctx,
					lifecycleUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("user-id"),
					cmd.String("old-key-id"),
				)
			},
		},
		{
			Name:  "retire-key",
			Usage: "Permanently disable a deprecated master key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "key-id",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Key ID to retire",
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

				return commands.RunRetireKey(
					ctx,
					lifecycleUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("key-id"),
				)
			},
		},
	}
}
