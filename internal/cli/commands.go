// Package cli defines the application's commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/persona_chatbot/internal/app"
	appconfig "github.com/lewisedginton/persona_chatbot/internal/config"
	"github.com/lewisedginton/persona_chatbot/pkg/config"
	"github.com/lewisedginton/persona_chatbot/pkg/logger"
)

func loadConfig(ctx *cli.Context) (*appconfig.AppConfig, error) {
	var cfg appconfig.AppConfig
	path := ctx.String("config-file")
	if path != "" {
		if err := config.GetConfig(&cfg, path, false); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	} else {
		if err := config.GetConfigFromEnvVars(&cfg); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	return &cfg, nil
}

func newLogger(cfg *appconfig.AppConfig) logger.Logger {
	return logger.NewLogger(logger.Config{
		Level:   cfg.GetLogLevel(),
		Format:  cfg.Logging.Format,
		Service: cfg.ServiceName,
	})
}

// ServeCommand runs the HTTP server until interrupted.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the chat API server",
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			cfg.LogConfig(log)

			runCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(runCtx, cfg, log)
			if err != nil {
				return fmt.Errorf("startup: %w", err)
			}
			return a.Run(runCtx)
		},
	}
}

// ConfigCommand validates the configuration and prints the outcome.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration utilities",
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "Load and validate the configuration, then exit",
				Action: func(ctx *cli.Context) error {
					if _, err := loadConfig(ctx); err != nil {
						return err
					}
					fmt.Fprintln(os.Stdout, "configuration OK")
					return nil
				},
			},
		},
	}
}

// RolesCommand syncs the persona catalog from the roles file.
func RolesCommand() *cli.Command {
	return &cli.Command{
		Name:  "roles",
		Usage: "Persona catalog utilities",
		Subcommands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Upsert all roles from the roles file into the database",
				Action: func(ctx *cli.Context) error {
					cfg, err := loadConfig(ctx)
					if err != nil {
						return err
					}
					log := newLogger(cfg)

					runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
					defer stop()

					a, err := app.New(runCtx, cfg, log)
					if err != nil {
						return fmt.Errorf("startup: %w", err)
					}
					defer a.Close()

					synced, err := a.Roles.SyncFromFile(runCtx, cfg.RolesFile)
					if err != nil {
						return err
					}
					fmt.Fprintf(os.Stdout, "synced %d roles\n", synced)
					return nil
				},
			},
		},
	}
}
