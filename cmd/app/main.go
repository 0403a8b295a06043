package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/spacedupes/internal"
	pkgconfig "github.com/starford/spacedupes/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func run(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	} else if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	// Command line flags override file values.
	if cmd.IsSet("days") {
		cfg.Detection.Days = int(cmd.Int("days"))
	}
	if cmd.IsSet("token") {
		cfg.Hub.Token = cmd.String("token")
	}
	if cmd.Bool("no-deep") {
		cfg.Detection.Deep = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithSource(cmd.String("source")),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "spacedupes",
		Usage:  "Find public Spaces recently duplicated from a given source Space",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "source",
				Usage:    "Source Space in 'owner/space-name' form",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "days",
				Usage: "Trailing window in days",
				Value: 14,
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Hub API token for authenticated requests",
				Sources: cli.EnvVars("HF_TOKEN"),
			},
			&cli.BoolFlag{
				Name:  "no-deep",
				Usage: "Skip the README frontmatter fallback when card metadata is silent",
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
