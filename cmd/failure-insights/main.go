package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/miradorstack/failure-insights/internal/config"
	"github.com/miradorstack/failure-insights/internal/utils"
)

// app carries the state resolved by the root command for its subcommands.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newCommand(&app{}).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "failure-insights",
		Usage: "Catalogue and chart the intermittent test failures of a bug",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Path to configuration file",
				Sources:     cli.EnvVars(config.EnvPrefix + "CONFIG"),
				Destination: &a.configPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (debug, info, warn, error)",
				Category:    "Logging",
				Destination: &a.logLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "Log format (text, json, console, auto)",
				Category:    "Logging",
				Destination: &a.logFormat,
			},
		},
		Before: a.setup,
		Commands: []*cli.Command{
			cmdServe(a),
			cmdAnalyze(a),
		},
	}
}

func (a *app) setup(ctx context.Context, _ *cli.Command) (context.Context, error) {
	config.LoadDotEnv(".")

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return ctx, fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}

	a.cfg = cfg
	a.logger = utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.JSON)
	slog.SetDefault(a.logger)
	return ctx, nil
}
