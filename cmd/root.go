/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"murzlite/config"
	"murzlite/fomo"
	"murzlite/murzfeed"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "murzlite",
		Usage: "A lightweight reader for the murzfeed and fomo communities",
		Description: `A read-only aggregator of two anonymous workplace communities.

		Murzlite reads posts from the murzfeed Firestore database and the
		fomo activity API and serves them as paginated JSON listings, post
		pages and RSS feeds. Nothing is stored locally.

		Flags can generally be set via environment variables, e.g.:

		--config => MURZLITE_CONFIG=murzlite.toml
		--port => MURZLITE_PORT=3000
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional TOML configuration file",
				EnvVars: []string{"MURZLITE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (trace, debug, info, warn, error)",
				EnvVars: []string{"MURZLITE_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:    "log-json",
				Usage:   "Log as JSON instead of text",
				EnvVars: []string{"MURZLITE_LOG_JSON"},
			},
		},
		Before: func(ctx *cli.Context) error {
			level, err := log.ParseLevel(ctx.String("log-level"))
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			log.SetLevel(level)
			if ctx.Bool("log-json") {
				log.SetFormatter(&log.JSONFormatter{})
			}
			// Keep stdout free for command output
			log.SetOutput(os.Stderr)
			return nil
		},
		Commands: []*cli.Command{
			serveCmd(),
			fetchCmd(),
			rssCmd(),
			browseCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

// Flags shared by the commands that talk to the upstream feeds
func upstreamFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "fomo-token",
			Usage:   "Authorization token sent to the fomo API",
			EnvVars: []string{"MURZLITE_FOMO_TOKEN"},
		},
		&cli.DurationFlag{
			Name:    "upstream-timeout",
			Value:   10 * time.Second,
			Usage:   "Timeout for a single upstream request",
			EnvVars: []string{"MURZLITE_UPSTREAM_TIMEOUT"},
		},
	}
}

func loadConfig(ctx *cli.Context) (*config.TomlConfig, error) {
	cfg, err := config.LoadConfig(ctx.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newMurzfeed(ctx *cli.Context, cfg *config.TomlConfig) *murzfeed.Client {
	return murzfeed.New(murzfeed.Config{
		BaseURL:    cfg.Murzfeed.BaseURL,
		ProjectID:  cfg.Murzfeed.ProjectID,
		Categories: cfg.Murzfeed.Categories,
		Timeout:    ctx.Duration("upstream-timeout"),
	})
}

func newFomo(ctx *cli.Context, cfg *config.TomlConfig) *fomo.Client {
	token := ctx.String("fomo-token")
	if token == "" {
		log.Warn("No fomo token configured, fomo requests will likely be rejected")
	}
	return fomo.New(fomo.Config{
		BaseURL:   cfg.Fomo.BaseURL,
		Token:     token,
		Blocklist: cfg.Fomo.Blocklist,
		Timeout:   ctx.Duration("upstream-timeout"),
	})
}
