/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"murzlite/models"
	"murzlite/prefetch"
	"murzlite/query"
	"murzlite/server"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the murzfeed and fomo listings",
		Description: `Starts the murzlite HTTP server.

Serves the murzfeed listing at /, the fomo listing at /fomo, post pages
under /post and RSS feeds under /rss. The first murzfeed page is refreshed
in the background so the front page and its feed stay fast.`,
		Flags: append(upstreamFlags(),
			&cli.StringFlag{
				Name:    "hostname",
				Aliases: []string{"n"},
				Value:   "",
				Usage:   "The hostname to bind to",
				EnvVars: []string{"MURZLITE_HOSTNAME"},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   3000,
				Usage:   "Port to listen on",
				EnvVars: []string{"MURZLITE_PORT"},
			},
			&cli.DurationFlag{
				Name:    "prefetch-interval",
				Value:   time.Minute,
				Usage:   "How often the first murzfeed page is refreshed, 0 disables it",
				EnvVars: []string{"MURZLITE_PREFETCH_INTERVAL"},
			},
			&cli.BoolFlag{
				Name:    "no-cache",
				Usage:   "Disable the in-memory response cache",
				EnvVars: []string{"MURZLITE_NO_CACHE"},
			},
		),
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			murz := newMurzfeed(ctx, cfg)
			fo := newFomo(ctx, cfg)

			// Stop on interrupt or termination
			runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var wg sync.WaitGroup

			var warm *prefetch.Warmer[models.Post]
			if interval := ctx.Duration("prefetch-interval"); interval > 0 {
				warm = prefetch.NewWarmer("murzfeed", func(c context.Context) (models.Page[models.Post], error) {
					return murz.Feed(c, query.Options{Sort: server.DefaultSort, PageSize: cfg.Murzfeed.PageSize})
				}, interval)

				wg.Add(1)
				go func() {
					defer wg.Done()
					warm.Run(runCtx)
				}()
			}

			app := server.Server(&server.ServerConfig{
				Config:   cfg,
				Murzfeed: murz,
				Fomo:     fo,
				Warm:     warm,
				NoCache:  ctx.Bool("no-cache"),
			})

			go func() {
				<-runCtx.Done()
				log.Info("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
					log.WithError(err).Error("Failed to shut down server")
				}
			}()

			addr := fmt.Sprintf("%s:%d", ctx.String("hostname"), ctx.Int("port"))
			log.WithFields(log.Fields{
				"addr":    addr,
				"siteUrl": cfg.SiteURL,
			}).Info("Starting server")

			if err := app.Listen(addr); err != nil {
				stop()
				wg.Wait()
				return fmt.Errorf("server stopped: %w", err)
			}

			stop()
			wg.Wait()
			log.Info("Done!")
			return nil
		},
	}
}
