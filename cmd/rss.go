/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"murzlite/feeds"
	"murzlite/fomo"
	"murzlite/models"
	"murzlite/query"
	"murzlite/rss"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
)

func rssCmd() *cli.Command {
	return &cli.Command{
		Name:      "rss",
		Usage:     "Print an RSS feed",
		ArgsUsage: "<murzfeed|fomo>",
		Description: `Renders the murzfeed or fomo RSS feed from the first page of the
upstream listing and writes the XML document to stdout.`,
		Flags: upstreamFlags(),
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			var body []byte
			switch id := ctx.Args().First(); id {
			case feeds.MurzfeedID:
				page, err := newMurzfeed(ctx, cfg).Feed(ctx.Context, query.Options{Sort: query.SortNewest, PageSize: cfg.Murzfeed.PageSize})
				if err != nil {
					return err
				}
				posts := lo.Filter(page.Items, func(p models.Post, _ int) bool { return p.Visible() })
				body, err = rss.Render(rss.MurzfeedChannel(cfg), rss.MurzfeedEntries(cfg.SiteURL, posts))
				if err != nil {
					return err
				}
			case feeds.FomoID:
				page, err := newFomo(ctx, cfg).ListFeed(ctx.Context, fomo.SortRecent, 1)
				if err != nil {
					return err
				}
				posts := lo.Filter(page.Items, func(p models.FomoPost, _ int) bool { return p.Visible() })
				body, err = rss.Render(rss.FomoChannel(cfg), rss.FomoEntries(cfg.SiteURL, posts))
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown feed %q, expected %s or %s", id, feeds.MurzfeedID, feeds.FomoID)
			}

			_, err = os.Stdout.Write(body)
			return err
		},
	}
}
