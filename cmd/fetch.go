/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"murzlite/feeds"
	"murzlite/fomo"
	"murzlite/models"
	"murzlite/murzfeed"
	"murzlite/query"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Print a listing to the command line",
		Description: `Fetch pages of the murzfeed or fomo listing straight from the upstream
APIs and print every post to the command line.

Returns each post as a JSON object on a single line. Use a tool like jq to process
the output.

Prints all other log messages to stderr.`,
		Flags: append(upstreamFlags(),
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Value:   feeds.MurzfeedID,
				Usage:   "Listing to fetch (murzfeed, fomo)",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sort mode, defaults to the source's default",
			},
			&cli.StringFlag{
				Name:  "search",
				Usage: "Search term, search results are a single page",
			},
			&cli.IntFlag{
				Name:  "pages",
				Value: 1,
				Usage: "Maximum number of pages to fetch",
			},
		),
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			pages := ctx.Int("pages")
			switch ctx.String("source") {
			case feeds.MurzfeedID:
				p := feeds.PostPaginator{
					Sort:     query.ParseSort(ctx.String("sort"), query.SortNewest),
					Search:   ctx.String("search"),
					PageSize: cfg.Murzfeed.PageSize,
				}
				return fetchListing[models.Post](ctx.Context, p, murzfeedFetcher(newMurzfeed(ctx, cfg), cfg.Murzfeed.PageSize), pages)
			case feeds.FomoID:
				p := feeds.NewFomoPaginator(fomo.ParseSort(ctx.String("sort")), ctx.String("search"))
				return fetchListing[models.FomoPost](ctx.Context, p, fomoFetcher(newFomo(ctx, cfg)), pages)
			}
			return fmt.Errorf("unknown source %q", ctx.String("source"))
		},
	}
}

// fetchListing walks the listing page by page and prints new items as they arrive
func fetchListing[T any](ctx context.Context, p feeds.Paginator[T], fetch func(context.Context, feeds.Request) (models.Page[T], error), pages int) error {
	manager := feeds.NewManager(p)
	printed := 0

	for manager.Len() < pages {
		req, ok := manager.Next()
		if !ok {
			break
		}

		page, err := fetch(ctx, req)
		if err != nil {
			return fmt.Errorf("could not fetch page %d: %w", req.Index+1, err)
		}
		if err := manager.Append(req, page); err != nil {
			return err
		}

		items := manager.Items()
		for i := printed; i < len(items); i++ {
			printStdout(items[i])
		}
		printed = len(items)

		log.WithFields(log.Fields{
			"page":     req.Index + 1,
			"position": req.Position(),
			"received": page.Received,
		}).Info("Fetched page")
	}
	return nil
}

func murzfeedFetcher(c *murzfeed.Client, pageSize int) func(context.Context, feeds.Request) (models.Page[models.Post], error) {
	return func(ctx context.Context, req feeds.Request) (models.Page[models.Post], error) {
		opts := query.Options{
			Sort:     query.ParseSort(req.Sort, query.SortNewest),
			Search:   req.Search,
			PageSize: pageSize,
		}
		if req.After != nil {
			opts.After = req.After.After()
		}
		return c.Feed(ctx, opts)
	}
}

func fomoFetcher(c *fomo.Client) func(context.Context, feeds.Request) (models.Page[models.FomoPost], error) {
	return func(ctx context.Context, req feeds.Request) (models.Page[models.FomoPost], error) {
		if req.Search != "" {
			return c.Search(ctx, req.Search, req.Page)
		}
		return c.ListFeed(ctx, fomo.ParseSort(req.Sort), req.Page)
	}
}

func printStdout(item any) {
	// Print as single JSON string on a single line
	itemJson, err := json.Marshal(item)
	if err == nil {
		fmt.Println(string(itemJson))
	}
}
