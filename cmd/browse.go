/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"murzlite/apiclient"
	"murzlite/feeds"
	"murzlite/feedview"
	"murzlite/fomo"
	"murzlite/models"
	"murzlite/query"

	"github.com/cqroot/prompt"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
)

const (
	actionMore   = "Load more"
	actionSort   = "Change sort"
	actionSearch = "Search"
	actionClear  = "Clear search"
	actionOpen   = "Open comments"
	actionQuit   = "Quit"
)

func browseCmd() *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Browse a listing of a running server interactively",
		Description: `Browse the murzfeed or fomo listing served by a running murzlite server.

Pages are loaded on demand. Changing the sort or the search starts the
listing over from the first page.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:3000",
				Usage:   "Base URL of the murzlite server",
				EnvVars: []string{"MURZLITE_SERVER"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			api := apiclient.New(ctx.String("server"), 0)

			source, err := prompt.New().Ask("Listing:").Choose([]string{feeds.MurzfeedID, feeds.FomoID})
			if err != nil {
				return err
			}

			if source == feeds.FomoID {
				c := feedview.New(feedview.Options[models.FomoPost]{
					Defaults: feedview.Params{Sort: string(fomo.SortRecent)},
					Paginate: func(p feedview.Params) feeds.Paginator[models.FomoPost] {
						return feeds.NewFomoPaginator(fomo.ParseSort(p.Sort), p.Search)
					},
					Fetch: api.FomoPage,
				})
				defer c.Close()

				sorts := []string{string(fomo.SortRecent), string(fomo.SortTrending)}
				return browse(ctx.Context, c, sorts, func(p models.FomoPost) string {
					return fmt.Sprintf("%s (%d likes, %d comments) by %s\n     %s", p.Title, p.NumberOfLikes, p.NumberOfComments, p.Author(), p.Excerpt())
				}, func(p models.FomoPost) error {
					return browseComments(ctx.Context, api, p)
				})
			}

			c := feedview.New(feedview.Options[models.Post]{
				Defaults: feedview.Params{Sort: string(query.SortNewest)},
				Paginate: func(p feedview.Params) feeds.Paginator[models.Post] {
					return feeds.PostPaginator{
						Sort:     query.ParseSort(p.Sort, query.SortNewest),
						Search:   p.Search,
						PageSize: cfg.Murzfeed.PageSize,
					}
				},
				Fetch: api.MurzfeedPage,
			})
			defer c.Close()

			sorts := lo.Map(query.Sorts, func(s query.Sort, _ int) string { return string(s) })
			return browse(ctx.Context, c, sorts, func(p models.Post) string {
				return fmt.Sprintf("%s (%d paws, %d comments)\n     %s", p.Title, p.PawCount, p.CommentsCount, p.Excerpt())
			}, nil)
		},
	}
}

// browseComments pages through the comments of one fomo post
func browseComments(ctx context.Context, api *apiclient.Client, post models.FomoPost) error {
	postID := strconv.FormatInt(post.ActivityID, 10)
	c := feedview.New(feedview.Options[models.FomoComment]{
		Defaults: feedview.Params{Sort: string(fomo.SortRecent)},
		Paginate: func(feedview.Params) feeds.Paginator[models.FomoComment] {
			return feeds.NewCommentPaginator(postID)
		},
		Fetch: api.FomoComments,
	})
	defer c.Close()

	fmt.Printf("\n== %s ==\n", post.Title)
	return browse(ctx, c, nil, func(cm models.FomoComment) string {
		author := cm.Username
		if author == "" {
			author = "Anonymous"
		}
		return fmt.Sprintf("%s: %s (%d replies)", author, cm.Value, len(cm.Replies))
	}, nil)
}

// browse prints the listing and asks for the next action until the user
// quits. Without sorts the listing cannot be re-sorted or searched; open,
// when set, drills into one item.
func browse[T any](ctx context.Context, c *feedview.Controller[T], sorts []string, line func(T) string, open func(T) error) error {
	shown := 0
	generation := c.Generation()

	for {
		if c.Generation() != generation {
			generation, shown = c.Generation(), 0
			params := c.Params()
			fmt.Printf("\n-- sort: %s, search: %q --\n", params.Sort, params.Search)
		}

		if len(c.Items()) == 0 && !c.Done() {
			if err := c.LoadMore(ctx); err != nil && !errors.Is(err, feedview.ErrStale) {
				fmt.Println("Could not load page:", err)
			}
		}

		items := c.Items()
		for i := shown; i < len(items); i++ {
			fmt.Printf("%3d. %s\n", i+1, line(items[i]))
		}
		shown = len(items)

		var actions []string
		if open != nil && len(items) > 0 {
			actions = append(actions, actionOpen)
		}
		if len(sorts) > 0 {
			actions = append(actions, actionSort, actionSearch)
		}
		if !c.Done() {
			actions = append([]string{actionMore}, actions...)
		}
		if c.Params().Search != "" {
			actions = append(actions, actionClear)
		}
		actions = append(actions, actionQuit)

		action, err := prompt.New().Ask("Next:").Choose(actions)
		if err != nil {
			return err
		}

		switch action {
		case actionMore:
			if err := c.LoadMore(ctx); err != nil && !errors.Is(err, feedview.ErrStale) {
				fmt.Println("Could not load page:", err)
			}
		case actionOpen:
			raw, err := prompt.New().Ask("Post number:").Input("1")
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil || n < 1 || n > len(items) {
				fmt.Println("No such post:", raw)
				continue
			}
			if err := open(items[n-1]); err != nil {
				return err
			}
			// Print the listing again after returning
			shown = 0
		case actionSort:
			sort, err := prompt.New().Ask("Sort:").Choose(sorts)
			if err != nil {
				return err
			}
			c.SetSort(sort)
		case actionSearch:
			term, err := prompt.New().Ask("Search:").Input(c.PendingSearch())
			if err != nil {
				return err
			}
			c.SetSearch(term)
			c.FlushSearch()
		case actionClear:
			c.SetSearch("")
		case actionQuit:
			return nil
		}
	}
}
