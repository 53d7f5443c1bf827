// Package apiclient reads listings from a running murzlite server
package apiclient

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"murzlite/feeds"
	"murzlite/models"
	"murzlite/upstream"
)

const Source = "murzlite"

// Client fetches pages from the server's JSON endpoints
type Client struct {
	http *upstream.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: upstream.New(upstream.Config{
			Source:  Source,
			BaseURL: baseURL,
			Timeout: timeout,
		}),
	}
}

// MurzfeedPage fetches the murzfeed listing page described by req
func (c *Client) MurzfeedPage(ctx context.Context, req feeds.Request) (models.Page[models.Post], error) {
	params := url.Values{}
	if req.Sort != "" {
		params.Set("sortBy", req.Sort)
	}
	if req.Search != "" {
		params.Set("search", req.Search)
	}
	if req.After != nil {
		params.Set("cursor", req.After.Encode())
	}

	var resp models.FeedResponse
	if err := c.http.GetJSON(ctx, "feed", "/", params, &resp); err != nil {
		return models.Page[models.Post]{}, err
	}
	return models.Page[models.Post]{Items: resp.Posts, Received: resp.Received}, nil
}

// FomoPage fetches the fomo listing or search page described by req
func (c *Client) FomoPage(ctx context.Context, req feeds.Request) (models.Page[models.FomoPost], error) {
	params := url.Values{"page": {strconv.Itoa(max(req.Page, 1))}}
	if req.Sort != "" {
		params.Set("sortBy", req.Sort)
	}
	if req.Search != "" {
		params.Set("search", req.Search)
	}

	var resp models.FomoFeedResponse
	if err := c.http.GetJSON(ctx, "fomo", "/api/fomo/posts", params, &resp); err != nil {
		return models.Page[models.FomoPost]{}, err
	}
	return models.Page[models.FomoPost]{Items: resp.Posts, Received: resp.Received}, nil
}

// FomoComments fetches a comment page of the post named by req.Scope
func (c *Client) FomoComments(ctx context.Context, req feeds.Request) (models.Page[models.FomoComment], error) {
	params := url.Values{
		"postId": {req.Scope},
		"page":   {strconv.Itoa(max(req.Page, 1))},
	}

	var resp models.FomoCommentsResponse
	if err := c.http.GetJSON(ctx, "comments", "/api/fomo/comments", params, &resp); err != nil {
		return models.Page[models.FomoComment]{}, err
	}
	return models.Page[models.FomoComment]{Items: resp.Comments, Received: resp.Received}, nil
}
