package fomo

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"murzlite/models"
	"murzlite/upstream"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://fomo.azurewebsites.net"
	Source         = "fomo"

	FeedPageSize    = 10
	CommentPageSize = 20
	SearchPageSize  = 10
)

// Sort is a fomo sort mode
type Sort string

const (
	SortRecent   Sort = "recent"
	SortTrending Sort = "trending"
)

// ParseSort returns SortRecent for anything unknown
func ParseSort(s string) Sort {
	if Sort(s) == SortTrending {
		return SortTrending
	}
	return SortRecent
}

// DefaultBlocklist holds the activity types hidden from the feed
var DefaultBlocklist = []string{"INTERNAL_PROMO", "PROMO", "SALARY", "COMPANY_REVIEW", "TALENT_POST"}

type Config struct {
	BaseURL string
	// Token is sent verbatim in the authorization header
	Token     string
	Blocklist []string
	Timeout   time.Duration
}

// Client reads the fomo activity API
type Client struct {
	http      *upstream.Client
	blocklist []string
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Blocklist == nil {
		cfg.Blocklist = DefaultBlocklist
	}
	headers := map[string]string{}
	if cfg.Token != "" {
		headers["Authorization"] = cfg.Token
	}
	return &Client{
		http: upstream.New(upstream.Config{
			Source:  Source,
			BaseURL: cfg.BaseURL,
			Headers: headers,
			Timeout: cfg.Timeout,
		}),
		blocklist: cfg.Blocklist,
	}
}

// ListFeed returns one page of the feed without blocklisted activity types
func (c *Client) ListFeed(ctx context.Context, sort Sort, page int) (models.Page[models.FomoPost], error) {
	params := url.Values{
		"sortMode": {strings.ToUpper(string(sort))},
		"limit":    {strconv.Itoa(FeedPageSize)},
		"page":     {strconv.Itoa(normalizePage(page))},
	}

	var resp listResponse
	if err := c.http.GetJSON(ctx, "feed", "feed", params, &resp); err != nil {
		return models.Page[models.FomoPost]{}, err
	}

	posts := lo.FilterMap(resp.Data, func(i item, _ int) (models.FomoPost, bool) {
		if i.Inner == nil {
			return models.FomoPost{}, false
		}
		p := toPost(i.Inner)
		return p, !lo.Contains(c.blocklist, p.Type)
	})

	log.WithFields(log.Fields{
		"sort":     sort,
		"page":     page,
		"received": len(resp.Data),
		"kept":     len(posts),
	}).Debug("Fetched fomo page")

	return models.Page[models.FomoPost]{Items: posts, Received: len(resp.Data)}, nil
}

// Comments returns one page of comments on a post, most recent first
func (c *Client) Comments(ctx context.Context, postID string, page int) (models.Page[models.FomoComment], error) {
	params := url.Values{
		"limit":    {strconv.Itoa(CommentPageSize)},
		"page":     {strconv.Itoa(normalizePage(page))},
		"sortMode": {"RECENT"},
	}

	var resp listResponse
	if err := c.http.GetJSON(ctx, "comments", "activity/"+url.PathEscape(postID)+"/comments", params, &resp); err != nil {
		return models.Page[models.FomoComment]{}, err
	}

	comments := lo.FilterMap(resp.Data, func(i item, _ int) (models.FomoComment, bool) {
		return toComment(i.Inner), i.Inner != nil
	})
	return models.Page[models.FomoComment]{Items: comments, Received: len(resp.Data)}, nil
}

// Search runs a full-text search. An empty term returns an empty page
// without calling the API.
func (c *Client) Search(ctx context.Context, term string, page int) (models.Page[models.FomoPost], error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return models.Page[models.FomoPost]{Items: []models.FomoPost{}}, nil
	}

	params := url.Values{
		"limit": {strconv.Itoa(SearchPageSize)},
		"page":  {strconv.Itoa(normalizePage(page))},
	}

	var resp listResponse
	if err := c.http.GetJSON(ctx, "search", "post/searchV3/"+url.PathEscape(term), params, &resp); err != nil {
		return models.Page[models.FomoPost]{}, err
	}

	posts := lo.FilterMap(resp.Data, func(i item, _ int) (models.FomoPost, bool) {
		return toPost(i.Inner), i.Inner != nil
	})
	return models.Page[models.FomoPost]{Items: posts, Received: len(resp.Data)}, nil
}

// Post fetches a single activity. Unknown ids come back as an empty record
// and are reported as models.ErrNotFound.
func (c *Client) Post(ctx context.Context, activityID int64) (*models.FomoPost, error) {
	var resp item
	body := map[string]string{"activityId": strconv.FormatInt(activityID, 10)}
	if err := c.http.PostJSON(ctx, "post", "activity", body, &resp); err != nil {
		return nil, err
	}

	if resp.Inner == nil || resp.Inner.ActivityID == 0 {
		return nil, models.ErrNotFound
	}
	post := toPost(resp.Inner)
	return &post, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
