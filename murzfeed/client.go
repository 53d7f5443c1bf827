package murzfeed

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"murzlite/models"
	"murzlite/query"
	"murzlite/upstream"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL   = "https://firestore.googleapis.com/v1"
	DefaultProjectID = "mfeed-c43b1"
	Source           = "murzfeed"
)

type Config struct {
	BaseURL    string
	ProjectID  string
	Categories []string
	Timeout    time.Duration
}

// Client reads posts, comments and replies from the murzfeed Firestore database
type Client struct {
	http    *upstream.Client
	builder *query.Builder
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ProjectID == "" {
		cfg.ProjectID = DefaultProjectID
	}
	return &Client{
		http: upstream.New(upstream.Config{
			Source:  Source,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}),
		builder: query.NewBuilder(cfg.ProjectID, cfg.Categories),
	}
}

// RunQuery executes a descriptor and returns the envelopes carrying a document
func (c *Client) RunQuery(ctx context.Context, op string, d query.Descriptor) ([]query.Envelope, error) {
	var envelopes []query.Envelope
	if err := c.http.PostJSON(ctx, op, c.builder.Parent()+":runQuery", d, &envelopes); err != nil {
		return nil, err
	}
	return lo.Filter(envelopes, func(e query.Envelope, _ int) bool {
		return e.Document != nil
	}), nil
}

// Feed returns one page of the listing
func (c *Client) Feed(ctx context.Context, opts query.Options) (models.Page[models.Post], error) {
	envelopes, err := c.RunQuery(ctx, "feed", c.builder.Feed(opts))
	if err != nil {
		return models.Page[models.Post]{}, err
	}

	posts := lo.Map(envelopes, func(e query.Envelope, _ int) models.Post {
		return ToPost(*e.Document)
	})

	log.WithFields(log.Fields{
		"sort":     opts.Sort,
		"search":   opts.Search,
		"received": len(posts),
	}).Debug("Fetched murzfeed page")

	return models.Page[models.Post]{
		Items:    lo.Filter(posts, func(p models.Post, _ int) bool { return p.Visible() }),
		Received: len(posts),
	}, nil
}

// Post looks up a post by its external post id
func (c *Client) Post(ctx context.Context, postID string) (*models.Post, error) {
	envelopes, err := c.RunQuery(ctx, "post", c.builder.PostByID(postID))
	if err != nil {
		return nil, err
	}
	if len(envelopes) == 0 {
		return nil, models.ErrNotFound
	}
	post := ToPost(*envelopes[0].Document)
	return &post, nil
}

// Comments lists the comments of a post, newest first
func (c *Client) Comments(ctx context.Context, postID string) ([]models.Comment, error) {
	envelopes, err := c.RunQuery(ctx, "comments", c.builder.CommentsByPost(postID))
	if err != nil {
		return nil, err
	}
	return lo.Map(envelopes, func(e query.Envelope, _ int) models.Comment {
		return ToComment(*e.Document)
	}), nil
}

// Replies lists the replies of a comment, newest first
func (c *Client) Replies(ctx context.Context, commentID string) ([]models.Reply, error) {
	path := fmt.Sprintf("%s/%s/%s/%s",
		c.builder.Parent(), query.CommentsCollection, url.PathEscape(commentID), query.RepliesCollection)

	var resp query.ListResponse
	if err := c.http.GetJSON(ctx, "replies", path, nil, &resp); err != nil {
		return nil, err
	}

	replies := lo.Map(resp.Documents, func(d query.Document, _ int) models.Reply {
		r := ToReply(d)
		r.CommentID = commentID
		return r
	})
	sort.SliceStable(replies, func(i, j int) bool {
		return replies[i].CreatedAt.After(replies[j].CreatedAt)
	})
	return replies, nil
}
