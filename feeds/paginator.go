package feeds

import (
	"fmt"
	"strconv"

	"murzlite/fomo"
	"murzlite/models"
	"murzlite/query"
)

// Request identifies one page to fetch
type Request struct {
	// Index is the 0-based position of the page in the listing
	Index  int
	Sort   string
	Search string
	// Scope narrows the listing, e.g. to the comments of one post
	Scope string
	// After is set for murzfeed continuation pages
	After *Cursor
	// Page is the 1-based fomo page number
	Page int
}

// Key identifies the request among all requests of any listing
func (r Request) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s", r.Scope, r.Sort, r.Search, r.Position())
}

// Position is the cursor token or page number of the request
func (r Request) Position() string {
	switch {
	case r.After != nil:
		return r.After.Encode()
	case r.Page > 0:
		return strconv.Itoa(r.Page)
	}
	return FirstPage
}

// Paginator decides the request following a page and how items are merged
type Paginator[T any] interface {
	// Next returns the request for page index given the previous page,
	// or false when the listing is exhausted
	Next(index int, prev *models.Page[T]) (Request, bool)
	Identity(item T) string
	Visible(item T) bool
}

// PostPaginator pages through murzfeed by (timestamp, id) continuation
type PostPaginator struct {
	Sort     query.Sort
	Search   string
	PageSize int
}

func (p PostPaginator) Next(index int, prev *models.Page[models.Post]) (Request, bool) {
	req := Request{Index: index, Sort: string(p.Sort), Search: p.Search}
	if index == 0 {
		return req, true
	}

	// A short page marks the end. A full last page costs one extra empty fetch.
	if query.NormalizeSearch(p.Search) != "" || prev == nil ||
		len(prev.Items) == 0 || prev.Received < query.ClampPageSize(p.PageSize) {
		return Request{}, false
	}

	cursor := CursorFor(prev.Items[len(prev.Items)-1], p.Sort)
	req.After = &cursor
	return req, true
}

func (p PostPaginator) Identity(post models.Post) string {
	return post.ID
}

func (p PostPaginator) Visible(post models.Post) bool {
	return post.Visible()
}

// ActivityPaginator pages through fomo by page number
type ActivityPaginator[T any] struct {
	Sort     string
	Search   string
	Scope    string
	PageSize int
	// Single disables continuation past the first page
	Single bool
	ID     func(T) int64
	Keep   func(T) bool
}

func (p ActivityPaginator[T]) Next(index int, prev *models.Page[T]) (Request, bool) {
	req := Request{Index: index, Sort: p.Sort, Search: p.Search, Scope: p.Scope, Page: index + 1}
	if index == 0 {
		return req, true
	}
	if p.Single || prev == nil || prev.Received < p.PageSize {
		return Request{}, false
	}
	return req, true
}

func (p ActivityPaginator[T]) Identity(item T) string {
	return strconv.FormatInt(p.ID(item), 10)
}

func (p ActivityPaginator[T]) Visible(item T) bool {
	return p.Keep == nil || p.Keep(item)
}

// NewFomoPaginator pages the fomo feed, or a single page of search results
func NewFomoPaginator(sort fomo.Sort, search string) ActivityPaginator[models.FomoPost] {
	size := fomo.FeedPageSize
	if search != "" {
		size = fomo.SearchPageSize
	}
	return ActivityPaginator[models.FomoPost]{
		Sort:     string(sort),
		Search:   search,
		PageSize: size,
		Single:   search != "",
		ID:       func(p models.FomoPost) int64 { return p.ActivityID },
		Keep:     models.FomoPost.Visible,
	}
}

// NewCommentPaginator pages the comments of one fomo post
func NewCommentPaginator(postID string) ActivityPaginator[models.FomoComment] {
	return ActivityPaginator[models.FomoComment]{
		Sort:     string(fomo.SortRecent),
		Scope:    postID,
		PageSize: fomo.CommentPageSize,
		ID:       func(c models.FomoComment) int64 { return c.ActivityID },
		Keep:     models.FomoComment.Visible,
	}
}

var _ Paginator[models.Post] = PostPaginator{}
var _ Paginator[models.FomoPost] = ActivityPaginator[models.FomoPost]{}
