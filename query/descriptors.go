package query

import (
	"fmt"
	"strings"
)

// Sort is a murzfeed sort mode
type Sort string

const (
	SortNewest       Sort = "newest"
	SortNewestAll    Sort = "newest_all"
	SortTrending     Sort = "trending"
	SortLastActivity Sort = "last_activity"
)

var Sorts = []Sort{SortNewest, SortNewestAll, SortTrending, SortLastActivity}

// ParseSort returns fallback for anything that is not a known sort mode
func ParseSort(s string, fallback Sort) Sort {
	for _, sort := range Sorts {
		if string(sort) == s {
			return sort
		}
	}
	return fallback
}

// TimestampField is the document field the sort mode orders by
func (s Sort) TimestampField() string {
	switch s {
	case SortLastActivity, SortNewestAll:
		return "latestCommentCreatedAt"
	default:
		return "createdAt"
	}
}

const (
	PostsCollection    = "posts"
	CommentsCollection = "comments"
	RepliesCollection  = "replies"

	DefaultPageSize = 10
	// SearchPageSize is fixed, searches return a single page
	SearchPageSize = 10
	MaxPageSize    = 50
)

// DefaultCategories is the allow-list used by the trending sort
var DefaultCategories = []string{
	"Company shutdown",
	"New company/startup",
	"WFA/WFO",
	"Work Experience",
	"Management info",
	"Layoff",
	"Employee benefit",
	"Product",
	"Acquisition/merger",
	"New funding",
}

// Options selects one page of the murzfeed listing
type Options struct {
	Sort     Sort
	Search   string
	After    *After
	PageSize int
}

// NormalizeSearch lower-cases and trims a search term
func NormalizeSearch(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// Builder produces the descriptors used against one Firestore database
type Builder struct {
	projectID  string
	categories []string
}

func NewBuilder(projectID string, categories []string) *Builder {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	return &Builder{projectID: projectID, categories: categories}
}

// Parent is the documents root of the database
func (b *Builder) Parent() string {
	return fmt.Sprintf("projects/%s/databases/(default)/documents", b.projectID)
}

// Reference is the full document name of id within collection
func (b *Builder) Reference(collection, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.Parent(), collection, id)
}

// Feed builds the listing query for one page
func (b *Builder) Feed(opts Options) Descriptor {
	fb := NewFeedQueryBuilder(PostsCollection)
	fb.AddFilter(&VisibilityFilter{})

	if term := NormalizeSearch(opts.Search); term != "" {
		fb.SetOrder(&SlugPrefixOrder{Term: term})
		return fb.Build(SearchPageSize, nil)
	}

	if opts.Sort == SortTrending {
		fb.AddFilter(&CategoryFilter{Categories: b.categories})
	}

	fb.SetOrder(&TimestampOrder{
		Field: opts.Sort.TimestampField(),
		Reference: func(id string) string {
			return b.Reference(PostsCollection, id)
		},
	})

	return fb.Build(ClampPageSize(opts.PageSize), opts.After)
}

// PostByID looks up a post by its external post id
func (b *Builder) PostByID(postID string) Descriptor {
	fb := NewFeedQueryBuilder(PostsCollection)
	fb.AddFilter(&EqualFilter{Field: "postId", Value: postID})
	return fb.Build(1, nil)
}

// CommentsByPost lists the comments of a post, newest first
func (b *Builder) CommentsByPost(postID string) Descriptor {
	fb := NewFeedQueryBuilder(CommentsCollection)
	fb.AddFilter(&EqualFilter{Field: "postId", Value: postID})
	fb.SetOrder(&CreatedOrder{Field: "createdAt", Direction: Descending})
	return fb.Build(0, nil)
}

// ClampPageSize maps a requested size into [1, MaxPageSize], 0 means default
func ClampPageSize(size int) int {
	switch {
	case size <= 0:
		return DefaultPageSize
	case size > MaxPageSize:
		return MaxPageSize
	}
	return size
}
