package models

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrNotFound is returned when a single post lookup yields nothing
var ErrNotFound = errors.New("not found")

// UserDetail is the author snapshot attached to a murzfeed post
type UserDetail struct {
	UserID   string `json:"userId"`
	PhotoURL string `json:"photoURL"`
}

// Post is a murzfeed post normalized from a Firestore document
type Post struct {
	ID                     string       `json:"id"`
	PostID                 string       `json:"postId"`
	Title                  string       `json:"title"`
	Content                string       `json:"content"`
	Username               string       `json:"username"`
	UID                    string       `json:"uid"`
	CreatedAt              time.Time    `json:"createdAt"`
	LatestCommentCreatedAt time.Time    `json:"latestCommentCreatedAt"`
	Published              bool         `json:"published"`
	IsDelete               bool         `json:"isDelete"`
	IsNewsletter           bool         `json:"isNewsletter"`
	IsAnonymous            bool         `json:"isAnonymous"`
	PostCategory           []string     `json:"postCategory"`
	PawCount               int64        `json:"pawCount"`
	ScratchCount           int64        `json:"scratchCount"`
	CommentsCount          int64        `json:"commentsCount"`
	RepliesCount           int64        `json:"repliesCount"`
	ViewCount              int64        `json:"viewCount"`
	TitleSlug              string       `json:"titleSlug"`
	ImageURL               []string     `json:"imageURL"`
	UserDetail             []UserDetail `json:"userDetail"`
	Reference              string       `json:"reference"`
}

// Visible reports whether the post may appear in the main feed
func (p Post) Visible() bool {
	return p.Published && !p.IsDelete && !p.IsNewsletter
}

// Thumbnail returns the first image url, if any
func (p Post) Thumbnail() string {
	if len(p.ImageURL) == 0 {
		return ""
	}
	return p.ImageURL[0]
}

// Slug is the friendly url fragment used in post links
func (p Post) Slug() string {
	return slugOrDefault(strings.ToLower(nonAlnum.ReplaceAllString(p.Title, "-")))
}

func (p Post) Excerpt() string {
	return Excerpt(p.Content)
}

// Comment is a murzfeed comment document on a post
type Comment struct {
	ID           string       `json:"id"`
	PostID       string       `json:"postId"`
	Content      string       `json:"content"`
	Username     string       `json:"username"`
	IsAnonymous  bool         `json:"isAnonymous"`
	IsDelete     bool         `json:"isDelete"`
	PawCount     int64        `json:"pawCount"`
	ScratchCount int64        `json:"scratchCount"`
	RepliesCount int64        `json:"repliesCount"`
	CreatedAt    time.Time    `json:"createdAt"`
	UserDetail   []UserDetail `json:"userDetail"`
}

// Author is the display name, hidden for anonymous commenters
func (c Comment) Author() string {
	if c.IsAnonymous || c.Username == "" {
		return "Anonymous"
	}
	return c.Username
}

// Reply lives in the replies sub-collection of a comment
type Reply struct {
	ID           string    `json:"id"`
	CommentID    string    `json:"commentId"`
	Content      string    `json:"content"`
	Username     string    `json:"username"`
	IsAnonymous  bool      `json:"isAnonymous"`
	IsDelete     bool      `json:"isDelete"`
	PawCount     int64     `json:"pawCount"`
	ScratchCount int64     `json:"scratchCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (r Reply) Author() string {
	switch {
	case r.IsDelete:
		return "[deleted]"
	case r.IsAnonymous || r.Username == "":
		return "Anonymous"
	}
	return r.Username
}

// FomoPost is an activity from the fomo feed
type FomoPost struct {
	ActivityID       int64     `json:"activityId"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	Type             string    `json:"type"`
	CreationTime     time.Time `json:"creationTime"`
	NumberOfLikes    int64     `json:"numberOfLikes"`
	NumberOfDislikes int64     `json:"numberOfDislikes"`
	NumberOfComments int64     `json:"numberOfComments"`
	Deleted          bool      `json:"deleted"`
	Banned           bool      `json:"banned"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	Username         string    `json:"username,omitempty"`
	CompanyName      string    `json:"companyName,omitempty"`
}

func (p FomoPost) Visible() bool {
	return !p.Deleted && !p.Banned
}

// Slug keeps dashes and alphanumerics after collapsing whitespace
func (p FomoPost) Slug() string {
	s := whitespace.ReplaceAllString(p.Title, "-")
	return slugOrDefault(strings.ToLower(nonSlug.ReplaceAllString(s, "")))
}

// FeedSlug is the url fragment used in RSS links, same rule as Post.Slug
func (p FomoPost) FeedSlug() string {
	return slugOrDefault(strings.ToLower(nonAlnum.ReplaceAllString(p.Title, "-")))
}

func (p FomoPost) Excerpt() string {
	return Excerpt(p.Content)
}

func (p FomoPost) Author() string {
	if p.Username == "" {
		return "Anonymous"
	}
	return p.Username
}

// FomoComment is a comment on a fomo activity, with its first level of replies
type FomoComment struct {
	ActivityID       int64         `json:"activityId"`
	ParentActivityID int64         `json:"parentActivityId"`
	Value            string        `json:"value"`
	CreationTime     time.Time     `json:"creationTime"`
	NumberOfLikes    int64         `json:"numberOfLikes"`
	NumberOfDislikes int64         `json:"numberOfDislikes"`
	NumberOfComments int64         `json:"numberOfComments"`
	Deleted          bool          `json:"deleted"`
	Banned           bool          `json:"banned"`
	Username         string        `json:"username,omitempty"`
	Replies          []FomoComment `json:"replies,omitempty"`
}

func (c FomoComment) Visible() bool {
	return !c.Deleted && !c.Banned
}

// Page is one fetched page. Received counts the records the upstream
// returned before any local filtering and drives end-of-feed detection.
type Page[T any] struct {
	Items    []T `json:"data"`
	Received int `json:"received"`
}

// FeedResponse is the murzfeed listing served by the HTTP API
type FeedResponse struct {
	Posts      []Post  `json:"data"`
	Received   int     `json:"received"`
	SortBy     string  `json:"sortBy"`
	Search     string  `json:"search,omitempty"`
	NextCursor *string `json:"nextCursor"`
}

// FomoFeedResponse is the fomo listing served by the HTTP API
type FomoFeedResponse struct {
	Posts    []FomoPost `json:"data"`
	Received int        `json:"received"`
	SortBy   string     `json:"sortBy"`
	Search   string     `json:"search,omitempty"`
	Page     int        `json:"page"`
	NextPage *int       `json:"nextPage"`
}

type PostDetail struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
}

type FomoPostDetail struct {
	Post     FomoPost      `json:"post"`
	Comments []FomoComment `json:"comments"`
	NextPage *int          `json:"nextPage"`
}

// FomoCommentsResponse is one page of comments on a fomo post
type FomoCommentsResponse struct {
	Comments []FomoComment `json:"data"`
	Received int           `json:"received"`
	Page     int           `json:"page"`
	NextPage *int          `json:"nextPage"`
}

type RepliesResponse struct {
	Replies []Reply `json:"data"`
}

// FeedInfo describes one exported RSS feed
type FeedInfo struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

var (
	nonAlnum   = regexp.MustCompile(`[^a-zA-Z0-9]`)
	nonSlug    = regexp.MustCompile(`[^a-zA-Z0-9-]`)
	whitespace = regexp.MustCompile(`\s+`)
)

const (
	excerptWords = 20
	excerptChars = 100
)

func slugOrDefault(s string) string {
	if s == "" {
		return "post"
	}
	return s
}

// Excerpt shortens text to its first words, appending an ellipsis when cut
func Excerpt(text string) string {
	words := strings.Fields(text)
	truncated := len(words) > excerptWords
	if truncated {
		words = words[:excerptWords]
	}
	out := strings.Join(words, " ")
	if utf8.RuneCountInString(out) > excerptChars {
		out = string([]rune(out)[:excerptChars])
		truncated = true
	}
	if truncated {
		out += "..."
	}
	return out
}
