package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"murzlite/config"
	"murzlite/feeds"
	"murzlite/fomo"
	"murzlite/models"
	"murzlite/query"
	"murzlite/server"
	"murzlite/upstream"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMurz struct {
	posts    []models.Post
	lastOpts query.Options
	err      error
}

func (f *fakeMurz) Feed(ctx context.Context, opts query.Options) (models.Page[models.Post], error) {
	f.lastOpts = opts
	if f.err != nil {
		return models.Page[models.Post]{}, f.err
	}
	return models.Page[models.Post]{Items: f.posts, Received: len(f.posts)}, nil
}

func (f *fakeMurz) Post(ctx context.Context, postID string) (*models.Post, error) {
	for _, p := range f.posts {
		if p.PostID == postID {
			return &p, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeMurz) Comments(ctx context.Context, postID string) ([]models.Comment, error) {
	return []models.Comment{{ID: "c1", PostID: postID, Content: "hi"}}, nil
}

func (f *fakeMurz) Replies(ctx context.Context, commentID string) ([]models.Reply, error) {
	return []models.Reply{{ID: "r1", CommentID: commentID}}, nil
}

type fakeFomo struct {
	posts    []models.FomoPost
	comments []models.FomoComment
	lastSort fomo.Sort
	lastPage int
	lastTerm string
}

func (f *fakeFomo) ListFeed(ctx context.Context, sort fomo.Sort, page int) (models.Page[models.FomoPost], error) {
	f.lastSort, f.lastPage = sort, page
	return models.Page[models.FomoPost]{Items: f.posts, Received: len(f.posts)}, nil
}

func (f *fakeFomo) Comments(ctx context.Context, postID string, page int) (models.Page[models.FomoComment], error) {
	f.lastPage = page
	return models.Page[models.FomoComment]{Items: f.comments, Received: len(f.comments)}, nil
}

func (f *fakeFomo) Search(ctx context.Context, term string, page int) (models.Page[models.FomoPost], error) {
	f.lastTerm, f.lastPage = term, page
	return models.Page[models.FomoPost]{Items: f.posts, Received: len(f.posts)}, nil
}

func (f *fakeFomo) Post(ctx context.Context, activityID int64) (*models.FomoPost, error) {
	for _, p := range f.posts {
		if p.ActivityID == activityID {
			return &p, nil
		}
	}
	return nil, models.ErrNotFound
}

func murzPosts(n int) []models.Post {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	posts := make([]models.Post, n)
	for i := range posts {
		id := string(rune('a' + i))
		posts[i] = models.Post{
			ID:        id,
			PostID:    id,
			Title:     "Post " + id,
			Published: true,
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
	}
	return posts
}

func newApp(murz *fakeMurz, fo *fakeFomo) *fiber.App {
	return server.Server(&server.ServerConfig{
		Config:   config.Default(),
		Murzfeed: murz,
		Fomo:     fo,
		NoCache:  true,
	})
}

func get(t *testing.T, app *fiber.App, target string) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestMurzfeedFeed(t *testing.T) {
	t.Run("full page yields a cursor", func(t *testing.T) {
		murz := &fakeMurz{posts: murzPosts(10)}
		resp, body := get(t, newApp(murz, &fakeFomo{}), "/")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, server.PageCacheControl, resp.Header.Get("Cache-Control"))

		var feed models.FeedResponse
		require.NoError(t, json.Unmarshal(body, &feed))
		assert.Len(t, feed.Posts, 10)
		assert.Equal(t, "newest", feed.SortBy)
		require.NotNil(t, feed.NextCursor)

		cursor, err := feeds.DecodeCursor(*feed.NextCursor)
		require.NoError(t, err)
		assert.Equal(t, "j", cursor.ID)
	})

	t.Run("short page ends the listing", func(t *testing.T) {
		murz := &fakeMurz{posts: murzPosts(3)}
		_, body := get(t, newApp(murz, &fakeFomo{}), "/?sortBy=trending")

		var feed models.FeedResponse
		require.NoError(t, json.Unmarshal(body, &feed))
		assert.Equal(t, "trending", feed.SortBy)
		assert.Nil(t, feed.NextCursor)
		assert.Equal(t, query.SortTrending, murz.lastOpts.Sort)
	})

	t.Run("cursor is passed upstream", func(t *testing.T) {
		murz := &fakeMurz{posts: murzPosts(1)}
		token := feeds.CursorFor(murzPosts(1)[0], query.SortNewest).Encode()
		resp, _ := get(t, newApp(murz, &fakeFomo{}), "/?cursor="+token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotNil(t, murz.lastOpts.After)
		assert.Equal(t, "a", murz.lastOpts.After.ID)
	})

	t.Run("search has no continuation", func(t *testing.T) {
		murz := &fakeMurz{posts: murzPosts(10)}
		_, body := get(t, newApp(murz, &fakeFomo{}), "/?search=Post")

		var feed models.FeedResponse
		require.NoError(t, json.Unmarshal(body, &feed))
		assert.Equal(t, "Post", feed.Search)
		assert.Nil(t, feed.NextCursor)
	})

	t.Run("invalid cursor", func(t *testing.T) {
		resp, _ := get(t, newApp(&fakeMurz{}, &fakeFomo{}), "/?cursor=not-a-cursor!!")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	})

	t.Run("upstream failure", func(t *testing.T) {
		murz := &fakeMurz{err: &upstream.StatusError{Source: "murzfeed", Op: "feed", StatusCode: 503}}
		resp, _ := get(t, newApp(murz, &fakeFomo{}), "/")
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}

func TestMurzfeedPost(t *testing.T) {
	app := newApp(&fakeMurz{posts: murzPosts(2)}, &fakeFomo{})

	resp, body := get(t, app, "/post/murz/post-b-b")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail models.PostDetail
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.Equal(t, "b", detail.Post.PostID)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "b", detail.Comments[0].PostID)

	resp, _ = get(t, app, "/post/murz/missing-zz")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMurzfeedReplies(t *testing.T) {
	app := newApp(&fakeMurz{}, &fakeFomo{})

	resp, body := get(t, app, "/api/murz/replies?commentId=c9")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, server.APICacheControl, resp.Header.Get("Cache-Control"))

	var replies models.RepliesResponse
	require.NoError(t, json.Unmarshal(body, &replies))
	require.Len(t, replies.Replies, 1)
	assert.Equal(t, "c9", replies.Replies[0].CommentID)

	resp, _ = get(t, app, "/api/murz/replies")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func fomoPosts(n int) []models.FomoPost {
	posts := make([]models.FomoPost, n)
	for i := range posts {
		posts[i] = models.FomoPost{ActivityID: int64(i + 1), Title: "Fomo post"}
	}
	return posts
}

func TestFomoFeed(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		posts    []models.FomoPost
		wantSort fomo.Sort
		wantPage int
		wantNext *int
	}{
		{
			name:     "defaults",
			target:   "/fomo",
			posts:    fomoPosts(10),
			wantSort: fomo.SortRecent,
			wantPage: 1,
			wantNext: ptr(2),
		},
		{
			name:     "trending page 3 via api",
			target:   "/api/fomo/posts?sortBy=trending&page=3",
			posts:    fomoPosts(10),
			wantSort: fomo.SortTrending,
			wantPage: 3,
			wantNext: ptr(4),
		},
		{
			name:     "short page",
			target:   "/fomo?page=2",
			posts:    fomoPosts(4),
			wantSort: fomo.SortRecent,
			wantPage: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fo := &fakeFomo{posts: tt.posts}
			resp, body := get(t, newApp(&fakeMurz{}, fo), tt.target)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var feed models.FomoFeedResponse
			require.NoError(t, json.Unmarshal(body, &feed))
			assert.Equal(t, tt.wantSort, fo.lastSort)
			assert.Equal(t, tt.wantPage, fo.lastPage)
			assert.Equal(t, tt.wantPage, feed.Page)
			assert.Equal(t, tt.wantNext, feed.NextPage)
		})
	}
}

func TestFomoFeedHidesBannedPosts(t *testing.T) {
	posts := fomoPosts(3)
	posts[1].Banned = true
	_, body := get(t, newApp(&fakeMurz{}, &fakeFomo{posts: posts}), "/fomo")

	var feed models.FomoFeedResponse
	require.NoError(t, json.Unmarshal(body, &feed))
	assert.Len(t, feed.Posts, 2)
	assert.Equal(t, 3, feed.Received)
}

func TestFomoSearch(t *testing.T) {
	fo := &fakeFomo{posts: fomoPosts(10)}
	app := newApp(&fakeMurz{}, fo)

	_, body := get(t, app, "/api/fomo/search?query=gaji%20naik")
	var feed models.FomoFeedResponse
	require.NoError(t, json.Unmarshal(body, &feed))
	assert.Equal(t, "gaji naik", fo.lastTerm)
	assert.Equal(t, "gaji naik", feed.Search)
	assert.Nil(t, feed.NextPage)

	_, _ = get(t, app, "/fomo?search=layoff")
	assert.Equal(t, "layoff", fo.lastTerm)

	resp, _ := get(t, app, "/api/fomo/search?query=x&page=zero")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFomoComments(t *testing.T) {
	comments := make([]models.FomoComment, fomo.CommentPageSize)
	for i := range comments {
		comments[i] = models.FomoComment{ActivityID: int64(100 + i)}
	}
	fo := &fakeFomo{comments: comments}
	app := newApp(&fakeMurz{}, fo)

	resp, body := get(t, app, "/api/fomo/comments?postId=42&page=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page models.FomoCommentsResponse
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page.Comments, fomo.CommentPageSize)
	assert.Equal(t, ptr(3), page.NextPage)

	resp, _ = get(t, app, "/api/fomo/comments?postId=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFomoPost(t *testing.T) {
	posts := fomoPosts(2)
	posts[1].Deleted = true
	fo := &fakeFomo{posts: posts, comments: []models.FomoComment{{ActivityID: 9}}}
	app := newApp(&fakeMurz{}, fo)

	resp, body := get(t, app, "/post/fomo/fomo-post-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail models.FomoPostDetail
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.Equal(t, int64(1), detail.Post.ActivityID)
	assert.Len(t, detail.Comments, 1)
	assert.Nil(t, detail.NextPage)

	tests := []struct {
		target string
		want   int
	}{
		{"/post/fomo/fomo-post-2", http.StatusNotFound},
		{"/post/fomo/fomo-post-77", http.StatusNotFound},
		{"/post/fomo/fomo-post-0", http.StatusBadRequest},
		{"/post/fomo/fomo-post-x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			resp, _ := get(t, app, tt.target)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRSS(t *testing.T) {
	app := newApp(&fakeMurz{posts: murzPosts(2)}, &fakeFomo{posts: fomoPosts(2)})

	resp, body := get(t, app, "/rss")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info []models.FeedInfo
	require.NoError(t, json.Unmarshal(body, &info))
	require.Len(t, info, 2)
	assert.Equal(t, config.DefaultSiteURL+"/rss/murzfeed", info[0].URL)

	resp, body = get(t, app, "/rss/murzfeed")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/xml"))
	assert.Equal(t, server.RSSCacheControl, resp.Header.Get("Cache-Control"))
	assert.Contains(t, string(body), "<title>Murzfeed Lite</title>")
	assert.Equal(t, 2, strings.Count(string(body), "<item>"))

	resp, body = get(t, app, "/rss/fomo")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "/post/fomo/fomo-post-1")
}

func TestHealthAndUnknownRoute(t *testing.T) {
	app := newApp(&fakeMurz{}, &fakeFomo{})

	resp, body := get(t, app, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	resp, _ = get(t, app, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func ptr(i int) *int {
	return &i
}
