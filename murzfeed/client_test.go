package murzfeed_test

import (
	"context"
	"encoding/json"
	"errors"
	"murzlite/models"
	"murzlite/murzfeed"
	"murzlite/query"
	"murzlite/upstream"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postDoc = `{
	"name": "projects/p/databases/(default)/documents/posts/doc1",
	"fields": {
		"postId": {"stringValue": "p-1"},
		"title": {"stringValue": "Layoff at ACME"},
		"content": {"stringValue": "body"},
		"username": {"stringValue": "kucing"},
		"published": {"booleanValue": true},
		"isDelete": {"booleanValue": false},
		"isNewsletter": {"booleanValue": false},
		"pawCount": {"integerValue": "5"},
		"commentsCount": {"integerValue": "oops"},
		"createdAt": {"timestampValue": "2024-03-01T08:00:00Z"},
		"imageURL": {"arrayValue": {"values": [{"stringValue": "https://img/1.png"}]}},
		"userDetail": {"arrayValue": {"values": [{"mapValue": {"fields": {"userId": {"stringValue": "u1"}, "photoURL": {"stringValue": "https://img/u1.png"}}}}]}}
	}
}`

const draftDoc = `{
	"name": "projects/p/databases/(default)/documents/posts/doc2",
	"fields": {"postId": {"stringValue": "p-2"}, "published": {"booleanValue": false}}
}`

func newClient(t *testing.T, handler http.HandlerFunc) *murzfeed.Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return murzfeed.New(murzfeed.Config{BaseURL: srv.URL, ProjectID: "p"})
}

func TestFeed(t *testing.T) {
	var got query.Descriptor
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/p/databases/(default)/documents:runQuery", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`[{"document": ` + postDoc + `, "readTime": "x"}, {"document": ` + draftDoc + `}, {"readTime": "x"}]`))
	})

	page, err := c.Feed(context.Background(), query.Options{Sort: query.SortNewest})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Received)
	require.Len(t, page.Items, 1)

	post := page.Items[0]
	assert.Equal(t, "doc1", post.ID)
	assert.Equal(t, "p-1", post.PostID)
	assert.Equal(t, int64(5), post.PawCount)
	assert.Equal(t, int64(0), post.CommentsCount)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), post.CreatedAt)
	assert.Equal(t, "https://img/1.png", post.Thumbnail())
	assert.Equal(t, []models.UserDetail{{UserID: "u1", PhotoURL: "https://img/u1.png"}}, post.UserDetail)
	assert.Equal(t, 10, got.StructuredQuery.Limit)
}

func TestFeedEmpty(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"readTime": "2024-03-01T08:00:00Z"}]`))
	})

	page, err := c.Feed(context.Background(), query.Options{Sort: query.SortTrending})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Received)
}

func TestFeedUpstreamFailure(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Feed(context.Background(), query.Options{Sort: query.SortNewest})
	var se *upstream.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}

func TestPost(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var d query.Descriptor
		require.NoError(t, json.NewDecoder(r.Body).Decode(&d))
		if d.StructuredQuery.Where.FieldFilter.Value.String() == "p-1" {
			w.Write([]byte(`[{"document": ` + postDoc + `}]`))
			return
		}
		w.Write([]byte(`[{"readTime": "x"}]`))
	})

	post, err := c.Post(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Layoff at ACME", post.Title)

	_, err = c.Post(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestComments(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"document": {
			"name": "projects/p/databases/(default)/documents/comments/c1",
			"fields": {
				"commentId": {"stringValue": "c1"},
				"postId": {"stringValue": "p-1"},
				"commentContent": {"stringValue": "hello"},
				"commentUsername": {"stringValue": "meong"},
				"isCommenterSetAnonymous": {"booleanValue": true},
				"repliesCount": {"integerValue": "2"}
			}
		}}]`))
	})

	comments, err := c.Comments(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "hello", comments[0].Content)
	assert.Equal(t, "Anonymous", comments[0].Author())
	assert.Equal(t, int64(2), comments[0].RepliesCount)
}

func TestReplies(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/projects/p/databases/(default)/documents/comments/c1/replies", r.URL.Path)
		w.Write([]byte(`{"documents": [
			{"name": "x/replies/r1", "fields": {"reply": {"stringValue": "old"}, "createdAt": {"timestampValue": "2024-01-01T00:00:00Z"}}},
			{"name": "x/replies/r2", "fields": {"reply": {"stringValue": "new"}, "createdAt": {"timestampValue": "2024-02-01T00:00:00Z"}, "isDelete": {"booleanValue": true}}}
		]}`))
	})

	replies, err := c.Replies(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "new", replies[0].Content)
	assert.Equal(t, "r2", replies[0].ID)
	assert.Equal(t, "[deleted]", replies[0].Author())
	assert.Equal(t, "c1", replies[1].CommentID)
}

func TestToPostIsTotal(t *testing.T) {
	post := murzfeed.ToPost(query.Document{Name: "projects/p/databases/(default)/documents/posts/z"})

	assert.Equal(t, "z", post.ID)
	assert.False(t, post.Visible())
	assert.True(t, post.CreatedAt.IsZero())
	assert.Empty(t, post.ImageURL)
	assert.NotNil(t, post.PostCategory)
	assert.Empty(t, post.Reference)
}

func TestToPostReadsReferenceField(t *testing.T) {
	post := murzfeed.ToPost(query.Document{
		Name: "projects/p/databases/(default)/documents/posts/abc",
		Fields: map[string]query.Value{
			"reference": query.StringValue("https://source.example/article"),
		},
	})

	assert.Equal(t, "abc", post.ID)
	assert.Equal(t, "https://source.example/article", post.Reference)
}
