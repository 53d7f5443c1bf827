// Package feeds tracks pagination position over the two upstream feeds
package feeds

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"murzlite/models"
	"murzlite/query"
)

// FirstPage is the cursor sentinel for the start of a listing
const FirstPage = "first"

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is the position after the last murzfeed post already delivered
type Cursor struct {
	Timestamp time.Time
	ID        string
}

// CursorFor returns the continuation position after post under sort
func CursorFor(post models.Post, sort query.Sort) Cursor {
	ts := post.CreatedAt
	if sort.TimestampField() == "latestCommentCreatedAt" {
		ts = post.LatestCommentCreatedAt
	}
	return Cursor{Timestamp: ts, ID: post.ID}
}

// Encode renders the cursor as an opaque url-safe token
func (c Cursor) Encode() string {
	raw := fmt.Sprintf("ts:%d:id:%s", c.Timestamp.UnixMicro(), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func (c Cursor) After() *query.After {
	return &query.After{Timestamp: c.Timestamp, ID: c.ID}
}

// DecodeCursor parses a token produced by Encode. The empty string and
// FirstPage both mean no cursor.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" || token == FirstPage {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	parts := strings.SplitN(string(raw), ":", 4)
	if len(parts) != 4 || parts[0] != "ts" || parts[2] != "id" || parts[3] == "" {
		return nil, ErrInvalidCursor
	}

	micros, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{Timestamp: time.UnixMicro(micros).UTC(), ID: parts[3]}, nil
}
