package fomo

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"murzlite/models"
)

// number accepts JSON numbers, numeric strings and garbage, which reads as 0
type number int64

func (n *number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*n = number(v)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*n = number(f)
		return nil
	}
	*n = 0
	return nil
}

// timestamp accepts RFC 3339 with or without a zone. The API omits it for UTC.
type timestamp time.Time

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if json.Unmarshal(data, &s) != nil {
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = timestamp(parsed.UTC())
			return nil
		}
	}
	return nil
}

type user struct {
	Username    string `json:"username"`
	CompanyName string `json:"companyName"`
}

type activity struct {
	ActivityID       number    `json:"activityId"`
	ParentActivityID number    `json:"parentActivityId"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	Value            string    `json:"value"`
	Type             string    `json:"type"`
	CreationTime     timestamp `json:"creationTime"`
	NumberOfLikes    number    `json:"numberOfLikes"`
	NumberOfDislikes number    `json:"numberOfDislikes"`
	NumberOfComments number    `json:"numberOfComments"`
	Deleted          bool      `json:"deleted"`
	Banned           bool      `json:"banned"`
	ImageURL         string    `json:"imageUrl"`
	User             *user     `json:"user"`
	Comments         []item    `json:"comments"`
}

// item is the wrapper the API puts around every activity
type item struct {
	Inner *activity `json:"inner"`
}

type listResponse struct {
	Data []item `json:"data"`
}

func nonNegative(n number) int64 {
	if n < 0 {
		return 0
	}
	return int64(n)
}

func toPost(a *activity) models.FomoPost {
	if a == nil {
		return models.FomoPost{}
	}
	p := models.FomoPost{
		ActivityID:       int64(a.ActivityID),
		Title:            a.Title,
		Content:          a.Content,
		Type:             a.Type,
		CreationTime:     time.Time(a.CreationTime),
		NumberOfLikes:    nonNegative(a.NumberOfLikes),
		NumberOfDislikes: nonNegative(a.NumberOfDislikes),
		NumberOfComments: nonNegative(a.NumberOfComments),
		Deleted:          a.Deleted,
		Banned:           a.Banned,
		ImageURL:         a.ImageURL,
	}
	if a.User != nil {
		p.Username = a.User.Username
		p.CompanyName = a.User.CompanyName
	}
	return p
}

func toComment(a *activity) models.FomoComment {
	if a == nil {
		return models.FomoComment{}
	}
	c := models.FomoComment{
		ActivityID:       int64(a.ActivityID),
		ParentActivityID: int64(a.ParentActivityID),
		Value:            a.Value,
		CreationTime:     time.Time(a.CreationTime),
		NumberOfLikes:    nonNegative(a.NumberOfLikes),
		NumberOfDislikes: nonNegative(a.NumberOfDislikes),
		NumberOfComments: nonNegative(a.NumberOfComments),
		Deleted:          a.Deleted,
		Banned:           a.Banned,
	}
	if a.User != nil {
		c.Username = a.User.Username
	}
	for _, reply := range a.Comments {
		if reply.Inner != nil {
			c.Replies = append(c.Replies, toComment(reply.Inner))
		}
	}
	return c
}
