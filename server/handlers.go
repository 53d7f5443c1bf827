package server

import (
	"context"
	"strconv"
	"strings"

	"murzlite/config"
	"murzlite/feeds"
	"murzlite/fomo"
	"murzlite/models"
	"murzlite/prefetch"
	"murzlite/query"
	"murzlite/rss"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

type handlers struct {
	cfg      *config.TomlConfig
	murzfeed MurzSource
	fomo     FomoSource
	warm     *prefetch.Warmer[models.Post]
}

// DefaultSort is the murzfeed sort used when none or an unknown one is given
const DefaultSort = query.SortNewest

func (h *handlers) murzfeedPaginator(sort query.Sort, search string) feeds.PostPaginator {
	return feeds.PostPaginator{Sort: sort, Search: search, PageSize: h.cfg.Murzfeed.PageSize}
}

// firstMurzfeedPage serves the default listing from the warmer when it has a copy
func (h *handlers) firstMurzfeedPage(ctx context.Context) (models.Page[models.Post], error) {
	if h.warm != nil {
		if page, ok := h.warm.Page(); ok {
			return page, nil
		}
	}
	return h.murzfeed.Feed(ctx, query.Options{Sort: DefaultSort, PageSize: h.cfg.Murzfeed.PageSize})
}

func (h *handlers) murzfeedFeed(c *fiber.Ctx) error {
	sort := query.ParseSort(c.Query("sortBy"), DefaultSort)
	search := strings.TrimSpace(c.Query("search"))

	var after *feeds.Cursor
	if search == "" {
		cursor, err := feeds.DecodeCursor(c.Query("cursor"))
		if err != nil {
			return err
		}
		after = cursor
	}

	var page models.Page[models.Post]
	var err error
	if sort == DefaultSort && search == "" && after == nil {
		page, err = h.firstMurzfeedPage(c.UserContext())
	} else {
		opts := query.Options{Sort: sort, Search: search, PageSize: h.cfg.Murzfeed.PageSize}
		if after != nil {
			opts.After = after.After()
		}
		page, err = h.murzfeed.Feed(c.UserContext(), opts)
	}
	if err != nil {
		return err
	}

	resp := models.FeedResponse{
		Posts:    lo.Filter(page.Items, func(p models.Post, _ int) bool { return p.Visible() }),
		Received: page.Received,
		SortBy:   string(sort),
		Search:   search,
	}
	if next, ok := h.murzfeedPaginator(sort, search).Next(1, &page); ok {
		token := next.After.Encode()
		resp.NextCursor = &token
	}

	return c.JSON(resp)
}

func (h *handlers) murzfeedPost(c *fiber.Ctx) error {
	postID := slugID(c.Params("slug"))
	if postID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing post id")
	}

	post, err := h.murzfeed.Post(c.UserContext(), postID)
	if err != nil {
		return err
	}

	comments, err := h.murzfeed.Comments(c.UserContext(), postID)
	if err != nil {
		return err
	}

	return c.JSON(models.PostDetail{Post: *post, Comments: comments})
}

func (h *handlers) murzfeedReplies(c *fiber.Ctx) error {
	commentID := strings.TrimSpace(c.Query("commentId"))
	if commentID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing commentId")
	}

	replies, err := h.murzfeed.Replies(c.UserContext(), commentID)
	if err != nil {
		return err
	}
	return c.JSON(models.RepliesResponse{Replies: replies})
}

func (h *handlers) fomoFeed(c *fiber.Ctx) error {
	page, err := pageParam(c)
	if err != nil {
		return err
	}

	search := strings.TrimSpace(c.Query("search"))
	if search != "" {
		return h.searchFomo(c, search, page)
	}

	sort := fomo.ParseSort(c.Query("sortBy"))
	result, err := h.fomo.ListFeed(c.UserContext(), sort, page)
	if err != nil {
		return err
	}
	return c.JSON(fomoFeedResponse(result, feeds.NewFomoPaginator(sort, ""), string(sort), "", page))
}

func (h *handlers) fomoSearch(c *fiber.Ctx) error {
	page, err := pageParam(c)
	if err != nil {
		return err
	}
	return h.searchFomo(c, strings.TrimSpace(c.Query("query")), page)
}

func (h *handlers) searchFomo(c *fiber.Ctx, term string, page int) error {
	result, err := h.fomo.Search(c.UserContext(), term, page)
	if err != nil {
		return err
	}
	return c.JSON(fomoFeedResponse(result, feeds.NewFomoPaginator(fomo.SortRecent, term), string(fomo.SortRecent), term, page))
}

func fomoFeedResponse(result models.Page[models.FomoPost], p feeds.ActivityPaginator[models.FomoPost], sort, search string, page int) models.FomoFeedResponse {
	resp := models.FomoFeedResponse{
		Posts:    lo.Filter(result.Items, func(p models.FomoPost, _ int) bool { return p.Visible() }),
		Received: result.Received,
		SortBy:   sort,
		Search:   search,
		Page:     page,
	}
	if next, ok := p.Next(page, &result); ok {
		resp.NextPage = &next.Page
	}
	return resp
}

func (h *handlers) fomoPost(c *fiber.Ctx) error {
	activityID, err := strconv.ParseInt(slugID(c.Params("slug")), 10, 64)
	if err != nil || activityID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid post id")
	}

	post, err := h.fomo.Post(c.UserContext(), activityID)
	if err != nil {
		return err
	}
	if !post.Visible() {
		return models.ErrNotFound
	}

	comments, err := h.fomo.Comments(c.UserContext(), strconv.FormatInt(activityID, 10), 1)
	if err != nil {
		return err
	}

	resp := commentsResponse(comments, strconv.FormatInt(activityID, 10), 1)
	return c.JSON(models.FomoPostDetail{Post: *post, Comments: resp.Comments, NextPage: resp.NextPage})
}

func (h *handlers) fomoComments(c *fiber.Ctx) error {
	postID := strings.TrimSpace(c.Query("postId"))
	if _, err := strconv.ParseInt(postID, 10, 64); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid postId")
	}
	page, err := pageParam(c)
	if err != nil {
		return err
	}

	comments, err := h.fomo.Comments(c.UserContext(), postID, page)
	if err != nil {
		return err
	}
	return c.JSON(commentsResponse(comments, postID, page))
}

func commentsResponse(result models.Page[models.FomoComment], postID string, page int) models.FomoCommentsResponse {
	resp := models.FomoCommentsResponse{
		Comments: lo.Filter(result.Items, func(c models.FomoComment, _ int) bool { return c.Visible() }),
		Received: result.Received,
		Page:     page,
	}
	if next, ok := feeds.NewCommentPaginator(postID).Next(page, &result); ok {
		resp.NextPage = &next.Page
	}
	return resp
}

func (h *handlers) rssIndex(c *fiber.Ctx) error {
	return c.JSON(feeds.GetPublishInfo(h.cfg))
}

func (h *handlers) rssMurzfeed(c *fiber.Ctx) error {
	page, err := h.firstMurzfeedPage(c.UserContext())
	if err != nil {
		return err
	}

	posts := lo.Filter(page.Items, func(p models.Post, _ int) bool { return p.Visible() })
	return sendRSS(c, rss.MurzfeedChannel(h.cfg), rss.MurzfeedEntries(h.cfg.SiteURL, posts))
}

func (h *handlers) rssFomo(c *fiber.Ctx) error {
	page, err := h.fomo.ListFeed(c.UserContext(), fomo.SortRecent, 1)
	if err != nil {
		return err
	}

	posts := lo.Filter(page.Items, func(p models.FomoPost, _ int) bool { return p.Visible() })
	return sendRSS(c, rss.FomoChannel(h.cfg), rss.FomoEntries(h.cfg.SiteURL, posts))
}

func sendRSS(c *fiber.Ctx, ch rss.Channel, entries []rss.Entry) error {
	body, err := rss.Render(ch, entries)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"feed":    ch.SelfLink,
		"entries": len(entries),
	}).Debug("Rendered rss")

	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	return c.Send(body)
}

// pageParam reads the 1-based page query parameter
func pageParam(c *fiber.Ctx) (int, error) {
	raw := c.Query("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid page")
	}
	return page, nil
}

// slugID returns the id after the last dash of "<slug>-<id>"
func slugID(slug string) string {
	return strings.TrimSpace(slug[strings.LastIndex(slug, "-")+1:])
}
