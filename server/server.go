package server

import (
	"context"
	"errors"
	"time"

	"murzlite/config"
	"murzlite/feeds"
	"murzlite/fomo"
	"murzlite/models"
	"murzlite/prefetch"
	"murzlite/query"
	"murzlite/upstream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "murzlite_http_request_duration_seconds",
	Help:    "Latency of served requests",
	Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // Start at 5ms, double each bucket, 12 buckets
}, []string{"method", "route"})

// Cache-Control values for shared caches in front of the server
const (
	PageCacheControl = "s-maxage=60, stale-while-revalidate=600"
	APICacheControl  = "s-maxage=300, stale-while-revalidate=1800"
	RSSCacheControl  = "s-maxage=600, stale-while-revalidate=1800"
)

// MurzSource reads murzfeed posts
type MurzSource interface {
	Feed(ctx context.Context, opts query.Options) (models.Page[models.Post], error)
	Post(ctx context.Context, postID string) (*models.Post, error)
	Comments(ctx context.Context, postID string) ([]models.Comment, error)
	Replies(ctx context.Context, commentID string) ([]models.Reply, error)
}

// FomoSource reads fomo activities
type FomoSource interface {
	ListFeed(ctx context.Context, sort fomo.Sort, page int) (models.Page[models.FomoPost], error)
	Comments(ctx context.Context, postID string, page int) (models.Page[models.FomoComment], error)
	Search(ctx context.Context, term string, page int) (models.Page[models.FomoPost], error)
	Post(ctx context.Context, activityID int64) (*models.FomoPost, error)
}

type ServerConfig struct {
	Config   *config.TomlConfig
	Murzfeed MurzSource
	Fomo     FomoSource

	// Warm holds the default first murzfeed page, may be nil
	Warm *prefetch.Warmer[models.Post]

	// Disables the in-memory response cache
	NoCache bool
}

// Returns a fiber.App instance serving both feeds as JSON and RSS
func Server(config *ServerConfig) *fiber.App {
	h := &handlers{
		cfg:      config.Config,
		murzfeed: config.Murzfeed,
		fomo:     config.Fomo,
		warm:     config.Warm,
	}

	app := fiber.New(fiber.Config{
		AppName:               "murzlite",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		latency := time.Since(start)
		requestDuration.WithLabelValues(c.Method(), c.Route().Path).Observe(latency.Seconds())
		log.WithFields(log.Fields{
			"method":    c.Method(),
			"route":     c.Route().Path,
			"latency":   latency,
			"requestId": c.GetRespHeader(fiber.HeaderXRequestID),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	}))
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,HEAD",
		AllowHeaders: "Cache-Control",
	}))

	pages := []fiber.Handler{cacheControl(PageCacheControl), responseCache(config.NoCache, 60*time.Second)}
	api := []fiber.Handler{cacheControl(APICacheControl), responseCache(config.NoCache, 300*time.Second)}
	feedsXML := []fiber.Handler{cacheControl(RSSCacheControl), responseCache(config.NoCache, 600*time.Second)}

	app.Get("/", append(pages, h.murzfeedFeed)...)
	app.Get("/fomo", append(pages, h.fomoFeed)...)
	app.Get("/post/murz/:slug", append(pages, h.murzfeedPost)...)
	app.Get("/post/fomo/:slug", append(pages, h.fomoPost)...)

	app.Get("/api/fomo/posts", append(api, h.fomoFeed)...)
	app.Get("/api/fomo/search", append(api, h.fomoSearch)...)
	app.Get("/api/fomo/comments", append(api, h.fomoComments)...)
	app.Get("/api/murz/replies", append(api, h.murzfeedReplies)...)

	app.Get("/rss", append(feedsXML, h.rssIndex)...)
	app.Get("/rss/murzfeed", append(feedsXML, h.rssMurzfeed)...)
	app.Get("/rss/fomo", append(feedsXML, h.rssFomo)...)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	return app
}

func cacheControl(value string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, value)
		return c.Next()
	}
}

func responseCache(disabled bool, ttl time.Duration) fiber.Handler {
	if disabled {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	return cache.New(cache.Config{
		Expiration: ttl,
		KeyGenerator: func(c *fiber.Ctx) string {
			// Get URL with query string to use as cache key
			return c.Request().URI().String()
		},
	})
}

// errorHandler maps errors to status codes and a JSON body
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal error"

	var fe *fiber.Error
	var se *upstream.StatusError
	switch {
	case errors.As(err, &fe):
		code, message = fe.Code, fe.Message
	case errors.Is(err, models.ErrNotFound):
		code, message = fiber.StatusNotFound, "not found"
	case errors.Is(err, feeds.ErrInvalidCursor):
		code, message = fiber.StatusBadRequest, err.Error()
	case errors.As(err, &se):
		code, message = fiber.StatusBadGateway, se.Error()
	case errors.Is(err, upstream.ErrUnavailable):
		code, message = fiber.StatusBadGateway, err.Error()
	}

	if code >= fiber.StatusInternalServerError {
		log.WithFields(log.Fields{
			"path":  c.Path(),
			"code":  code,
			"error": err,
		}).Error("Request failed")
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(code).JSON(fiber.Map{"error": message})
}
