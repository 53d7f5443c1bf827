package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murzlite_upstream_requests_total",
		Help: "The total number of requests sent to upstream feeds",
	}, []string{"source", "op", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "murzlite_upstream_request_duration_seconds",
		Help:    "Latency of upstream feed requests",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // Start at 10ms, double each bucket, 10 buckets
	}, []string{"source", "op"})
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "murzlite/1.0"
)

// Config holds the settings for one upstream host
type Config struct {
	// Source labels metrics, logs and errors, e.g. "murzfeed"
	Source  string
	BaseURL string
	// Headers are sent on every request
	Headers   map[string]string
	Timeout   time.Duration
	UserAgent string
}

// ErrUnavailable wraps transport and decoding failures
var ErrUnavailable = errors.New("upstream unavailable")

// StatusError is returned for any non-2xx upstream response
type StatusError struct {
	Source     string
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Source, e.Op, e.StatusCode)
}

// IsStatus reports whether err carries an upstream status error with code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Client sends JSON requests to a single upstream. Requests are never retried.
type Client struct {
	cfg  Config
	http *fasthttp.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		cfg: cfg,
		http: &fasthttp.Client{
			Name:                   cfg.UserAgent,
			ReadTimeout:            cfg.Timeout,
			WriteTimeout:           cfg.Timeout,
			MaxConnsPerHost:        64,
			DisablePathNormalizing: true,
		},
	}
}

// GetJSON fetches path and decodes the response body into out
func (c *Client) GetJSON(ctx context.Context, op, path string, params url.Values, out any) error {
	return c.do(ctx, op, fasthttp.MethodGet, path, params, nil, out)
}

// PostJSON sends body as JSON and decodes the response body into out
func (c *Client) PostJSON(ctx context.Context, op, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s %s: encoding request: %w", c.cfg.Source, op, err)
	}
	return c.do(ctx, op, fasthttp.MethodPost, path, nil, payload, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, params url.Values, body []byte, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	uri := c.cfg.BaseURL + "/" + strings.TrimPrefix(path, "/")
	if len(params) > 0 {
		uri += "?" + params.Encode()
	}
	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	err := c.http.DoDeadline(req, resp, deadline)
	requestDuration.WithLabelValues(c.cfg.Source, op).Observe(time.Since(start).Seconds())

	if err != nil {
		requestsTotal.WithLabelValues(c.cfg.Source, op, "error").Inc()
		log.WithFields(log.Fields{
			"source": c.cfg.Source,
			"op":     op,
			"error":  err,
		}).Warn("Upstream request failed")
		return fmt.Errorf("%s %s: %w: %w", c.cfg.Source, op, ErrUnavailable, err)
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		requestsTotal.WithLabelValues(c.cfg.Source, op, "status").Inc()
		log.WithFields(log.Fields{
			"source": c.cfg.Source,
			"op":     op,
			"status": status,
		}).Warn("Upstream returned error status")
		return &StatusError{
			Source:     c.cfg.Source,
			Op:         op,
			StatusCode: status,
			Body:       truncate(string(resp.Body()), 512),
		}
	}

	requestsTotal.WithLabelValues(c.cfg.Source, op, "ok").Inc()

	if out == nil {
		return nil
	}
	if err := DecodeLenient(resp.Body(), out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w: %w", c.cfg.Source, op, ErrUnavailable, err)
	}
	return nil
}

// DecodeLenient decodes JSON, tolerating members whose type does not match
// the target. Those are left at their zero value. Syntax errors still fail.
func DecodeLenient(data []byte, out any) error {
	err := json.Unmarshal(data, out)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
