// Package feedview drives an incrementally loaded listing for an interactive reader
package feedview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"murzlite/feeds"
	"murzlite/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ErrStale is returned when parameters changed while a page was loading.
// The page is discarded.
var ErrStale = errors.New("stale page discarded")

const DefaultDebounce = 500 * time.Millisecond

type Status int

const (
	// Idle means nothing is loading
	Idle Status = iota
	// Loading means the first page of the current parameters is loading
	Loading
	// Validating means a further page is loading while items are shown
	Validating
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Validating:
		return "validating"
	}
	return "idle"
}

// Params are the user controlled listing parameters
type Params struct {
	Sort   string
	Search string
}

// Fetcher loads the page described by req
type Fetcher[T any] func(ctx context.Context, req feeds.Request) (models.Page[T], error)

type Options[T any] struct {
	// Defaults are the initial parameters. Sort is also restored whenever the search changes.
	Defaults Params
	// Debounce delays applying a non-empty search
	Debounce time.Duration
	// Fallback, when set, is used as the first page for Defaults instead of fetching
	Fallback *models.Page[T]
	Paginate func(Params) feeds.Paginator[T]
	Fetch    Fetcher[T]
	// OnChange is called after the parameters changed and the listing was reset
	OnChange func(Params)
}

// Controller holds the listing for the current parameters. Every parameter
// change starts a new generation; pages loaded for an older one are dropped.
type Controller[T any] struct {
	ID string

	opts     Options[T]
	debounce debouncer
	flights  singleflight.Group

	mu         sync.Mutex
	params     Params
	pending    string
	searchSeq  uint64
	generation uint64
	manager    *feeds.Manager[T]
	status     Status
	err        error
}

func New[T any](opts Options[T]) *Controller[T] {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Controller[T]{
		ID:      uuid.NewString(),
		opts:    opts,
		params:  opts.Defaults,
		pending: opts.Defaults.Search,
		manager: feeds.NewManager(opts.Paginate(opts.Defaults)),
	}
}

// LoadMore loads the next page of the current listing. It returns nil
// without fetching when the listing is exhausted. Concurrent calls for the
// same page share a single fetch.
func (c *Controller[T]) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	req, ok := c.manager.Next()
	if !ok {
		c.mu.Unlock()
		return nil
	}
	gen := c.generation

	if req.Index == 0 && c.params == c.opts.Defaults && c.opts.Fallback != nil {
		err := c.manager.Append(req, *c.opts.Fallback)
		c.mu.Unlock()
		return err
	}

	if req.Index == 0 {
		c.status = Loading
	} else {
		c.status = Validating
	}
	c.mu.Unlock()

	key := fmt.Sprintf("%d/%s", gen, req.Key())
	_, err, shared := c.flights.Do(key, func() (any, error) {
		return nil, c.load(ctx, gen, req)
	})

	log.WithFields(log.Fields{
		"session":    c.ID,
		"generation": gen,
		"request":    req.Key(),
		"shared":     shared,
	}).Debug("Loaded page")

	return err
}

func (c *Controller[T]) load(ctx context.Context, gen uint64, req feeds.Request) error {
	c.mu.Lock()
	// A previous flight for this key already delivered the page
	if gen == c.generation && c.manager.Len() > req.Index {
		c.status = Idle
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	page, err := c.opts.Fetch(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return ErrStale
	}

	c.status = Idle
	if err != nil {
		c.err = err
		return err
	}
	c.err = nil
	return c.manager.Append(req, page)
}

// SetSort switches the sort mode, keeping the current search
func (c *Controller[T]) SetSort(sort string) {
	c.mu.Lock()
	if sort == c.params.Sort {
		c.mu.Unlock()
		return
	}
	c.params.Sort = sort
	c.resetLocked()
	params := c.params
	c.mu.Unlock()

	c.notify(params)
}

// SetSearch records a typed search term. A non-empty term is applied once
// no further input arrives within the debounce delay. Clearing the search
// applies immediately.
func (c *Controller[T]) SetSearch(term string) {
	c.mu.Lock()
	c.pending = term
	c.searchSeq++
	seq := c.searchSeq
	c.mu.Unlock()

	if term == "" {
		c.debounce.Cancel()
		c.applySearch(seq, term)
		return
	}

	c.debounce.Schedule(c.opts.Debounce, func() {
		c.applySearch(seq, term)
	})
}

// FlushSearch applies the pending search term without waiting
func (c *Controller[T]) FlushSearch() {
	c.debounce.Cancel()

	c.mu.Lock()
	seq, term := c.searchSeq, c.pending
	c.mu.Unlock()

	c.applySearch(seq, term)
}

func (c *Controller[T]) applySearch(seq uint64, term string) {
	c.mu.Lock()
	// Superseded by later input
	if seq != c.searchSeq || term == c.params.Search {
		c.mu.Unlock()
		return
	}
	c.params = Params{Sort: c.opts.Defaults.Sort, Search: term}
	c.resetLocked()
	params := c.params
	c.mu.Unlock()

	c.notify(params)
}

func (c *Controller[T]) resetLocked() {
	c.generation++
	c.manager.Reset(c.opts.Paginate(c.params))
	c.status = Idle
	c.err = nil

	log.WithFields(log.Fields{
		"session":    c.ID,
		"generation": c.generation,
		"sort":       c.params.Sort,
		"search":     c.params.Search,
	}).Debug("Reset listing")
}

func (c *Controller[T]) notify(params Params) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(params)
	}
}

// Close stops any pending debounced search
func (c *Controller[T]) Close() {
	c.debounce.Cancel()
	c.mu.Lock()
	c.searchSeq++
	c.mu.Unlock()
}

func (c *Controller[T]) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// PendingSearch is the last typed term, applied or not
func (c *Controller[T]) PendingSearch() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Controller[T]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err is the error of the last failed load of the current generation
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manager.Items()
}

// Done reports whether the current listing has no further pages
func (c *Controller[T]) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manager.Done()
}

func (c *Controller[T]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}
