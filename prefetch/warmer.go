// Package prefetch keeps a frequently requested page warm in memory
package prefetch

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"murzlite/models"
)

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murzlite_prefetch_refresh_total",
		Help: "The total number of background page refreshes",
	}, []string{"name", "outcome"})

	pageAge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "murzlite_prefetch_last_success_timestamp_seconds",
		Help: "Unix time of the last successful refresh",
	}, []string{"name"})
)

// Loader fetches the page to keep warm
type Loader[T any] func(ctx context.Context) (models.Page[T], error)

// Warmer refreshes one page on an interval and serves the last good copy
type Warmer[T any] struct {
	name     string
	load     Loader[T]
	interval time.Duration
	maxAge   time.Duration

	// NewBackOff builds the retry policy of one refresh
	NewBackOff func() backoff.BackOff

	mu        sync.RWMutex
	page      *models.Page[T]
	fetchedAt time.Time
}

func NewWarmer[T any](name string, load Loader[T], interval time.Duration) *Warmer[T] {
	return &Warmer[T]{
		name:     name,
		load:     load,
		interval: interval,
		maxAge:   2 * interval,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			b.MaxElapsedTime = interval
			return b
		},
	}
}

// Page returns the warm page if one was loaded recently enough
func (w *Warmer[T]) Page() (models.Page[T], bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.page == nil || time.Since(w.fetchedAt) > w.maxAge {
		return models.Page[T]{}, false
	}
	return *w.page, true
}

// Refresh loads the page, retrying with backoff until it succeeds, the
// policy gives up or ctx is done. The previous copy is kept on failure.
func (w *Warmer[T]) Refresh(ctx context.Context) error {
	var page models.Page[T]
	operation := func() error {
		p, err := w.load(ctx)
		if err != nil {
			return err
		}
		page = p
		return nil
	}

	notify := func(err error, d time.Duration) {
		log.WithFields(log.Fields{
			"name":  w.name,
			"error": err,
			"retry": d,
		}).Warn("Prefetch failed, retrying")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(w.NewBackOff(), ctx), notify); err != nil {
		refreshTotal.WithLabelValues(w.name, "error").Inc()
		return err
	}

	w.mu.Lock()
	w.page = &page
	w.fetchedAt = time.Now()
	w.mu.Unlock()

	refreshTotal.WithLabelValues(w.name, "ok").Inc()
	pageAge.WithLabelValues(w.name).SetToCurrentTime()
	return nil
}

// Run refreshes immediately and then on every interval until ctx is done
func (w *Warmer[T]) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.Refresh(ctx); err != nil && ctx.Err() == nil {
			log.WithFields(log.Fields{
				"name":  w.name,
				"error": err,
			}).Error("Prefetch gave up")
		}

		select {
		case <-ctx.Done():
			log.WithField("name", w.name).Info("Stopping prefetch")
			return
		case <-ticker.C:
		}
	}
}
