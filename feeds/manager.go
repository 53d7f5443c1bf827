package feeds

import (
	"errors"
	"fmt"

	"murzlite/models"
)

var ErrOutOfOrder = errors.New("page appended out of order")

// PageInfo records what was fetched for one request
type PageInfo struct {
	Request  Request
	Received int
	Kept     int
}

// Manager accumulates the pages of one listing. It is not safe for
// concurrent use; callers serialize access.
type Manager[T any] struct {
	paginator Paginator[T]
	pages     []PageInfo
	items     []T
	seen      map[string]struct{}
	last      *models.Page[T]
	done      bool
}

func NewManager[T any](p Paginator[T]) *Manager[T] {
	m := &Manager[T]{}
	m.Reset(p)
	return m
}

// Reset discards all pages and starts over with a new paginator
func (m *Manager[T]) Reset(p Paginator[T]) {
	m.paginator = p
	m.pages = nil
	m.items = []T{}
	m.seen = make(map[string]struct{})
	m.last = nil
	m.done = false
}

// Next returns the request for the following page, or false when exhausted
func (m *Manager[T]) Next() (Request, bool) {
	if m.done {
		return Request{}, false
	}
	req, ok := m.paginator.Next(len(m.pages), m.last)
	if !ok {
		m.done = true
	}
	return req, ok
}

// Append adds the page fetched for req. Items already seen or hidden are dropped.
func (m *Manager[T]) Append(req Request, page models.Page[T]) error {
	if req.Index != len(m.pages) {
		return fmt.Errorf("%w: got page %d, expected %d", ErrOutOfOrder, req.Index, len(m.pages))
	}

	kept := 0
	for _, item := range page.Items {
		if !m.paginator.Visible(item) {
			continue
		}
		id := m.paginator.Identity(item)
		if _, ok := m.seen[id]; ok {
			continue
		}
		m.seen[id] = struct{}{}
		m.items = append(m.items, item)
		kept++
	}

	m.pages = append(m.pages, PageInfo{Request: req, Received: page.Received, Kept: kept})
	m.last = &page
	return nil
}

// Items returns the merged items of every page in order
func (m *Manager[T]) Items() []T {
	out := make([]T, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Manager[T]) Pages() []PageInfo {
	out := make([]PageInfo, len(m.pages))
	copy(out, m.pages)
	return out
}

// Done reports whether no further page can be requested
func (m *Manager[T]) Done() bool {
	_, ok := m.Next()
	return !ok
}

// Len is the number of pages appended since the last reset
func (m *Manager[T]) Len() int {
	return len(m.pages)
}
