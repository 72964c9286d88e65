// Package paging walks cursor-paginated lists.
//
// A list is exhausted when a page comes back shorter than the requested
// limit. A full page always asks for one more, even if that page turns
// out empty.
package paging

import (
	"context"
	"sync"
)

// Exhausted reports whether a page of n items ends a list fetched with limit.
func Exhausted(n, limit int) bool {
	return n < limit
}

// Fetch loads one page after cursor ("" for the first page). next is the
// server-provided cursor for the following page, or "" when the server does
// not supply one.
type Fetch[T any] func(ctx context.Context, cursor string, limit int) (items []T, next string, err error)

// Pager remembers the cursor between calls. It is safe for concurrent use;
// calls to Next are serialized.
type Pager[T any] struct {
	fetch    Fetch[T]
	limit    int
	boundary func(T) string

	mu     sync.Mutex
	cursor string
	done   bool
	pages  int
}

// Option configures a Pager.
type Option[T any] func(*Pager[T])

// WithBoundary derives the next cursor from the last item of a page when
// the server returns none (id-boundary pagination).
func WithBoundary[T any](id func(T) string) Option[T] {
	return func(p *Pager[T]) { p.boundary = id }
}

// New creates a pager requesting limit items per page.
func New[T any](limit int, fetch Fetch[T], opts ...Option[T]) *Pager[T] {
	p := &Pager[T]{fetch: fetch, limit: limit}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Next fetches the following page. Once the list is exhausted it returns
// (nil, nil) without calling the server.
func (p *Pager[T]) Next(ctx context.Context) ([]T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return nil, nil
	}

	items, next, err := p.fetch(ctx, p.cursor, p.limit)
	if err != nil {
		return nil, err
	}
	p.pages++

	if next == "" && p.boundary != nil && len(items) > 0 {
		next = p.boundary(items[len(items)-1])
	}
	switch {
	case Exhausted(len(items), p.limit):
		p.done = true
	case next == "":
		p.done = true
	default:
		p.cursor = next
	}
	return items, nil
}

// HasMore reports whether Next may return more items.
func (p *Pager[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.done
}

// Cursor returns the cursor the next call will send.
func (p *Pager[T]) Cursor() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Pages returns how many pages have been fetched since the last Reset.
func (p *Pager[T]) Pages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pages
}

// Reset starts over from the first page.
func (p *Pager[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = ""
	p.done = false
	p.pages = 0
}

// Collect pages until the list is exhausted or max items were gathered
// (max <= 0 means no cap).
func (p *Pager[T]) Collect(ctx context.Context, max int) ([]T, error) {
	var all []T
	for p.HasMore() {
		items, err := p.Next(ctx)
		if err != nil {
			return all, err
		}
		all = append(all, items...)
		if max > 0 && len(all) >= max {
			return all[:max], nil
		}
	}
	return all, nil
}
