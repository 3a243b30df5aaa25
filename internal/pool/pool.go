// Package pool implements a small bounded resource pool shared by the
// coordinator pool and the search-client pool: a channel of pre-built items
// with blocking checkout and guaranteed-release-on-exit usage.
package pool

import (
	"context"
	"fmt"
)

// Pool is a fixed-capacity set of reusable resources of type T. All items
// are built up front by New, then recycled through the channel.
type Pool[T any] struct {
	items chan T
	new   func() (T, error)
}

// New creates a pool of the given size. newFn is called size times, before
// New returns, to build every item; it must not be nil, and its first error
// aborts construction.
func New[T any](size int, newFn func() (T, error)) (*Pool[T], error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool: size must be positive, got %d", size)
	}
	if newFn == nil {
		return nil, fmt.Errorf("pool: new func must not be nil")
	}
	p := &Pool[T]{
		items: make(chan T, size),
		new:   newFn,
	}
	for i := 0; i < size; i++ {
		item, err := newFn()
		if err != nil {
			return nil, fmt.Errorf("pool: building item %d/%d: %w", i+1, size, err)
		}
		p.items <- item
	}
	return p, nil
}

// Acquire blocks until an item is available or ctx is done. The caller MUST
// call the returned release func exactly once, typically in a defer,
// regardless of how the borrowed item was used.
func (p *Pool[T]) Acquire(ctx context.Context) (T, func(), error) {
	var zero T
	select {
	case item := <-p.items:
		return item, func() { p.items <- item }, nil
	case <-ctx.Done():
		return zero, func() {}, ctx.Err()
	}
}

// Close drains the pool. It does not close or otherwise release the
// underlying items; callers whose T needs teardown (e.g. io.Closer) should
// acquire everything first and close each themselves.
func (p *Pool[T]) Close() {
	for {
		select {
		case <-p.items:
		default:
			return
		}
	}
}
