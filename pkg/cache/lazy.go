package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

const fillKey = "fill"

var _ Store[string] = (*Lazy[string])(nil)

// Lazy holds a single value that is filled at most once per process.
// Failed fills are not stored, so the next Ensure tries again.
// Concurrent first fills share a single call to the fill function.
type Lazy[V any] struct {
	mu     sync.RWMutex
	value  V
	loaded bool
	group  singleflight.Group
	onLoad func(V)
}

// Option is a functional option for configuring a Lazy cache.
type Option[V any] func(*Lazy[V])

// WithOnLoad sets a function to be called once the value has been stored.
func WithOnLoad[V any](onLoad func(V)) Option[V] {
	return func(l *Lazy[V]) {
		l.onLoad = onLoad
	}
}

// NewLazy creates an empty write-once cache.
func NewLazy[V any](opts ...Option[V]) *Lazy[V] {
	l := &Lazy[V]{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Get returns the cached value and true if it has been filled.
func (l *Lazy[V]) Get() (V, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.loaded
}

// Loaded reports whether the value has been filled.
func (l *Lazy[V]) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Ensure returns the cached value, calling fill first if the cache is empty.
// The shared fill runs detached from the caller's cancellation; each caller
// stops waiting when its own ctx is done.
func (l *Lazy[V]) Ensure(ctx context.Context, fill FillFunc[V]) (V, error) {
	var zero V
	if v, ok := l.Get(); ok {
		return v, nil
	}

	fillCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(fillKey, func() (interface{}, error) {
		// Another caller may have filled the cache while we waited to enter Do.
		if v, ok := l.Get(); ok {
			return v, nil
		}

		v, err := fill(fillCtx)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.value = v
		l.loaded = true
		l.mu.Unlock()

		if l.onLoad != nil {
			l.onLoad(v)
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}
