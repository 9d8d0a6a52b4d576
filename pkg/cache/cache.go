package cache

import "context"

// FillFunc produces the value of a write-once cache.
type FillFunc[V any] func(ctx context.Context) (V, error)

// Reader defines the non-blocking read operations of a write-once cache.
type Reader[V any] interface {
	Get() (V, bool)
	Loaded() bool
}

// Store is a write-once cache that populates itself on first use.
type Store[V any] interface {
	Reader[V]
	Ensure(ctx context.Context, fill FillFunc[V]) (V, error)
}
