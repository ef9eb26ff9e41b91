package cache

import (
	"context"
	"time"
)

// Cache defines the primitive operations the credential engine requires from
// a shared expiring key-value store. T is the type of value stored under a
// single namespace (e.g. a device authorization record, an index string, or
// a poll timestamp).
//
// All correctness guarantees of the credential engine reduce to the atomicity
// of CompareAndDelete; no in-process locking is layered on top.
type Cache[T any] interface {
	// Get retrieves a single value.
	// Returns ErrCacheMiss if the key does not exist or has expired.
	Get(ctx context.Context, key string) (T, error)

	// Set stores a single value with TTL.
	Set(ctx context.Context, key string, value T, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// CompareAndDelete atomically deletes key only if the stored value still
	// equals expected, and reports whether the delete happened. A caller that
	// loses the race to a concurrent deleter observes false with a nil error.
	CompareAndDelete(ctx context.Context, key string, expected T) (bool, error)

	// Close closes the cache connection.
	Close() error

	// Health checks if the cache is reachable.
	Health(ctx context.Context) error
}
