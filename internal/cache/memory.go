package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryItem[T any] struct {
	value     T
	expiresAt time.Time
}

// Compile-time interface check.
var _ Cache[struct{}] = (*MemoryCache[struct{}])(nil)

// MemoryCache implements Cache with in-memory storage and lazy expiration
// (expiry is checked on read). Suitable for single-instance deployments and
// tests; a multi-instance serving tier needs one of the Redis backends.
type MemoryCache[T any] struct {
	mu    sync.Mutex
	items map[string]memoryItem[T]
}

// NewMemoryCache creates a new memory cache instance.
func NewMemoryCache[T any]() *MemoryCache[T] {
	return &MemoryCache[T]{
		items: make(map[string]memoryItem[T]),
	}
}

// Get retrieves a value from cache.
func (m *MemoryCache[T]) Get(ctx context.Context, key string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, exists := m.items[key]
	if !exists || time.Now().After(item.expiresAt) {
		var zero T
		return zero, ErrCacheMiss
	}

	return item.value, nil
}

// Set stores a value in cache with TTL.
func (m *MemoryCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = memoryItem[T]{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a key from cache.
func (m *MemoryCache[T]) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// CompareAndDelete deletes key only if the stored value still equals expected.
// Equality is defined over the canonical JSON encoding so that memory and
// Redis backends agree on what "unchanged" means.
func (m *MemoryCache[T]) CompareAndDelete(ctx context.Context, key string, expected T) (bool, error) {
	wantEncoded, err := json.Marshal(expected)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	item, exists := m.items[key]
	if !exists || time.Now().After(item.expiresAt) {
		return false, nil
	}

	haveEncoded, err := json.Marshal(item.value)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if !bytes.Equal(haveEncoded, wantEncoded) {
		return false, nil
	}

	delete(m.items, key)
	return true, nil
}

// Close cleans up resources.
func (m *MemoryCache[T]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]memoryItem[T])
	return nil
}

// Health checks if the cache is healthy (always true for memory cache).
func (m *MemoryCache[T]) Health(ctx context.Context) error {
	return nil
}
