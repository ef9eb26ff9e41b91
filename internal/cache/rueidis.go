package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// compareAndDeleteScript deletes a key only when its current value matches
// the caller's expectation. Running it server-side makes the read and the
// delete a single atomic step, so exactly one of N racing callers wins.
const compareAndDeleteScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Compile-time interface check.
var _ Cache[struct{}] = (*RueidisCache[struct{}])(nil)

// RueidisCache implements Cache interface using Redis via rueidis client.
// Suitable for multi-instance deployments where cache needs to be shared.
type RueidisCache[T any] struct {
	client    rueidis.Client
	cad       *rueidis.Lua
	keyPrefix string
	ownClient bool
}

// NewRueidisCache creates a new Redis cache instance using rueidis.
func NewRueidisCache[T any](
	ctx context.Context,
	addr, password string,
	db int,
	keyPrefix string,
) (*RueidisCache[T], error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		Password:     password,
		SelectDB:     db,
		DisableCache: true, // Basic mode without client-side caching
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	// Test connection with provided context
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RueidisCache[T]{
		client:    client,
		cad:       rueidis.NewLuaScript(compareAndDeleteScript),
		keyPrefix: keyPrefix,
		ownClient: true,
	}, nil
}

// NewRueidisCacheFromClient wraps an existing client. The caller keeps
// ownership of the connection; Close becomes a no-op.
func NewRueidisCacheFromClient[T any](client rueidis.Client, keyPrefix string) *RueidisCache[T] {
	return &RueidisCache[T]{
		client:    client,
		cad:       rueidis.NewLuaScript(compareAndDeleteScript),
		keyPrefix: keyPrefix,
	}
}

// Get retrieves a value from Redis.
func (r *RueidisCache[T]) Get(ctx context.Context, key string) (T, error) {
	fullKey := r.keyPrefix + key

	cmd := r.client.B().Get().Key(fullKey).Build()
	resp := r.client.Do(ctx, cmd)

	if err := resp.Error(); err != nil {
		var zero T
		if rueidis.IsRedisNil(err) {
			return zero, ErrCacheMiss
		}
		return zero, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	str, err := resp.ToString()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	var value T
	if err := json.Unmarshal([]byte(str), &value); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	return value, nil
}

// Set stores a value in Redis with TTL.
func (r *RueidisCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	fullKey := r.keyPrefix + key

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	cmd := r.client.B().Set().
		Key(fullKey).
		Value(string(encoded)).
		Ex(ttl).
		Build()

	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return nil
}

// Delete removes a key from Redis.
func (r *RueidisCache[T]) Delete(ctx context.Context, key string) error {
	fullKey := r.keyPrefix + key

	cmd := r.client.B().Del().Key(fullKey).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return nil
}

// CompareAndDelete atomically deletes key if the stored encoding still
// matches expected. Returns true when this caller performed the delete.
func (r *RueidisCache[T]) CompareAndDelete(ctx context.Context, key string, expected T) (bool, error) {
	fullKey := r.keyPrefix + key

	encoded, err := json.Marshal(expected)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	resp := r.cad.Exec(ctx, r.client, []string{fullKey}, []string{string(encoded)})
	if err := resp.Error(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	deleted, err := resp.AsInt64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	return deleted == 1, nil
}

// Close closes the Redis connection when this cache owns it.
func (r *RueidisCache[T]) Close() error {
	if r.ownClient {
		r.client.Close()
	}
	return nil
}

// Health checks if Redis is reachable.
func (r *RueidisCache[T]) Health(ctx context.Context) error {
	cmd := r.client.B().Ping().Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}
