package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// cadScript is loaded once per process and EVALSHA'd afterwards.
var cadScript = redis.NewScript(compareAndDeleteScript)

// Compile-time interface check.
var _ Cache[struct{}] = (*RedisCache[struct{}])(nil)

// RedisCache implements Cache interface using Redis via go-redis client.
// Functionally equivalent to RueidisCache; exists so deployments already
// holding a *redis.Client can share it across namespaces.
type RedisCache[T any] struct {
	client    *redis.Client
	keyPrefix string
	ownClient bool
}

// NewRedisCache dials Redis and verifies connectivity before returning.
func NewRedisCache[T any](
	ctx context.Context,
	addr, password string,
	db int,
	keyPrefix string,
) (*RedisCache[T], error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisCache[T]{
		client:    client,
		keyPrefix: keyPrefix,
		ownClient: true,
	}, nil
}

// NewRedisCacheFromClient wraps an existing client. The caller keeps
// ownership of the connection; Close becomes a no-op.
func NewRedisCacheFromClient[T any](client *redis.Client, keyPrefix string) *RedisCache[T] {
	return &RedisCache[T]{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get retrieves a value from Redis.
func (r *RedisCache[T]) Get(ctx context.Context, key string) (T, error) {
	fullKey := r.keyPrefix + key

	str, err := r.client.Get(ctx, fullKey).Result()
	if err != nil {
		var zero T
		if errors.Is(err, redis.Nil) {
			return zero, ErrCacheMiss
		}
		return zero, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	var value T
	if err := json.Unmarshal([]byte(str), &value); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	return value, nil
}

// Set stores a value in Redis with TTL.
func (r *RedisCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	fullKey := r.keyPrefix + key

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	if err := r.client.Set(ctx, fullKey, encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return nil
}

// Delete removes a key from Redis.
func (r *RedisCache[T]) Delete(ctx context.Context, key string) error {
	fullKey := r.keyPrefix + key

	if err := r.client.Del(ctx, fullKey).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return nil
}

// CompareAndDelete atomically deletes key if the stored encoding still
// matches expected. Returns true when this caller performed the delete.
func (r *RedisCache[T]) CompareAndDelete(ctx context.Context, key string, expected T) (bool, error) {
	fullKey := r.keyPrefix + key

	encoded, err := json.Marshal(expected)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	deleted, err := cadScript.Run(ctx, r.client, []string{fullKey}, string(encoded)).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return deleted == 1, nil
}

// Close closes the Redis connection if this cache owns it.
func (r *RedisCache[T]) Close() error {
	if !r.ownClient {
		return nil
	}
	return r.client.Close()
}

// Health checks if Redis is reachable.
func (r *RedisCache[T]) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}
