// Package guard implements single-use tokens: an opaque token is issued
// against a payload, and redemption hands the payload back exactly once,
// even under concurrent redemption attempts.
package guard

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/cache"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/codes"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/util"
)

// ErrTokenInvalid covers every redemption failure: unknown token, expired
// token, fingerprint mismatch, already redeemed. One error for all of them
// keeps the response from telling an attacker which check failed.
var ErrTokenInvalid = errors.New("token is invalid or has already been used")

// Record is what the guard stores against a token hash. Exported so cache
// namespaces can be typed on it.
type Record[T any] struct {
	Payload     T         `json:"payload"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Guard issues and redeems single-use tokens carrying a payload of type T.
// Tokens are stored under the SHA-256 of their value, so a cache dump never
// exposes a redeemable token.
type Guard[T any] struct {
	store cache.Cache[Record[T]]
	now   func() time.Time
}

// New creates a guard backed by the given cache namespace.
func New[T any](store cache.Cache[Record[T]]) *Guard[T] {
	return &Guard[T]{
		store: store,
		now:   time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (g *Guard[T]) WithClock(now func() time.Time) *Guard[T] {
	g.now = now
	return g
}

// Issue mints a new token for payload. If fingerprint is non-empty the
// token can only be redeemed by a caller presenting the same fingerprint.
func (g *Guard[T]) Issue(ctx context.Context, payload T, ttl time.Duration, fingerprint string) (string, error) {
	token, err := codes.Token()
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	record := Record[T]{
		Payload:     payload,
		Fingerprint: fingerprint,
		ExpiresAt:   g.now().Add(ttl),
	}

	if err := g.store.Set(ctx, util.SHA256Hex(token), record, ttl); err != nil {
		return "", fmt.Errorf("failed to store token record: %w", err)
	}

	return token, nil
}

// Redeem consumes the token and returns its payload. All checks happen on a
// read copy first; the actual consumption is a compare-and-delete, so when
// several callers race on the same token exactly one of them gets the
// payload and the rest get ErrTokenInvalid.
func (g *Guard[T]) Redeem(ctx context.Context, token, fingerprint string) (T, error) {
	var zero T
	key := util.SHA256Hex(token)

	record, err := g.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return zero, ErrTokenInvalid
		}
		return zero, err
	}

	if g.now().After(record.ExpiresAt) {
		return zero, ErrTokenInvalid
	}

	if record.Fingerprint != "" {
		if subtle.ConstantTimeCompare([]byte(record.Fingerprint), []byte(fingerprint)) != 1 {
			return zero, ErrTokenInvalid
		}
	}

	consumed, err := g.store.CompareAndDelete(ctx, key, record)
	if err != nil {
		return zero, err
	}
	if !consumed {
		// Someone else won the race between our Get and the delete.
		return zero, ErrTokenInvalid
	}

	return record.Payload, nil
}
