package guard

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/cache"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type archiveClaim struct {
	ProjectID string `json:"project_id"`
	Path      string `json:"path"`
}

func newTestGuard(t *testing.T) (*Guard[archiveClaim], *cache.MemoryCache[Record[archiveClaim]]) {
	t.Helper()

	store := cache.NewMemoryCache[Record[archiveClaim]]()
	return New(store), store
}

func TestGuard_IssueAndRedeem(t *testing.T) {
	g, _ := newTestGuard(t)
	ctx := context.Background()

	claim := archiveClaim{ProjectID: "p-1", Path: "exports/p-1.zip"}
	token, err := g.Issue(ctx, claim, time.Minute, "")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := g.Redeem(ctx, token, "")
	require.NoError(t, err)
	assert.Equal(t, claim, got)
}

func TestGuard_RedeemTwice(t *testing.T) {
	g, _ := newTestGuard(t)
	ctx := context.Background()

	token, err := g.Issue(ctx, archiveClaim{ProjectID: "p-1"}, time.Minute, "")
	require.NoError(t, err)

	_, err = g.Redeem(ctx, token, "")
	require.NoError(t, err)

	_, err = g.Redeem(ctx, token, "")
	assert.ErrorIs(t, err, ErrTokenInvalid, "second redemption must fail")
}

func TestGuard_RedeemUnknownToken(t *testing.T) {
	g, _ := newTestGuard(t)
	ctx := context.Background()

	_, err := g.Redeem(ctx, "never-issued", "")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestGuard_RedeemExpired(t *testing.T) {
	g, _ := newTestGuard(t)
	ctx := context.Background()

	now := time.Now()
	g.WithClock(func() time.Time { return now })

	token, err := g.Issue(ctx, archiveClaim{ProjectID: "p-1"}, time.Minute, "")
	require.NoError(t, err)

	// Move past the deadline without waiting on the cache TTL
	g.WithClock(func() time.Time { return now.Add(2 * time.Minute) })

	_, err = g.Redeem(ctx, token, "")
	assert.ErrorIs(t, err, ErrTokenInvalid, "expiry check must not rely on cache eviction")
}

func TestGuard_FingerprintBinding(t *testing.T) {
	g, _ := newTestGuard(t)
	ctx := context.Background()

	fp := util.Fingerprint("203.0.113.9", "curl/8.5.0")
	token, err := g.Issue(ctx, archiveClaim{ProjectID: "p-1"}, time.Minute, fp)
	require.NoError(t, err)

	// Wrong fingerprint is rejected and must not consume the token
	otherFP := util.Fingerprint("198.51.100.7", "curl/8.5.0")
	_, err = g.Redeem(ctx, token, otherFP)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// Matching fingerprint still redeems afterwards
	got, err := g.Redeem(ctx, token, fp)
	require.NoError(t, err)
	assert.Equal(t, "p-1", got.ProjectID)
}

func TestGuard_UnboundTokenIgnoresFingerprint(t *testing.T) {
	g, _ := newTestGuard(t)
	ctx := context.Background()

	token, err := g.Issue(ctx, archiveClaim{ProjectID: "p-1"}, time.Minute, "")
	require.NoError(t, err)

	// Issued without a fingerprint, redeemable with any
	_, err = g.Redeem(ctx, token, util.Fingerprint("203.0.113.9", "curl/8.5.0"))
	assert.NoError(t, err)
}

func TestGuard_TokenStoredHashed(t *testing.T) {
	g, store := newTestGuard(t)
	ctx := context.Background()

	token, err := g.Issue(ctx, archiveClaim{ProjectID: "p-1"}, time.Minute, "")
	require.NoError(t, err)

	// The raw token must not be a key; its SHA-256 must be
	_, err = store.Get(ctx, token)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	_, err = store.Get(ctx, util.SHA256Hex(token))
	assert.NoError(t, err)
}

func TestGuard_ConcurrentRedeemExactlyOnce(t *testing.T) {
	g, _ := newTestGuard(t)
	ctx := context.Background()

	const attempts = 50

	token, err := g.Issue(ctx, archiveClaim{ProjectID: "p-1"}, time.Minute, "")
	require.NoError(t, err)

	var wins, losses atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := g.Redeem(ctx, token, "")
			switch {
			case err == nil:
				wins.Add(1)
			case err == ErrTokenInvalid:
				losses.Add(1)
			default:
				t.Errorf("unexpected redemption error: %v", err)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), wins.Load(), "exactly one caller gets the payload")
	assert.Equal(t, int64(attempts-1), losses.Load())
}
