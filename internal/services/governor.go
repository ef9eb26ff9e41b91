package services

import (
	"context"
	"errors"
	"time"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/cache"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/config"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/metrics"
)

// PollGovernor enforces a minimum interval between redemption polls for a
// given device code. It bounds load from non-compliant or buggy clients;
// it is not a security control.
type PollGovernor struct {
	polls    cache.Cache[int64]
	interval time.Duration
	ttl      time.Duration
	metrics  metrics.Recorder
	now      func() time.Time
}

func NewPollGovernor(polls cache.Cache[int64], cfg *config.Config, m metrics.Recorder) *PollGovernor {
	return &PollGovernor{
		polls:    polls,
		interval: cfg.PollInterval,
		// Same TTL class as the device record so governance state never
		// outlives the authorization it is rate-limiting.
		ttl:     cfg.DeviceCodeExpiration,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (g *PollGovernor) WithClock(now func() time.Time) *PollGovernor {
	g.now = now
	return g
}

// TooFast reports whether the device code was polled less than the minimum
// interval ago. A too-fast poll does not update the stored timestamp, so a
// single fast retry is told to slow down without being penalized further.
func (g *PollGovernor) TooFast(ctx context.Context, deviceCode string) (bool, error) {
	now := g.now()

	last, err := g.polls.Get(ctx, deviceCode)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		g.metrics.RecordCacheError("poll_get")
		return false, err
	}
	if err == nil && now.Sub(time.Unix(0, last)) < g.interval {
		return true, nil
	}

	if err := g.polls.Set(ctx, deviceCode, now.UnixNano(), g.ttl); err != nil {
		g.metrics.RecordCacheError("poll_set")
		return false, err
	}
	return false, nil
}

// Clear drops the poll record, used when the device code itself is consumed.
func (g *PollGovernor) Clear(ctx context.Context, deviceCode string) error {
	return g.polls.Delete(ctx, deviceCode)
}

// Interval returns the minimum poll interval in whole seconds, as suggested
// to clients in issue and slow_down responses.
func (g *PollGovernor) Interval() int {
	return int(g.interval / time.Second)
}
