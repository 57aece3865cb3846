package service

import (
	"context"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/store"
)

// Default trending-gate parameters.
const (
	DefaultRateLimitCeiling = 30
	DefaultRateLimitWindow  = 5 * time.Minute
)

// RateLimitResult reports the outcome of one gate check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long a rejected caller should wait, floored at 1s.
	RetryAfter time.Duration
	ResetAt    time.Time
}

// RateLimiter is a fixed-window counter gate backed by the shared store, so
// the ceiling holds across server instances; an in-memory counter would
// quietly multiply the limit under horizontal scaling. Fixed window permits
// a worst-case 2x ceiling burst straddling a boundary, an accepted cost for
// a cacheable endpoint.
type RateLimiter struct {
	Store   store.Store
	Ceiling int
	Window  time.Duration

	// Now is overridable for tests that advance simulated time.
	Now func() time.Time
}

func (l *RateLimiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *RateLimiter) ceiling() int {
	if l.Ceiling > 0 {
		return l.Ceiling
	}
	return DefaultRateLimitCeiling
}

func (l *RateLimiter) window() time.Duration {
	if l.Window > 0 {
		return l.Window
	}
	return DefaultRateLimitWindow
}

// Check counts one request against the key's current window and reports
// whether it fits under the ceiling. The roll-and-increment is a single
// atomic store write, so a request arriving exactly on the window boundary
// lands in the new window rather than being lost.
func (l *RateLimiter) Check(ctx context.Context, key string) (RateLimitResult, error) {
	now := l.now()

	counter, err := l.Store.RateLimits().Take(ctx, key, l.window(), now)
	if err != nil {
		return RateLimitResult{}, err
	}

	ceiling := l.ceiling()
	remaining := ceiling - counter.Count
	if remaining < 0 {
		remaining = 0
	}

	result := RateLimitResult{
		Allowed:   counter.Count <= ceiling,
		Remaining: remaining,
		ResetAt:   counter.WindowResetAt,
	}

	if !result.Allowed {
		retry := counter.WindowResetAt.Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		result.RetryAfter = retry
	}

	return result, nil
}
