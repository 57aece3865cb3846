package sqlite

import (
	"context"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/domain"
)

type rateLimitsRepo struct {
	q querier
}

// Take rolls and increments the fixed-window counter in a single upsert, so
// the window reset cannot lose an increment that races with it. The
// `now >= window_reset_at` comparison places a tick landing exactly on the
// boundary into the new window.
func (r *rateLimitsRepo) Take(
	ctx context.Context,
	key string,
	window time.Duration,
	now time.Time,
) (domain.RateLimitCounter, error) {
	nowU := toUnix(now)
	newReset := toUnix(now.Add(window))

	row := r.q.QueryRowContext(ctx, `
		INSERT INTO rate_limits (key, count, window_reset_at)
		VALUES (?, 1, ?)
		ON CONFLICT (key) DO UPDATE SET
			count = CASE
				WHEN ? >= rate_limits.window_reset_at THEN 1
				ELSE rate_limits.count + 1
			END,
			window_reset_at = CASE
				WHEN ? >= rate_limits.window_reset_at THEN ?
				ELSE rate_limits.window_reset_at
			END
		RETURNING count, window_reset_at`,
		key, newReset, nowU, nowU, newReset,
	)

	c := domain.RateLimitCounter{Key: key}
	var resetAt int64
	if err := row.Scan(&c.Count, &resetAt); err != nil {
		return domain.RateLimitCounter{}, err
	}
	c.WindowResetAt = fromUnix(resetAt)
	return c, nil
}

func (r *rateLimitsRepo) DeleteStaleCounters(ctx context.Context, cutoff time.Time) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM rate_limits WHERE window_reset_at <= ?`, toUnix(cutoff))
	return err
}
