package domain

import "time"

// RateLimitCounter is one fixed-window counter row, keyed by client address.
// Count restarts at zero when the window rolls; it lives in the shared store
// so the ceiling holds across server instances.
type RateLimitCounter struct {
	Key           string
	Count         int
	WindowResetAt time.Time
}
