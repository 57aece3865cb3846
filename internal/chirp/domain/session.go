package domain

import "time"

// Session is a server-side login session. The cookie carries only the
// opaque session id; everything else lives in the store, so invalidating a
// session (or all of a user's sessions on password reset) is a row delete.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session has passed its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
