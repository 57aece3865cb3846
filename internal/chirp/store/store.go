package store

import (
	"context"
	"errors"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Sessions() Sessions
	CredentialTokens() CredentialTokens
	Posts() Posts
	RateLimits() RateLimits

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., consuming
	// a reset token together with the password update it gates).
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail is used during the forgot-password flow.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error
}

type Sessions interface {
	// CreateSession inserts a new login session.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByID returns a session by id, expired or not; callers check expiry.
	GetSessionByID(ctx context.Context, id string) (domain.Session, error)

	// DeleteSession removes a single session (logout).
	DeleteSession(ctx context.Context, id string) error

	// DeleteUserSessions removes every session for a user (password reset).
	DeleteUserSessions(ctx context.Context, userID string) error

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}

type CredentialTokens interface {
	// CreateToken stores a new credential token record.
	CreateToken(ctx context.Context, t domain.CredentialToken) error

	// GetTokenByID returns the record regardless of used/expired state;
	// the validator decides what the state means.
	GetTokenByID(ctx context.Context, id string) (domain.CredentialToken, error)

	// MarkTokenUsed flips used false->true with a single conditional write
	// (UPDATE ... WHERE used = 0). It returns ErrNotFound when no unused row
	// with that id exists, so racing consumers observe exactly one winner;
	// there is deliberately no read-then-write pair here.
	MarkTokenUsed(ctx context.Context, id string) error
}

type Posts interface {
	// CreatePost inserts a post together with its extracted hashtags.
	CreatePost(ctx context.Context, p domain.Post) error

	// TrendingTags aggregates hashtag counts for posts created since the
	// given time, most used first.
	TrendingTags(ctx context.Context, since time.Time, limit int) ([]domain.TrendingTag, error)
}

type RateLimits interface {
	// Take rolls the fixed window if it has elapsed (a tick landing exactly
	// on the boundary starts the new window) and increments the counter,
	// atomically. It returns the counter state after the increment; callers
	// compare Count against their ceiling.
	Take(ctx context.Context, key string, window time.Duration, now time.Time) (domain.RateLimitCounter, error)

	// DeleteStaleCounters drops counters whose window ended before the cutoff.
	DeleteStaleCounters(ctx context.Context, cutoff time.Time) error
}
