package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/domain"
	"github.com/chirpnet/chirp/internal/chirp/store"
	"github.com/chirpnet/chirp/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedUser(t *testing.T, st *Store, username string) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		DisplayName:  username,
		PasswordHash: "argon2id:test",
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsersUniqueConstraints(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "alice")

	t.Run("duplicate username maps to ErrAlreadyExists", func(t *testing.T) {
		err := st.Users().CreateUser(ctx, domain.User{
			ID:           idx.New().String(),
			Username:     "alice",
			Email:        "other@example.com",
			DisplayName:  "alice",
			PasswordHash: "argon2id:test",
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("unknown lookups map to ErrNotFound", func(t *testing.T) {
		_, err := st.Users().GetUserByUsername(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = st.Users().GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestMarkTokenUsedIsConditional(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "bob")

	token := domain.CredentialToken{
		ID:         idx.New().String(),
		UserID:     user.ID,
		Purpose:    domain.TokenPurposeReset,
		SecretHash: "fingerprint",
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	require.NoError(t, st.CredentialTokens().CreateToken(ctx, token))

	require.NoError(t, st.CredentialTokens().MarkTokenUsed(ctx, token.ID))

	t.Run("used flag persists", func(t *testing.T) {
		got, err := st.CredentialTokens().GetTokenByID(ctx, token.ID)
		require.NoError(t, err)
		require.True(t, got.Used)
	})

	t.Run("second flip affects no rows", func(t *testing.T) {
		err := st.CredentialTokens().MarkTokenUsed(ctx, token.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unknown id affects no rows", func(t *testing.T) {
		err := st.CredentialTokens().MarkTokenUsed(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestRateLimitsTake(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)

	base := time.Unix(1_700_000_000, 0)
	window := time.Minute

	t.Run("first take opens the window at one", func(t *testing.T) {
		c, err := st.RateLimits().Take(ctx, "k1", window, base)
		require.NoError(t, err)
		require.Equal(t, 1, c.Count)
		require.Equal(t, base.Add(window).Unix(), c.WindowResetAt.Unix())
	})

	t.Run("takes inside the window accumulate", func(t *testing.T) {
		c, err := st.RateLimits().Take(ctx, "k1", window, base.Add(30*time.Second))
		require.NoError(t, err)
		require.Equal(t, 2, c.Count)
		require.Equal(t, base.Add(window).Unix(), c.WindowResetAt.Unix())
	})

	t.Run("boundary tick lands in a fresh window", func(t *testing.T) {
		at := base.Add(window)
		c, err := st.RateLimits().Take(ctx, "k1", window, at)
		require.NoError(t, err)
		require.Equal(t, 1, c.Count)
		require.Equal(t, at.Add(window).Unix(), c.WindowResetAt.Unix())
	})

	t.Run("keys count independently", func(t *testing.T) {
		c, err := st.RateLimits().Take(ctx, "k2", window, base)
		require.NoError(t, err)
		require.Equal(t, 1, c.Count)
	})

	t.Run("stale counters can be swept", func(t *testing.T) {
		require.NoError(t, st.RateLimits().DeleteStaleCounters(ctx, base.Add(3*window)))
		c, err := st.RateLimits().Take(ctx, "k2", window, base.Add(3*window))
		require.NoError(t, err)
		require.Equal(t, 1, c.Count)
	})
}

func TestSessionsLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "carol")

	now := time.Now()
	live := domain.Session{
		ID:        idx.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	stale := domain.Session{
		ID:        idx.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(-time.Hour),
		CreatedAt: now.Add(-2 * time.Hour),
	}
	require.NoError(t, st.Sessions().CreateSession(ctx, live))
	require.NoError(t, st.Sessions().CreateSession(ctx, stale))

	t.Run("expired sweep keeps live sessions", func(t *testing.T) {
		require.NoError(t, st.Sessions().DeleteExpiredSessions(ctx, now))

		_, err := st.Sessions().GetSessionByID(ctx, live.ID)
		require.NoError(t, err)
		_, err = st.Sessions().GetSessionByID(ctx, stale.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("user sweep removes everything", func(t *testing.T) {
		require.NoError(t, st.Sessions().DeleteUserSessions(ctx, user.ID))
		_, err := st.Sessions().GetSessionByID(ctx, live.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "dave")

	sentinel := errors.New("boom")
	session := domain.Session{
		ID:        idx.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}

	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Sessions().CreateSession(ctx, session); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = st.Sessions().GetSessionByID(ctx, session.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
