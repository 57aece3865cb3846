package service

import (
	"context"
	"testing"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/domain"
	"github.com/stretchr/testify/require"
)

func TestEstablishRefreshTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "ivan")
	svc := &SessionService{Store: st, Tokens: &TokenService{Store: st}}

	t.Run("plain login gets the short refresh lifetime", func(t *testing.T) {
		established, err := svc.Establish(ctx, user.ID, false)
		require.NoError(t, err)
		require.Equal(t, DefaultRefreshTTL, established.RefreshTTL)
		require.NotEmpty(t, established.RefreshCredential)
		require.Equal(t, user.ID, established.Session.UserID)
	})

	t.Run("remembered login gets the long refresh lifetime", func(t *testing.T) {
		established, err := svc.Establish(ctx, user.ID, true)
		require.NoError(t, err)
		require.Equal(t, DefaultRememberRefreshTTL, established.RefreshTTL)
	})
}

func TestRefreshRotation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "judy")
	svc := &SessionService{Store: st, Tokens: &TokenService{Store: st}}

	established, err := svc.Establish(ctx, user.ID, true)
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, established.RefreshCredential)
	require.NoError(t, err)
	require.NotEqual(t, established.RefreshCredential, refreshed.RefreshCredential)
	require.NotEqual(t, established.Session.ID, refreshed.Session.ID)

	t.Run("replacement keeps the remembered lifetime", func(t *testing.T) {
		require.Equal(t, DefaultRememberRefreshTTL, refreshed.RefreshTTL)
	})

	t.Run("new session resolves", func(t *testing.T) {
		session, err := svc.Resolve(ctx, refreshed.Session.ID)
		require.NoError(t, err)
		require.Equal(t, user.ID, session.UserID)
	})

	t.Run("spent credential cannot refresh again", func(t *testing.T) {
		_, err := svc.Refresh(ctx, established.RefreshCredential)
		require.ErrorIs(t, err, ErrTokenAlreadyUsed)
	})

	t.Run("rotated credential still works", func(t *testing.T) {
		again, err := svc.Refresh(ctx, refreshed.RefreshCredential)
		require.NoError(t, err)
		require.Equal(t, DefaultRememberRefreshTTL, again.RefreshTTL)
	})
}

func TestRefreshExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "kim")

	base := time.Now()
	tokens := &TokenService{Store: st, Now: func() time.Time { return base }}
	svc := &SessionService{
		Store:  st,
		Tokens: tokens,
		Now:    func() time.Time { return base },
	}

	established, err := svc.Establish(ctx, user.ID, false)
	require.NoError(t, err)

	// The 24-hour credential is dead an hour after its deadline.
	later := base.Add(25 * time.Hour)
	tokens.Now = func() time.Time { return later }
	svc.Now = func() time.Time { return later }

	_, err = svc.Refresh(ctx, established.RefreshCredential)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshRejectsWrongPurpose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "leo")
	tokens := &TokenService{Store: st}
	svc := &SessionService{Store: st, Tokens: tokens}

	record, secret, err := tokens.Issue(ctx, user.ID, domain.TokenPurposeReset, time.Hour)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, EncodeCredential(record.ID, secret))
	require.ErrorIs(t, err, ErrTokenMismatch)
}

func TestResolveAndLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "mia")

	base := time.Now()
	svc := &SessionService{
		Store:  st,
		Tokens: &TokenService{Store: st},
		Now:    func() time.Time { return base },
	}

	established, err := svc.Establish(ctx, user.ID, false)
	require.NoError(t, err)

	t.Run("live session resolves", func(t *testing.T) {
		_, err := svc.Resolve(ctx, established.Session.ID)
		require.NoError(t, err)
	})

	t.Run("expired session does not resolve", func(t *testing.T) {
		svc.Now = func() time.Time { return base.Add(DefaultSessionTTL + time.Minute) }
		_, err := svc.Resolve(ctx, established.Session.ID)
		require.ErrorIs(t, err, ErrSessionNotFound)
		svc.Now = func() time.Time { return base }
	})

	t.Run("logout drops the session", func(t *testing.T) {
		require.NoError(t, svc.Logout(ctx, established.Session.ID))
		_, err := svc.Resolve(ctx, established.Session.ID)
		require.ErrorIs(t, err, ErrSessionNotFound)

		// Logging out twice is fine.
		require.NoError(t, svc.Logout(ctx, established.Session.ID))
	})
}
