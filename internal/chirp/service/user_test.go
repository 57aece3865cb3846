package service

import (
	"context"
	"testing"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/domain"
	"github.com/chirpnet/chirp/internal/chirp/store"
	"github.com/chirpnet/chirp/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newUserService(st store.Store) (*UserService, *captureMailer) {
	mailer := &captureMailer{}
	tokens := &TokenService{Store: st}
	return &UserService{
		Store:  st,
		Tokens: tokens,
		Mailer: mailer,
	}, mailer
}

func TestRegister(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	svc, _ := newUserService(st)

	user, err := svc.Register(ctx, "dana", "Dana@Example.com", "", "correct horse battery")
	require.NoError(t, err)
	require.Equal(t, "dana", user.Username)
	require.Equal(t, "dana@example.com", user.Email)
	require.Equal(t, "dana", user.DisplayName)
	require.NotEqual(t, "correct horse battery", user.PasswordHash)

	t.Run("duplicate username rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "dana", "other@example.com", "", "correct horse battery")
		require.ErrorIs(t, err, ErrAccountExists)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "dana2", "dana@example.com", "", "correct horse battery")
		require.ErrorIs(t, err, ErrAccountExists)
	})

	t.Run("short password rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "erin", "erin@example.com", "", "short")
		require.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("missing username rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "", "erin@example.com", "", "correct horse battery")
		require.ErrorIs(t, err, ErrInvalidAccount)
	})

	t.Run("bogus email rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "erin", "not-an-email", "", "correct horse battery")
		require.ErrorIs(t, err, ErrInvalidAccount)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	svc, _ := newUserService(st)

	registered, err := svc.Register(ctx, "frank", "frank@example.com", "Frank", "hunter2hunter2")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "frank", "hunter2hunter2")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		_, wrongPass := svc.Authenticate(ctx, "frank", "wrong-password")
		_, unknown := svc.Authenticate(ctx, "nobody", "hunter2hunter2")
		require.ErrorIs(t, wrongPass, ErrInvalidCredentials)
		require.ErrorIs(t, unknown, ErrInvalidCredentials)
	})
}

func TestRequestPasswordReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	svc, mailer := newUserService(st)

	_, err := svc.Register(ctx, "grace", "grace@example.com", "", "hunter2hunter2")
	require.NoError(t, err)

	t.Run("known email dispatches a credential", func(t *testing.T) {
		require.NoError(t, svc.RequestPasswordReset(ctx, "Grace@Example.com"))
		require.Equal(t, 1, mailer.sent)
		require.Equal(t, "grace@example.com", mailer.email)
		require.NotEmpty(t, mailer.credential)

		id, _, err := DecodeCredential(mailer.credential)
		require.NoError(t, err)
		record, err := st.CredentialTokens().GetTokenByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, domain.TokenPurposeReset, record.Purpose)
	})

	t.Run("unknown email succeeds without dispatching", func(t *testing.T) {
		require.NoError(t, svc.RequestPasswordReset(ctx, "stranger@example.com"))
		require.Equal(t, 1, mailer.sent)
	})

	t.Run("blank email succeeds without dispatching", func(t *testing.T) {
		require.NoError(t, svc.RequestPasswordReset(ctx, "  "))
		require.Equal(t, 1, mailer.sent)
	})
}

func TestResetPassword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	svc, mailer := newUserService(st)
	sessions := &SessionService{Store: st, Tokens: svc.Tokens}

	user, err := svc.Register(ctx, "heidi", "heidi@example.com", "", "old-password-1")
	require.NoError(t, err)

	// An open session that the reset must revoke.
	established, err := sessions.Establish(ctx, user.ID, false)
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "heidi@example.com"))
	credential := mailer.credential

	t.Run("weak replacement leaves the token live", func(t *testing.T) {
		err := svc.ResetPassword(ctx, credential, "short")
		require.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("redeems once and revokes sessions", func(t *testing.T) {
		require.NoError(t, svc.ResetPassword(ctx, credential, "new-password-1"))

		_, err := svc.Authenticate(ctx, "heidi", "old-password-1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = svc.Authenticate(ctx, "heidi", "new-password-1")
		require.NoError(t, err)

		_, err = sessions.Resolve(ctx, established.Session.ID)
		require.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("second redemption reports the spent token", func(t *testing.T) {
		err := svc.ResetPassword(ctx, credential, "another-password-1")
		require.ErrorIs(t, err, ErrTokenAlreadyUsed)

		// The failed attempt must not have touched the password.
		_, err = svc.Authenticate(ctx, "heidi", "new-password-1")
		require.NoError(t, err)
	})

	t.Run("malformed credential rejected without store access", func(t *testing.T) {
		err := svc.ResetPassword(ctx, "garbage", "new-password-2")
		require.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("refresh token cannot reset a password", func(t *testing.T) {
		record, secret, err := svc.Tokens.Issue(ctx, user.ID, domain.TokenPurposeRefresh, time.Hour)
		require.NoError(t, err)

		err = svc.ResetPassword(ctx, EncodeCredential(record.ID, secret), "new-password-2")
		require.ErrorIs(t, err, ErrTokenMismatch)
	})

	t.Run("unknown token id rejected", func(t *testing.T) {
		err := svc.ResetPassword(ctx, EncodeCredential(idx.New().String(), "secret"), "new-password-2")
		require.ErrorIs(t, err, ErrTokenNotFound)
	})
}
