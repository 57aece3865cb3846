package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/domain"
	"github.com/chirpnet/chirp/internal/chirp/store"
	"github.com/chirpnet/chirp/internal/chirp/store/drivers/sqlite"
	"github.com/chirpnet/chirp/pkg/cryptox"
	"github.com/chirpnet/chirp/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "chirp-service-test")
	if err != nil {
		os.Exit(1)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestUser(t *testing.T, st store.Store, username string) domain.User {
	t.Helper()

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		DisplayName:  username,
		PasswordHash: "argon2id:test",
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), user))
	return user
}

// captureMailer records the reset credential a real mailer would embed in
// the outgoing link, so tests can redeem it.
type captureMailer struct {
	email      string
	credential string
	expiresAt  time.Time
	sent       int
}

func (m *captureMailer) SendPasswordReset(
	ctx context.Context,
	email, credential string,
	expiresAt time.Time,
) error {
	m.email = email
	m.credential = credential
	m.expiresAt = expiresAt
	m.sent++
	return nil
}
