package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "chirp-cryptox-test")
	if err != nil {
		os.Exit(1)
	}
	SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	require.NotContains(t, hash, "hunter2hunter2")

	require.NoError(t, VerifyPassword("hunter2hunter2", hash))
	require.Error(t, VerifyPassword("wrong-password", hash))

	t.Run("salts differ between hashes", func(t *testing.T) {
		other, err := HashPassword("hunter2hunter2")
		require.NoError(t, err)
		require.NotEqual(t, hash, other)
		require.NoError(t, VerifyPassword("hunter2hunter2", other))
	})

	t.Run("malformed digests are rejected", func(t *testing.T) {
		require.Error(t, VerifyPassword("hunter2hunter2", "not-a-hash"))
		require.Error(t, VerifyPassword("hunter2hunter2", "$bcrypt$v=19$m=1,t=1,p=1$abc$def"))
	})
}
