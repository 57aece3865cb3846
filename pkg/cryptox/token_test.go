package cryptox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := GenerateToken(0)
		require.Error(t, err)
		_, err = GenerateToken(-1)
		require.Error(t, err)
	})

	t.Run("encodes the requested entropy", func(t *testing.T) {
		token, err := GenerateToken(TokenSize256)
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(token)
		require.NoError(t, err)
		require.Len(t, raw, TokenSize256)
	})

	t.Run("tokens do not repeat", func(t *testing.T) {
		seen := make(map[string]struct{})
		for range 100 {
			token := MustGenerateToken(TokenSize128)
			_, dup := seen[token]
			require.False(t, dup)
			seen[token] = struct{}{}
		}
	})
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	token := MustGenerateToken(TokenSize256)
	fp := FingerprintToken(token)

	require.NotEqual(t, token, fp)
	require.Equal(t, fp, FingerprintToken(token))

	require.True(t, FingerprintMatches(token, fp))
	require.False(t, FingerprintMatches("different", fp))
	require.False(t, FingerprintMatches(token, FingerprintToken("different")))
}
