package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoRandomBytes(t *testing.T) {
	t.Run("Generate correct length", func(t *testing.T) {
		bytes, err := CryptoRandomBytes(20)
		require.NoError(t, err)
		assert.Len(t, bytes, 20)
	})

	t.Run("Generate unique values", func(t *testing.T) {
		bytes1, err := CryptoRandomBytes(20)
		require.NoError(t, err)

		bytes2, err := CryptoRandomBytes(20)
		require.NoError(t, err)

		assert.NotEqual(t, bytes1, bytes2, "Random bytes should not be identical")
	})
}

func TestCryptoRandomString(t *testing.T) {
	t.Run("Generate correct length", func(t *testing.T) {
		str, err := CryptoRandomString(20)
		require.NoError(t, err)
		assert.Len(t, str, 20)
	})

	t.Run("Generate hex characters only", func(t *testing.T) {
		str, err := CryptoRandomString(20)
		require.NoError(t, err)

		for _, c := range str {
			assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'),
				"Expected hex character, got %c", c)
		}
	})

	t.Run("Odd length", func(t *testing.T) {
		str, err := CryptoRandomString(15)
		require.NoError(t, err)
		assert.Len(t, str, 15)
	})
}

func TestHashPassword(t *testing.T) {
	t.Run("Deterministic for same input", func(t *testing.T) {
		h1 := HashPassword("secret", "salt")
		h2 := HashPassword("secret", "salt")
		assert.Equal(t, h1, h2)
	})

	t.Run("Differs by salt", func(t *testing.T) {
		h1 := HashPassword("secret", "salt-a")
		h2 := HashPassword("secret", "salt-b")
		assert.NotEqual(t, h1, h2)
	})

	t.Run("Differs by password", func(t *testing.T) {
		h1 := HashPassword("secret-a", "salt")
		h2 := HashPassword("secret-b", "salt")
		assert.NotEqual(t, h1, h2)
	})
}

func TestSHA256Hex(t *testing.T) {
	// Known vector for the empty string
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		SHA256Hex(""))

	assert.Len(t, SHA256Hex("token"), 64)
	assert.NotEqual(t, SHA256Hex("token-a"), SHA256Hex("token-b"))
}

func TestFingerprint(t *testing.T) {
	t.Run("Stable for identical input", func(t *testing.T) {
		assert.Equal(t,
			Fingerprint("203.0.113.9", "curl/8.5.0"),
			Fingerprint("203.0.113.9", "curl/8.5.0"))
	})

	t.Run("Sensitive to each component", func(t *testing.T) {
		base := Fingerprint("203.0.113.9", "curl/8.5.0")
		assert.NotEqual(t, base, Fingerprint("203.0.113.10", "curl/8.5.0"))
		assert.NotEqual(t, base, Fingerprint("203.0.113.9", "curl/8.6.0"))
	})

	t.Run("Separator prevents boundary shifts", func(t *testing.T) {
		assert.NotEqual(t, Fingerprint("ab", "c"), Fingerprint("a", "bc"))
	})

	t.Run("Matches hash of joined parts", func(t *testing.T) {
		assert.Equal(t, SHA256Hex("1.2.3.4\nMozilla"), Fingerprint("1.2.3.4", "Mozilla"))
	})
}
