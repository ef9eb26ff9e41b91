package codes

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceCode(t *testing.T) {
	code, err := DeviceCode()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(code)
	require.NoError(t, err, "device code must be unpadded URL-safe base64")
	assert.Len(t, raw, 32)
	assert.NotContains(t, code, "=")
	assert.NotContains(t, code, "+")
	assert.NotContains(t, code, "/")
}

func TestDeviceCodeUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		code, err := DeviceCode()
		require.NoError(t, err)
		assert.False(t, seen[code], "device codes must not repeat")
		seen[code] = true
	}
}

func TestToken(t *testing.T) {
	token, err := Token()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestUserCodeFormat(t *testing.T) {
	for range 100 {
		code, err := UserCode()
		require.NoError(t, err)

		require.Len(t, code, 9)
		assert.True(t, ValidUserCode(code), "generated code %q must validate", code)

		letters, digits, ok := strings.Cut(code, "-")
		require.True(t, ok)
		for _, c := range letters {
			assert.Contains(t, userCodeLetters, string(c))
		}
		for _, c := range digits {
			assert.Contains(t, userCodeDigits, string(c))
		}
	}
}

func TestUserCodeAlphabetExclusions(t *testing.T) {
	// The confusable glyphs never appear in the generation alphabets.
	for _, c := range []string{"I", "O"} {
		assert.NotContains(t, userCodeLetters, c)
	}
	for _, c := range []string{"0", "1"} {
		assert.NotContains(t, userCodeDigits, c)
	}
}

func TestNormalizeUserCode(t *testing.T) {
	assert.Equal(t, "WDJB-7342", NormalizeUserCode(" wdjb-7342 "))
	assert.Equal(t, "WDJB-7342", NormalizeUserCode("WDJB-7342"))
	assert.Equal(t, "WDJB-7342", NormalizeUserCode("\twdjb-7342\n"))
}

func TestValidUserCode(t *testing.T) {
	assert.True(t, ValidUserCode("WDJB-7342"))
	assert.False(t, ValidUserCode("wdjb-7342"), "lowercase is rejected; callers normalize first")
	assert.False(t, ValidUserCode("WDJB7342"))
	assert.False(t, ValidUserCode("WDJ-7342"))
	assert.False(t, ValidUserCode("WDJB-734"))
	assert.False(t, ValidUserCode("7342-WDJB"))
	assert.False(t, ValidUserCode(""))
	assert.False(t, ValidUserCode("WDJB-7342X"))
}
