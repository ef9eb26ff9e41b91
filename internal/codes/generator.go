// Package codes generates the opaque credentials handed to devices and
// browsers: high-entropy device codes and tokens, and short human-typable
// user codes.
package codes

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

const (
	// Letters avoid I and O, digits avoid 0 and 1. A user reading the code
	// off one screen and typing it on another can't confuse glyphs.
	userCodeLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	userCodeDigits  = "23456789"

	deviceCodeBytes = 32
	tokenBytes      = 32
)

// userCodePattern matches a normalized user code, e.g. "WDJB-7342".
var userCodePattern = regexp.MustCompile(`^[A-Z]{4}-[0-9]{4}$`)

// DeviceCode returns a new opaque device code: 32 random bytes, URL-safe
// base64 without padding. Never shown to a human, so entropy wins over
// readability.
func DeviceCode() (string, error) {
	buf := make([]byte, deviceCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate device code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Token returns a new opaque single-use token with the same shape as a
// device code.
func Token() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// UserCode returns a human-typable code in the form LLLL-NNNN, drawn from
// the reduced alphabets above.
func UserCode() (string, error) {
	var sb strings.Builder
	sb.Grow(9)

	for range 4 {
		c, err := pick(userCodeLetters)
		if err != nil {
			return "", err
		}
		sb.WriteByte(c)
	}
	sb.WriteByte('-')
	for range 4 {
		c, err := pick(userCodeDigits)
		if err != nil {
			return "", err
		}
		sb.WriteByte(c)
	}

	return sb.String(), nil
}

// NormalizeUserCode uppercases and trims whitespace so that user input like
// " wdjb-7342 " matches the stored form.
func NormalizeUserCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidUserCode reports whether code is already in normalized LLLL-NNNN form.
func ValidUserCode(code string) bool {
	return userCodePattern.MatchString(code)
}

func pick(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, fmt.Errorf("failed to generate user code: %w", err)
	}
	return charset[n.Int64()], nil
}
