package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type constants
const (
	TokenTypeBearer = "Bearer"
)

// Result carries a freshly signed token.
type Result struct {
	TokenString string
	TokenType   string
	ExpiresAt   time.Time
	Claims      jwt.MapClaims
}

// ValidationResult carries the claims extracted from a verified token.
type ValidationResult struct {
	Valid       bool
	PrincipalID string
	ClientID    string
	ExpiresAt   time.Time
	Claims      jwt.MapClaims
}
