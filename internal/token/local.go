package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// LocalProvider generates and validates JWT tokens locally
type LocalProvider struct {
	config *config.Config
}

// NewLocalProvider creates a new local token provider
func NewLocalProvider(cfg *config.Config) *LocalProvider {
	return &LocalProvider{config: cfg}
}

// generateJWT creates a signed JWT token with the given claims and expiration
func (p *LocalProvider) generateJWT(
	principalID, clientID, tokenType string,
	expiresAt time.Time,
) (*Result, error) {
	claims := jwt.MapClaims{
		"principal_id": principalID,
		"client_id":    clientID,
		"type":         tokenType,
		"exp":          expiresAt.Unix(),
		"iat":          time.Now().Unix(),
		"iss":          p.config.BaseURL,
		"sub":          principalID,
		"jti":          uuid.New().String(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := tok.SignedString([]byte(p.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return &Result{
		TokenString: tokenString,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   expiresAt,
		Claims:      claims,
	}, nil
}

// GenerateToken creates an access token JWT using local signing
func (p *LocalProvider) GenerateToken(
	ctx context.Context,
	principalID, clientID string,
) (*Result, error) {
	expiresAt := time.Now().Add(p.config.JWTExpiration)
	return p.generateJWT(principalID, clientID, "access", expiresAt)
}

// GenerateRefreshToken creates a refresh token JWT with longer expiration
func (p *LocalProvider) GenerateRefreshToken(
	ctx context.Context,
	principalID, clientID string,
) (*Result, error) {
	expiresAt := time.Now().Add(p.config.RefreshTokenExpiration)
	return p.generateJWT(principalID, clientID, "refresh", expiresAt)
}

// ValidateToken verifies a JWT token using local verification
func (p *LocalProvider) ValidateToken(
	ctx context.Context,
	tokenString string,
) (*ValidationResult, error) {
	tok, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(p.config.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !tok.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	principalID, _ := claims["principal_id"].(string)
	clientID, _ := claims["client_id"].(string)

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}
	expiresAt := time.Unix(int64(exp), 0)

	return &ValidationResult{
		Valid:       true,
		PrincipalID: principalID,
		ClientID:    clientID,
		ExpiresAt:   expiresAt,
		Claims:      claims,
	}, nil
}

// Name returns provider name for logging
func (p *LocalProvider) Name() string {
	return "local"
}
