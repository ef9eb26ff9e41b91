package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/token"

	"github.com/gin-gonic/gin"
)

const (
	// ContextPrincipalID is the gin context key carrying the authenticated
	// principal's ID.
	ContextPrincipalID = "principal_id"
)

// TokenValidator verifies bearer tokens. Satisfied by *token.LocalProvider.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*token.ValidationResult, error)
}

// RequireAuth validates the Authorization bearer token and stores the
// principal ID in the context. Requests without a valid token get 401.
func RequireAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":             "unauthorized",
				"error_description": "Missing or malformed Authorization header",
			})
			c.Abort()
			return
		}

		result, err := validator.ValidateToken(c.Request.Context(), tokenString)
		if err != nil || !result.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":             "unauthorized",
				"error_description": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ContextPrincipalID, result.PrincipalID)
		c.Next()
	}
}

// PrincipalID returns the authenticated principal's ID from the context.
func PrincipalID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextPrincipalID)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
