package handlers

import (
	"errors"
	"net/http"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/config"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	// https://datatracker.ietf.org/doc/html/rfc8628#section-3.4
	GrantTypeDeviceCode = "urn:ietf:params:oauth:grant-type:device_code"
)

type TokenHandler struct {
	tokenService *services.TokenService
	config       *config.Config
}

func NewTokenHandler(ts *services.TokenService, cfg *config.Config) *TokenHandler {
	return &TokenHandler{tokenService: ts, config: cfg}
}

// Token handles POST /oauth/token. The only grant this server speaks is the
// device code grant (RFC 8628).
func (h *TokenHandler) Token(c *gin.Context) {
	grantType := c.PostForm("grant_type")

	switch grantType {
	case GrantTypeDeviceCode:
		h.handleDeviceCodeGrant(c)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported_grant_type",
			"error_description": "Supported grant types: " + GrantTypeDeviceCode,
		})
	}
}

// handleDeviceCodeGrant is one poll of the token endpoint (RFC 8628
// section 3.4/3.5). Service sentinel errors map onto the RFC error codes;
// everything else is a server error.
func (h *TokenHandler) handleDeviceCodeGrant(c *gin.Context) {
	deviceCode := c.PostForm("device_code")
	clientID := c.PostForm("client_id")

	if deviceCode == "" || clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "device_code and client_id are required",
		})
		return
	}

	grant, err := h.tokenService.ExchangeDeviceCode(c.Request.Context(), deviceCode, clientID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAuthorizationPending):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "authorization_pending",
			})
		case errors.Is(err, services.ErrSlowDown):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":    "slow_down",
				"interval": h.config.PollIntervalSeconds(),
			})
		case errors.Is(err, services.ErrExpiredToken):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "expired_token",
			})
		case errors.Is(err, services.ErrAccessDenied):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "access_denied",
			})
		case errors.Is(err, services.ErrInvalidClient):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "invalid_client",
				"error_description": "Device code was issued to a different client",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":             "server_error",
				"error_description": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  grant.AccessToken.TokenString,
		"refresh_token": grant.RefreshToken.TokenString,
		"token_type":    grant.AccessToken.TokenType,
		"expires_in":    int(h.config.JWTExpiration.Seconds()),
		"principal_id":  grant.Principal.ID,
	})
}
