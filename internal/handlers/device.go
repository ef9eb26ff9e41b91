package handlers

import (
	"errors"
	"net/http"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/config"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/middleware"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/services"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	deviceService *services.DeviceService
	config        *config.Config
}

func NewDeviceHandler(ds *services.DeviceService, cfg *config.Config) *DeviceHandler {
	return &DeviceHandler{deviceService: ds, config: cfg}
}

// DeviceCodeRequest handles POST /oauth/device/code (RFC 8628 section 3.1).
// This is called by the headless client to start the device flow.
func (h *DeviceHandler) DeviceCodeRequest(c *gin.Context) {
	clientID := c.PostForm("client_id")
	if clientID == "" {
		// Also try JSON body
		var req struct {
			ClientID string `json:"client_id"`
		}
		if err := c.ShouldBindJSON(&req); err == nil {
			clientID = req.ClientID
		}
	}

	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "client_id is required",
		})
		return
	}

	auth, err := h.deviceService.Issue(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidClient) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "invalid_client",
				"error_description": "Unknown client_id",
			})
			return
		}
		if errors.Is(err, services.ErrClientInactive) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "invalid_client",
				"error_description": "Client is inactive",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device_code":               auth.DeviceCode,
		"user_code":                 auth.UserCode,
		"verification_uri":          h.config.BaseURL + "/device",
		"verification_uri_complete": h.config.BaseURL + "/device?user_code=" + auth.UserCode,
		"expires_in":                int(h.config.DeviceCodeExpiration.Seconds()),
		"interval":                  h.config.PollIntervalSeconds(),
	})
}

// DeviceVerify handles POST /oauth/device/verify. The authenticated
// principal approves the pending authorization behind the user code.
func (h *DeviceHandler) DeviceVerify(c *gin.Context) {
	principalID, ok := middleware.PrincipalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "access_denied",
			"error_description": "Authentication required",
		})
		return
	}

	userCode := c.PostForm("user_code")
	if userCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "user_code is required",
		})
		return
	}

	// Resolve the client name before authorizing; approval burns the
	// user-code mapping.
	clientName, _ := h.deviceService.ClientName(c.Request.Context(), userCode)

	if err := h.deviceService.Authorize(c.Request.Context(), userCode, principalID); err != nil {
		h.renderVerifyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"client_name": clientName,
	})
}

// DeviceDeny handles POST /oauth/device/deny. The authenticated principal
// rejects the pending authorization; the polling client observes
// access_denied on its next poll.
func (h *DeviceHandler) DeviceDeny(c *gin.Context) {
	if _, ok := middleware.PrincipalID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "access_denied",
			"error_description": "Authentication required",
		})
		return
	}

	userCode := c.PostForm("user_code")
	if userCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "user_code is required",
		})
		return
	}

	if err := h.deviceService.Deny(c.Request.Context(), userCode); err != nil {
		h.renderVerifyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeviceClientName handles GET /oauth/device/client. The approval page uses
// it to show which client is asking before the principal confirms.
func (h *DeviceHandler) DeviceClientName(c *gin.Context) {
	userCode := c.Query("user_code")
	if userCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "user_code is required",
		})
		return
	}

	name, err := h.deviceService.ClientName(c.Request.Context(), userCode)
	if err != nil {
		h.renderVerifyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client_name": name})
}

func (h *DeviceHandler) renderVerifyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrMalformedCode):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "malformed_code",
			"error_description": "User code must look like ABCD-1234",
		})
	case errors.Is(err, services.ErrCodeNotFound), errors.Is(err, services.ErrCodeExpired):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_or_expired_code",
			"error_description": "Code not found or expired, request a new one",
		})
	case errors.Is(err, services.ErrAlreadyFinalized):
		c.JSON(http.StatusConflict, gin.H{
			"error":             "already_finalized",
			"error_description": "This code has already been decided",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": err.Error(),
		})
	}
}
