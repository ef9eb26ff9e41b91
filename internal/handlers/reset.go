package handlers

import (
	"errors"
	"net/http"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/services"

	"github.com/gin-gonic/gin"
)

type ResetHandler struct {
	resetService *services.ResetService
}

func NewResetHandler(rs *services.ResetService) *ResetHandler {
	return &ResetHandler{resetService: rs}
}

// RequestReset handles POST /password/reset/request. The response is the
// same whether or not the address belongs to an account.
func (h *ResetHandler) RequestReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "email is required",
		})
		return
	}

	if err := h.resetService.Request(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "Could not process the reset request",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "If the address belongs to an account, a reset link has been sent",
	})
}

// CompleteReset handles POST /password/reset/complete. The token is burned
// on the first attempt whether or not the password update succeeds.
func (h *ResetHandler) CompleteReset(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "token and new_password (8+ characters) are required",
		})
		return
	}

	if err := h.resetService.Complete(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, services.ErrResetInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "invalid_token",
				"error_description": "Reset token is invalid or has expired",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "Could not update the password",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
