package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/middleware"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/services"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/util"

	"github.com/gin-gonic/gin"
)

type DownloadHandler struct {
	downloadService *services.DownloadService
}

func NewDownloadHandler(ds *services.DownloadService) *DownloadHandler {
	return &DownloadHandler{downloadService: ds}
}

// IssueArchiveToken handles POST /downloads/archive. The token is bound to
// the fingerprint of the requesting connection; only a request arriving
// with the same fingerprint can redeem it.
func (h *DownloadHandler) IssueArchiveToken(c *gin.Context) {
	principalID, ok := middleware.PrincipalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "access_denied",
			"error_description": "Authentication required",
		})
		return
	}

	var req struct {
		ProjectID   string `json:"project_id" binding:"required"`
		ArchivePath string `json:"archive_path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "project_id and archive_path are required",
		})
		return
	}

	claim := services.ArchiveClaim{
		ProjectID:   req.ProjectID,
		ArchivePath: req.ArchivePath,
		PrincipalID: principalID,
	}
	fingerprint := util.Fingerprint(c.ClientIP(), c.Request.UserAgent())

	tok, expiresAt, err := h.downloadService.IssueArchiveToken(c.Request.Context(), claim, fingerprint)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      tok,
		"expires_in": int(time.Until(expiresAt).Seconds()),
	})
}

// RedeemArchiveToken handles GET /downloads/archive/:token. Unknown,
// expired, already-used and wrong-fingerprint tokens all get the same
// answer so a caller cannot tell which one it hit.
func (h *DownloadHandler) RedeemArchiveToken(c *gin.Context) {
	tok := c.Param("token")
	fingerprint := util.Fingerprint(c.ClientIP(), c.Request.UserAgent())

	claim, err := h.downloadService.RedeemArchiveToken(c.Request.Context(), tok, fingerprint)
	if err != nil {
		if errors.Is(err, services.ErrDownloadInvalid) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":             "invalid_token",
				"error_description": "Download token is invalid or has expired",
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
		"project_id":   claim.ProjectID,
		"archive_path": claim.ArchivePath,
		"principal_id": claim.PrincipalID,
	})
}
