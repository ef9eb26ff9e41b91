package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/config"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/handlers"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/metrics"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type routeHandlers struct {
	device   *handlers.DeviceHandler
	token    *handlers.TokenHandler
	download *handlers.DownloadHandler
	reset    *handlers.ResetHandler
}

// setupRouter configures the Gin router with all routes and middleware.
func setupRouter(
	cfg *config.Config,
	caches *credentialCaches,
	recorder metrics.Recorder,
	validator middleware.TokenValidator,
	h routeHandlers,
) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", createHealthCheckHandler(caches))
	setupMetricsEndpoint(r, cfg)

	limit := setupRateLimiting(cfg)
	requireAuth := middleware.RequireAuth(validator)

	// Device authorization grant (RFC 8628)
	r.POST("/oauth/device/code", limit, h.device.DeviceCodeRequest)
	r.POST("/oauth/device/verify", limit, requireAuth, h.device.DeviceVerify)
	r.POST("/oauth/device/deny", limit, requireAuth, h.device.DeviceDeny)
	r.GET("/oauth/device/client", h.device.DeviceClientName)
	r.POST("/oauth/token", h.token.Token)

	// Single-use archive download tokens
	r.POST("/downloads/archive", requireAuth, h.download.IssueArchiveToken)
	r.GET("/downloads/archive/:token", h.download.RedeemArchiveToken)

	// Single-use password reset tokens
	r.POST("/password/reset/request", limit, h.reset.RequestReset)
	r.POST("/password/reset/complete", limit, h.reset.CompleteReset)

	log.Printf("Server listening on %s (base URL %s)", cfg.ServerAddr, cfg.BaseURL)
	return r
}

// createHealthCheckHandler reports whether the credential cache backend is
// reachable. The device flow is unusable without it.
func createHealthCheckHandler(caches *credentialCaches) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := caches.Authorizations.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"cache":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// setupMetricsEndpoint exposes Prometheus metrics when enabled.
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	if !cfg.MetricsEnabled {
		log.Println("Prometheus metrics disabled")
		return
	}
	log.Println("Prometheus metrics enabled at /metrics")
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// setupRateLimiting builds the shared per-client limiter for the endpoints
// an attacker could brute force: user-code approval and reset requests.
func setupRateLimiting(cfg *config.Config) gin.HandlerFunc {
	if !cfg.EnableRateLimit {
		return func(c *gin.Context) { c.Next() }
	}

	log.Printf("Rate limiting enabled (store: %s, %d req/min)", cfg.RateLimitStore, cfg.RateLimitPerMinute)
	limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		CleanupInterval:   time.Minute,
		StoreType:         middleware.RateLimitStoreType(cfg.RateLimitStore),
		RedisAddr:         cfg.RedisAddr,
		RedisPassword:     cfg.RedisPassword,
		RedisDB:           cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("Failed to create rate limiter: %v", err)
	}
	return limiter
}
