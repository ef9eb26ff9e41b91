// Package bootstrap wires configuration, storage, caches, services and the
// HTTP layer into a running server.
package bootstrap

import (
	"context"
	"log"
	"net/http"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/client"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/config"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/guard"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/handlers"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/metrics"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/notify"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/services"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/store"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/token"

	"github.com/gin-gonic/gin"
)

// Application holds all initialized components.
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB              *store.Store
	Caches          *credentialCaches
	MetricsRecorder metrics.Recorder
	TokenProvider   *token.LocalProvider

	// Services
	DeviceService   *services.DeviceService
	PollGovernor    *services.PollGovernor
	TokenService    *services.TokenService
	DownloadService *services.DownloadService
	ResetService    *services.ResetService

	// HTTP
	Router *gin.Engine
	Server *http.Server
}

// Run initializes and starts the application.
func Run(ctx context.Context, cfg *config.Config) error {
	app := &Application{Config: cfg}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := app.initializeInfrastructure(ctx); err != nil {
		return err
	}

	app.initializeBusinessLayer()
	app.initializeHTTPLayer()
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up the database, metrics and the credential
// caches.
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	app.DB, err = store.New(app.Config.DatabaseDriver, app.Config.DatabaseDSN)
	if err != nil {
		return err
	}

	app.MetricsRecorder = metrics.Init(app.Config.MetricsEnabled)
	if app.Config.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}

	app.Caches, err = initializeCaches(ctx, app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up the token provider, the notifier and the
// credential services.
func (app *Application) initializeBusinessLayer() {
	app.TokenProvider = token.NewLocalProvider(app.Config)

	app.DeviceService = services.NewDeviceService(
		app.Caches.Authorizations,
		app.Caches.UserCodes,
		app.DB,
		app.Config,
		app.MetricsRecorder,
	)
	app.PollGovernor = services.NewPollGovernor(app.Caches.Polls, app.Config, app.MetricsRecorder)
	app.TokenService = services.NewTokenService(
		app.DeviceService,
		app.PollGovernor,
		app.DB,
		app.TokenProvider,
		app.MetricsRecorder,
	)

	downloadGuard := guard.New(app.Caches.Downloads)
	app.DownloadService = services.NewDownloadService(downloadGuard, app.Config, app.MetricsRecorder)

	resetGuard := guard.New(app.Caches.Resets)
	app.ResetService = services.NewResetService(
		resetGuard,
		app.DB,
		initializeNotifier(app.Config),
		app.Config,
		app.MetricsRecorder,
	)
}

// initializeHTTPLayer sets up handlers, router and server.
func (app *Application) initializeHTTPLayer() {
	deviceHandler := handlers.NewDeviceHandler(app.DeviceService, app.Config)
	tokenHandler := handlers.NewTokenHandler(app.TokenService, app.Config)
	downloadHandler := handlers.NewDownloadHandler(app.DownloadService)
	resetHandler := handlers.NewResetHandler(app.ResetService)

	app.Router = setupRouter(app.Config, app.Caches, app.MetricsRecorder, app.TokenProvider, routeHandlers{
		device:   deviceHandler,
		token:    tokenHandler,
		download: downloadHandler,
		reset:    resetHandler,
	})
	app.Server = createHTTPServer(app.Config, app.Router)
}

// initializeNotifier builds the reset-link notifier. Without a configured
// Apprise gateway the links are only written to the log, which is enough
// for local development.
func initializeNotifier(cfg *config.Config) services.ResetNotifier {
	if cfg.AppriseURL == "" {
		log.Println("APPRISE_URL not set, reset links will be logged instead of delivered")
		return &logNotifier{}
	}

	notifyClient, err := client.NewNotifyClient(client.NotifyClientOptions{
		AuthMode:      cfg.NotifyAuthMode,
		AuthSecret:    cfg.NotifyAuthSecret,
		Timeout:       cfg.NotifyTimeout,
		MaxRetries:    cfg.NotifyMaxRetries,
		RetryDelay:    cfg.NotifyRetryDelay,
		MaxRetryDelay: cfg.NotifyMaxRetryDelay,
	})
	if err != nil {
		log.Fatalf("Failed to create notification client: %v", err)
	}

	log.Printf("Reset links delivered via Apprise gateway at %s", cfg.AppriseURL)
	return notify.NewAppriseNotifier(cfg.AppriseURL, cfg.AppriseTargets, notifyClient)
}

// logNotifier is the development fallback when no gateway is configured.
type logNotifier struct{}

func (n *logNotifier) SendPasswordReset(ctx context.Context, email, link string) error {
	log.Printf("[Notify] password reset for %s: %s", email, link)
	return nil
}
