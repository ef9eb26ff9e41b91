package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/config"

	"github.com/appleboy/graceful"
)

// createHTTPServer creates the HTTP server instance.
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// startWithGracefulShutdown starts the server and blocks until shutdown
// completes.
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addCacheShutdownJob(m, app.Caches)

	<-m.Done()
}

// addServerRunningJob adds the HTTP server running job.
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds the HTTP server shutdown handler.
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addCacheShutdownJob closes the credential cache backend connection.
func addCacheShutdownJob(m *graceful.Manager, caches *credentialCaches) {
	m.AddShutdownJob(func() error {
		log.Println("Closing credential cache...")
		if err := caches.Close(); err != nil {
			log.Printf("Error closing credential cache: %v", err)
			return err
		}
		return nil
	})
}
