// Package app provides application lifecycle management for the activity registry server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mergington/activity-registry/internal/config"
)

// ActivityApp encapsulates all components needed to run the activity registry API server.
// It provides lifecycle management and graceful shutdown capabilities.
type ActivityApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	ctx        context.Context
	cancelFunc context.CancelFunc

	stopOnce sync.Once
	stopErr  error
}

// Start listens on the configured address and serves until the server is stopped
func (app *ActivityApp) Start() error {
	ln, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	return app.Serve(ln)
}

// Serve accepts connections on ln until the server is stopped
func (app *ActivityApp) Serve(ln net.Listener) error {
	slog.Info("Server listening", "address", ln.Addr().String())
	if err := app.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Run starts the server and stops it gracefully once ctx is cancelled.
// It returns when both the server and the shutdown have finished.
func (app *ActivityApp) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(app.Start)
	g.Go(func() error {
		<-gctx.Done()
		return app.Stop(shutdownTimeout)
	})

	return g.Wait()
}

// Stop gracefully stops the application with the given timeout.
// Only the first call has an effect; later calls return the same result.
func (app *ActivityApp) Stop(timeout time.Duration) error {
	app.stopOnce.Do(func() {
		app.stopErr = app.stop(timeout)
	})
	return app.stopErr
}

func (app *ActivityApp) stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}

	if app.components != nil && app.components.Telemetry != nil {
		if err := app.components.Telemetry.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}

	if len(errs) == 0 {
		slog.Info("Server shutdown complete")
	}
	return errors.Join(errs...)
}

// GetConfig returns the application configuration
func (app *ActivityApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server
func (app *ActivityApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
