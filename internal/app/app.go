// Package app provides application lifecycle management for the mosaic wall.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/stacklok/mosaic-wall/internal/config"
)

// MosaicApp encapsulates all components needed to run the display and its status API.
// It provides lifecycle management and graceful shutdown capabilities.
type MosaicApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
	workers    sync.WaitGroup
}

// Start starts the scheduler, the step engine and the HTTP server.
// This method blocks until the HTTP server stops or encounters an error.
func (app *MosaicApp) Start() error {
	app.workers.Add(2)

	go func() {
		defer app.workers.Done()
		if err := app.components.Scheduler.Start(app.ctx); err != nil {
			slog.Error("Provider scheduler failed", "error", err)
		}
	}()

	go func() {
		defer app.workers.Done()
		if err := app.components.Engine.Run(app.ctx); err != nil {
			slog.Error("Step engine failed", "error", err)
		}
	}()

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout.
// The scheduler is stopped first, then the engine, then the HTTP server.
func (app *MosaicApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if err := app.components.Scheduler.Stop(); err != nil {
		slog.Error("Failed to stop provider scheduler", "error", err)
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	workersDone := make(chan struct{})
	go func() {
		app.workers.Wait()
		close(workersDone)
	}()
	select {
	case <-workersDone:
	case <-shutdownCtx.Done():
		slog.Warn("Background workers did not stop before the shutdown timeout")
	}

	if closer, ok := app.components.Source.(sourceCloser); ok {
		closer.Close(shutdownCtx)
	}

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *MosaicApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *MosaicApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// GetComponents returns the running components
func (app *MosaicApp) GetComponents() *AppComponents {
	return app.components
}
