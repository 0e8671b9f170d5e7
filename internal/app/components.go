package app

import (
	"context"

	"github.com/stacklok/mosaic-wall/internal/canvas"
	"github.com/stacklok/mosaic-wall/internal/provider"
	"github.com/stacklok/mosaic-wall/internal/sources"
)

// Runner is a long running component that returns once its context ends
type Runner interface {
	Run(ctx context.Context) error
}

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Source is where the provider reads collections from
	Source sources.CollectionSource

	// Scheduler refreshes the content cache in the background
	Scheduler provider.Scheduler

	// Provider holds the cached media shown by the display
	Provider *provider.Provider

	// Canvas is what the step engine draws on
	Canvas *canvas.MemoryCanvas

	// Engine runs the display steps
	Engine Runner
}

// sourceCloser is implemented by sources holding resources between provider runs
type sourceCloser interface {
	Close(ctx context.Context)
}
