package v1

import (
	"github.com/stacklok/mosaic-wall/internal/cache"
	"github.com/stacklok/mosaic-wall/internal/canvas"
	"github.com/stacklok/mosaic-wall/internal/provider"
	"github.com/stacklok/mosaic-wall/internal/status"
)

//go:generate mockgen -destination=mocks/mock_display_service.go -package=mocks -source=service.go DisplayService

// DisplayService is the read-only view of the running display served over HTTP
type DisplayService interface {
	// Ready reports whether the provider completed its first successful tick
	Ready() bool

	// ProviderState returns the provider's schedule state
	ProviderState() provider.ScheduleState

	// ProviderStatus returns the status of the last provider tick
	ProviderStatus() status.TickStatus

	// MediaCount returns the number of items in the content cache
	MediaCount() int

	// Media looks up a cached item by its key
	Media(key string) (*cache.MediaItem, bool)

	// CanvasSnapshot returns the current canvas contents
	CanvasSnapshot() canvas.Snapshot
}
