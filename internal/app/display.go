package app

import (
	"github.com/stacklok/mosaic-wall/internal/cache"
	"github.com/stacklok/mosaic-wall/internal/canvas"
	"github.com/stacklok/mosaic-wall/internal/provider"
	"github.com/stacklok/mosaic-wall/internal/status"
)

// displayService exposes the running components to the HTTP API
type displayService struct {
	provider  *provider.Provider
	scheduler provider.Scheduler
	canvas    *canvas.MemoryCanvas
}

func (d *displayService) Ready() bool {
	return d.provider.Initialized()
}

func (d *displayService) ProviderState() provider.ScheduleState {
	return d.provider.State()
}

func (d *displayService) ProviderStatus() status.TickStatus {
	return d.scheduler.Status()
}

func (d *displayService) MediaCount() int {
	return d.provider.Count()
}

func (d *displayService) Media(key string) (*cache.MediaItem, bool) {
	return d.provider.Media(key)
}

func (d *displayService) CanvasSnapshot() canvas.Snapshot {
	return d.canvas.Snapshot()
}
