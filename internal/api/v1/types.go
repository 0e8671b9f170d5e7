package v1

import (
	"github.com/stacklok/mosaic-wall/internal/status"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string `json:"status" example:"ready"`
}

// ProviderStatusResponse describes the collection provider
type ProviderStatusResponse struct {
	Initialized bool              `json:"initialized"`
	LastRunAt   string            `json:"lastRunAt,omitempty" example:"2025-01-15T10:30:00Z"`
	CachedItems int               `json:"cachedItems"`
	LastTick    status.TickStatus `json:"lastTick"`
}
