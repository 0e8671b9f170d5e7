// Package v1 provides the REST API handlers for the mosaic wall.
package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/mosaic-wall/internal/api/common"
)

// mediaCacheControl allows clients to cache payloads, which never change for a key
const mediaCacheControl = "public, max-age=3600, immutable"

// Routes defines the routes for the display API
type Routes struct {
	service DisplayService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc DisplayService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates a new router for the display API
func Router(svc DisplayService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Get("/provider/status", routes.getProviderStatus)
	r.Get("/canvas", routes.getCanvas)
	r.Get("/media/{key}", routes.getMedia)
	r.Get("/media/{key}/metadata", routes.getMediaMetadata)

	return r
}

// getProviderStatus handles GET /provider/status
func (rr *Routes) getProviderStatus(w http.ResponseWriter, _ *http.Request) {
	state := rr.service.ProviderState()

	resp := ProviderStatusResponse{
		Initialized: state.Initialized,
		CachedItems: rr.service.MediaCount(),
		LastTick:    rr.service.ProviderStatus(),
	}
	if !state.LastRunAt.IsZero() {
		resp.LastRunAt = state.LastRunAt.UTC().Format(time.RFC3339)
	}

	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// getCanvas handles GET /canvas
func (rr *Routes) getCanvas(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, rr.service.CanvasSnapshot(), http.StatusOK)
}

// getMedia handles GET /media/{key} and serves the raw image payload
func (rr *Routes) getMedia(w http.ResponseWriter, r *http.Request) {
	key, err := common.GetMediaKeyParam(r, "key")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, ok := rr.service.Media(key)
	if !ok {
		common.WriteErrorResponse(w, "media not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(item.Payload))
	w.Header().Set("Cache-Control", mediaCacheControl)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(item.Payload); err != nil {
		slog.Debug("Failed to write media payload", "key", key, "error", err)
	}
}

// getMediaMetadata handles GET /media/{key}/metadata
func (rr *Routes) getMediaMetadata(w http.ResponseWriter, r *http.Request) {
	key, err := common.GetMediaKeyParam(r, "key")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, ok := rr.service.Media(key)
	if !ok {
		common.WriteErrorResponse(w, "media not found", http.StatusNotFound)
		return
	}

	common.WriteJSONResponse(w, item, http.StatusOK)
}
