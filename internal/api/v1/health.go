package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/mosaic-wall/internal/api/common"
	"github.com/stacklok/mosaic-wall/internal/versions"
)

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc DisplayService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler reports ready once the content provider has completed a tick
func readinessHandler(svc DisplayService) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !svc.Ready() {
			common.WriteErrorResponse(w, "content provider not initialized", http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, ReadinessResponse{Status: "ready"}, http.StatusOK)
	}
}

// versionHandler handles version information requests
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
