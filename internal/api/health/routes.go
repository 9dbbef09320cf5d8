// Package health provides liveness, readiness and version endpoints.
package health

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mergington/activity-registry/internal/api/common"
	"github.com/mergington/activity-registry/internal/service"
	"github.com/mergington/activity-registry/internal/versions"
)

// StatusResponse is returned by the health and readiness endpoints
type StatusResponse struct {
	Status string `json:"status"`
}

// Router creates a router for health check endpoints
func Router(svc service.ActivityService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, StatusResponse{Status: "healthy"}, http.StatusOK)
}

func readinessHandler(svc service.ActivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			common.WriteErrorResponse(w, "Registry not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, StatusResponse{Status: "ready"}, http.StatusOK)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.Get(), http.StatusOK)
}
