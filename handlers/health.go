package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/upb/classroom-reservation-agent/app"
	"github.com/upb/classroom-reservation-agent/utils"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck returns a simple liveness handler
func HealthCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteOK(w, HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// ReadinessCheck reports whether evaluations can be served. With a
// substrate configured, it must answer within the probe timeout.
func ReadinessCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := make(map[string]string)
		ready := true

		if deps.Catalog == nil || len(deps.Catalog.Regulations) == 0 {
			checks["regulations"] = "not_loaded"
			ready = false
		} else {
			checks["regulations"] = "loaded"
		}

		switch {
		case deps.Engine == nil:
			checks["engine"] = "not_initialized"
			ready = false
		case !deps.Engine.SubstrateEnabled():
			checks["substrate"] = "disabled"
		case deps.Engine.Ready(ctx):
			checks["substrate"] = "healthy"
		default:
			deps.Logger.Warn("reasoning substrate is not reachable")
			checks["substrate"] = "unreachable"
			ready = false
		}

		response := HealthResponse{
			Status:    "ready",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    checks,
		}
		status := http.StatusOK
		if !ready {
			response.Status = "not_ready"
			status = http.StatusServiceUnavailable
		}

		if err := utils.WriteJSON(w, status, response); err != nil {
			deps.Logger.Error("failed to write readiness response", zap.Error(err))
		}
	}
}

// StatusResponse describes the running service
type StatusResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Substrate   string `json:"substrate"`
	Model       string `json:"model,omitempty"`
	MaxDuration string `json:"max_duration"`
	Regulations int    `json:"regulations"`
	Catalog     string `json:"catalog_version"`
	CatalogHash string `json:"catalog_hash"`
}

// StatusHandler returns application status information
func StatusHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := StatusResponse{
			Version:     Version,
			Environment: deps.Config.Environment,
			Substrate:   deps.Config.Substrate.Provider,
			MaxDuration: deps.Config.Policy.MaxDuration.String(),
		}
		if deps.Judge != nil {
			response.Model = deps.Judge.Model()
		}
		if deps.Catalog != nil {
			response.Regulations = len(deps.Catalog.Regulations)
			response.Catalog = deps.Catalog.Version
			response.CatalogHash = deps.Catalog.Hash()
		}

		_ = utils.WriteOK(w, response)
	}
}
