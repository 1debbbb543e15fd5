package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"charmcli/internal/config"
	"charmcli/internal/operations"
	"charmcli/pkg/contracts"
	api "charmcli/pkg/contracts/api/v1"
)

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	env     *operations.Env
	manager *operations.Manager
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(env *operations.Env, manager *operations.Manager, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		env:     env,
		manager: manager,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.HealthResponse{
		Status:    "ok",
		Version:   contracts.Version,
		Timestamp: time.Now().UTC(),
		RunStore:  "ok",
	})
}

// ReadinessCheck handles GET /api/health/ready
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{
		Status:    "ready",
		Version:   contracts.Version,
		Timestamp: time.Now().UTC(),
		RunStore:  "ok",
	}
	if _, err := h.manager.ListRuns(operations.RunFilter{Limit: 1}); err != nil {
		h.logger.WarnContext(r.Context(), "run store unavailable", slog.String("error", err.Error()))
		resp.Status = "not_ready"
		resp.RunStore = err.Error()
	}
	if !config.FileExists(h.env.Paths.RawDir) {
		resp.Status = "not_ready"
	}
	if resp.Status != "ready" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, resp)
}

// Version handles GET /api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, contracts.GetVersionInfo())
}
