package http

import (
	"log/slog"
	"net/http"

	"github.com/araddon/dateparse"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/cast"

	apperrors "charmcli/internal/errors"
	"charmcli/internal/middleware"
	"charmcli/internal/operations"
	api "charmcli/pkg/contracts/api/v1"
	"charmcli/pkg/contracts/domain"
)

const defaultPageSize = 50

// RunsHandler starts, lists and cancels pipeline runs
type RunsHandler struct {
	queue     *operations.Queue
	manager   *operations.Manager
	validator *middleware.Validator
	logger    *slog.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(queue *operations.Queue, manager *operations.Manager, validator *middleware.Validator, logger *slog.Logger) *RunsHandler {
	return &RunsHandler{
		queue:     queue,
		manager:   manager,
		validator: validator,
		logger:    logger.With(slog.String("handler", "runs")),
	}
}

// Create handles POST /api/runs
func (h *RunsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.RunRequest
	if err := h.validator.Decode(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	rec, err := h.queue.Submit(r.Context(), operations.RunRequest{
		Step:         req.Step,
		Participants: req.Participants,
		Workers:      req.Workers,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/api/runs/"+rec.ID)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, api.RunResponse{Run: rec})
}

// List handles GET /api/runs
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := api.RunListRequest{
		PaginationRequest: api.PaginationRequest{Page: 1, PageSize: defaultPageSize},
		Status:            q.Get("status"),
		Step:              q.Get("step"),
		Since:             q.Get("since"),
	}
	for name, dst := range map[string]*int{"page": &req.Page, "page_size": &req.PageSize} {
		if v := q.Get(name); v != "" {
			n, err := cast.ToIntE(v)
			if err != nil {
				respondError(w, r, h.logger, apperrors.NewValidationError(name+" must be an integer"))
				return
			}
			*dst = n
		}
	}
	if err := h.validator.Struct(req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	filter := operations.RunFilter{Status: domain.RunStatus(req.Status), Step: req.Step}
	if req.Since != "" {
		since, err := dateparse.ParseAny(req.Since)
		if err != nil {
			respondError(w, r, h.logger, apperrors.NewValidationError("since is not a recognised date"))
			return
		}
		filter.Since = since
	}

	runs, err := h.manager.ListRuns(filter)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	total := len(runs)
	start := min(req.Offset(), total)
	end := min(start+req.PageSize, total)
	page := runs[start:end]
	if page == nil {
		page = []domain.RunRecord{}
	}
	render.JSON(w, r, api.RunListResponse{
		Runs:     page,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

// Get handles GET /api/runs/{id}
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.manager.GetRun(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, api.RunResponse{Run: rec})
}

// Cancel handles POST /api/runs/{id}/cancel
func (h *RunsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.queue.Cancel(id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "run cancellation requested", slog.String("run_id", id))
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{"id": id, "status": "cancelling"})
}

// Steps handles GET /api/steps
func (h *RunsHandler) Steps(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.manager.GetRegistry().Info())
}
