package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/cast"

	"charmcli/internal/config"
	apperrors "charmcli/internal/errors"
	"charmcli/internal/operations"
	"charmcli/internal/readers"
	"charmcli/internal/validation"
	api "charmcli/pkg/contracts/api/v1"
)

// ResultsHandler serves participants and result tables of the study
type ResultsHandler struct {
	env    *operations.Env
	logger *slog.Logger
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(env *operations.Env, logger *slog.Logger) *ResultsHandler {
	return &ResultsHandler{
		env:    env,
		logger: logger.With(slog.String("handler", "results")),
	}
}

// tableSlug turns a workbook sheet name into its URL form
func tableSlug(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "-"))
}

// Participants handles GET /api/participants
func (h *ResultsHandler) Participants(w http.ResponseWriter, r *http.Request) {
	ids, err := h.env.Participants(nil)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	render.JSON(w, r, api.ParticipantsResponse{Participants: ids, Count: len(ids)})
}

// Inputs handles GET /api/inputs, a preflight check of the raw data
func (h *ResultsHandler) Inputs(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if v := r.URL.Query().Get("participants"); v != "" {
		ids = strings.Split(v, ",")
	}
	report, err := validation.NewStudyValidator(h.env.Paths, h.logger).Check(ids)
	if err != nil {
		respondError(w, r, h.logger, apperrors.NotFoundError(h.env.Paths.RawDir))
		return
	}
	render.JSON(w, r, report)
}

// List handles GET /api/results
func (h *ResultsHandler) List(w http.ResponseWriter, r *http.Request) {
	tables := operations.SummaryTables(h.env)
	out := make([]api.ResultInfo, 0, len(tables))
	for _, t := range tables {
		out = append(out, api.ResultInfo{
			Table:     tableSlug(t.Name),
			Name:      t.Name,
			File:      filepath.Base(t.Path),
			Available: config.FileExists(t.Path),
		})
	}
	render.JSON(w, r, api.ResultListResponse{Results: out})
}

// Table handles GET /api/results/{table}
func (h *ResultsHandler) Table(w http.ResponseWriter, r *http.Request) {
	req := api.ResultRequest{Table: chi.URLParam(r, "table")}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := cast.ToIntE(v)
		if err != nil || limit < 1 {
			respondError(w, r, h.logger, apperrors.NewValidationError("limit must be a positive integer"))
			return
		}
		req.Limit = limit
	}

	path, ok := h.tablePath(req.Table)
	if !ok {
		respondError(w, r, h.logger, apperrors.NotFoundError("result table "+req.Table))
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		if !config.FileExists(path) {
			respondError(w, r, h.logger, apperrors.NotFoundError(filepath.Base(path)))
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
		http.ServeFile(w, r, path)
		return
	}

	tbl, err := readers.ReadTable(path)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	rows := tbl.Rows
	if req.Limit > 0 && req.Limit < len(rows) {
		rows = rows[:req.Limit]
	}
	render.JSON(w, r, api.TableResponse{
		Table:   req.Table,
		Columns: tbl.Columns,
		Rows:    rows,
		Total:   len(tbl.Rows),
	})
}

// Summary handles GET /api/summary
func (h *ResultsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	path := h.env.Paths.Circadian(h.env.Study.Files.SummaryWorkbook)
	if !config.FileExists(path) {
		respondError(w, r, h.logger, apperrors.NotFoundError("summary workbook"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func (h *ResultsHandler) tablePath(slug string) (string, bool) {
	for _, t := range operations.SummaryTables(h.env) {
		if tableSlug(t.Name) == slug {
			return t.Path, true
		}
	}
	return "", false
}
