package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/trace"

	"charmcli/internal/config"
	"charmcli/internal/infrastructure"
	"charmcli/internal/middleware"
	"charmcli/internal/operations"
)

// requestTimeout bounds every request. Runs execute on the queue's own
// context and are not affected.
const requestTimeout = 60 * time.Second

// Deps are the collaborators of the router
type Deps struct {
	Env     *operations.Env
	Manager *operations.Manager
	Queue   *operations.Queue
	Server  config.ServerConfig
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *infrastructure.PipelineMetrics
	// Prometheus serves /metrics when set
	Prometheus http.Handler
}

// NewRouter wires middleware and handlers
func NewRouter(d Deps) chi.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.OTel(d.Tracer, d.Metrics))
	r.Use(middleware.SecurityHeaders)
	if d.Server.RateLimit.Enabled {
		r.Use(middleware.NewRateLimiter(d.Server.RateLimit.RPS, d.Server.RateLimit.Burst, logger).Handler)
	}
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteProblem(w, r, middleware.ProblemFromStatus(http.StatusNotFound,
			"no route for "+r.URL.Path, middleware.GetRequestID(r.Context())))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteProblem(w, r, middleware.ProblemFromStatus(http.StatusMethodNotAllowed,
			r.Method+" is not allowed on "+r.URL.Path, middleware.GetRequestID(r.Context())))
	})

	health := NewHealthHandler(d.Env, d.Manager, logger)
	results := NewResultsHandler(d.Env, logger)
	runs := NewRunsHandler(d.Queue, d.Manager, middleware.NewValidator(), logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.HealthCheck)
		r.Get("/health/ready", health.ReadinessCheck)
		r.Get("/version", health.Version)

		r.Get("/participants", results.Participants)
		r.Get("/inputs", results.Inputs)
		r.Get("/results", results.List)
		r.Get("/results/{table}", results.Table)
		r.Get("/summary", results.Summary)

		r.Get("/steps", runs.Steps)
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", runs.List)
			r.With(middleware.RequireJSON).Post("/", runs.Create)
			r.Get("/{id}", runs.Get)
			r.Post("/{id}/cancel", runs.Cancel)
		})
	})

	if d.Prometheus != nil {
		r.Method(http.MethodGet, "/metrics", d.Prometheus)
	}
	return r
}
