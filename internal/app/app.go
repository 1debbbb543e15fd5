package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"charmcli/internal/config"
	"charmcli/internal/infrastructure"
	"charmcli/internal/operations"
	handlers "charmcli/internal/transport/http"
	"charmcli/pkg/contracts"
)

const queueStopTimeout = 30 * time.Second

// Application holds the wired components of one process
type Application struct {
	Config  *config.Config
	Logger  *slog.Logger
	OTel    *infrastructure.OTelProviders
	Metrics *infrastructure.PipelineMetrics
	Env     *operations.Env
	Store   operations.RunStore
	Manager *operations.Manager

	// set by Serve
	Queue  *operations.Queue
	Server *http.Server
}

// NewApplication builds the pipeline from cfg
func NewApplication(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("CHARM starting",
		slog.String("version", contracts.Version),
		slog.String("input_root", cfg.Study.InputRoot),
		slog.String("output_root", cfg.Study.OutputRoot))

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	env, err := operations.NewEnv(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	store, err := openRunStore(cfg.Pipeline.RunStorePath, env.Study.OutputRoot)
	if err != nil {
		return nil, err
	}

	manager, err := operations.NewPipelineManager(env, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Application{
		Config:  cfg,
		Logger:  logger,
		OTel:    providers,
		Metrics: metrics,
		Env:     env,
		Store:   store,
		Manager: manager,
	}, nil
}

// openRunStore opens the bbolt history, or an in-memory one when path is
// empty. Relative paths are taken from the output root.
func openRunStore(path, outputRoot string) (operations.RunStore, error) {
	if path == "" {
		return operations.NewMemoryRunStore(), nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(outputRoot, path)
	}
	return operations.OpenBoltRunStore(path)
}

// Execute runs req in the foreground
func (a *Application) Execute(ctx context.Context, req operations.RunRequest) (*operations.RunResponse, error) {
	if err := a.Env.Paths.EnsureDirectories(); err != nil {
		return nil, err
	}
	return a.Manager.Execute(ctx, req)
}

// Router returns the HTTP handler of the results server
func (a *Application) Router() http.Handler {
	return handlers.NewRouter(handlers.Deps{
		Env:        a.Env,
		Manager:    a.Manager,
		Queue:      a.Queue,
		Server:     a.Config.Server,
		Logger:     a.Logger,
		Tracer:     a.OTel.Tracer,
		Metrics:    a.Metrics,
		Prometheus: a.OTel.PrometheusHTTP,
	})
}

// Serve runs the results server until ctx is done, then shuts it down
func (a *Application) Serve(ctx context.Context) error {
	if err := a.Env.Paths.EnsureDirectories(); err != nil {
		return err
	}

	a.Queue = operations.NewQueue(a.Manager, a.Logger)
	a.Queue.Start(context.WithoutCancel(ctx))

	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router(),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.InfoContext(ctx, "results server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown requested")
	case serveErr = <-errCh:
		a.Logger.Error("server error", slog.String("error", serveErr.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	if err := a.Queue.Stop(queueStopTimeout); err != nil {
		a.Logger.Error("failed to stop run queue", slog.String("error", err.Error()))
	}
	return serveErr
}

// Close releases the run store and telemetry and writes the metrics
// textfile
func (a *Application) Close() error {
	var errs []error
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("run store: %w", err))
	}
	if err := infrastructure.WriteMetricsTextfile(a.Config.Telemetry.MetricsTextfile); err != nil {
		errs = append(errs, fmt.Errorf("metrics textfile: %w", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.OTel.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	a.Logger.Info("CHARM stopped")
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
