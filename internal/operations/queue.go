package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"charmcli/internal/infrastructure"
	"charmcli/pkg/contracts/domain"
)

// ErrRunInProgress is returned when a run is submitted while another executes
var ErrRunInProgress = errors.New("a run is already in progress")

// ErrRunNotCancellable is returned when cancelling a run that is not executing
var ErrRunNotCancellable = errors.New("run cannot be cancelled")

// Queue executes submitted runs in the background, one at a time. Steps
// write shared result files, so two concurrent runs would race on them.
type Queue struct {
	manager *Manager
	logger  *slog.Logger

	mu     sync.Mutex
	base   context.Context
	active string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue creates a run queue over manager
func NewQueue(manager *Manager, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		manager: manager,
		logger:  infrastructure.WithComponent(logger, "runqueue"),
		base:    context.Background(),
	}
}

// Start sets the parent context of submitted runs and marks runs that
// were left running by a previous process as failed
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	q.base = ctx
	q.mu.Unlock()

	q.recoverRuns(ctx)
}

// Submit starts a run in the background and returns its pending record
func (q *Queue) Submit(ctx context.Context, req RunRequest) (domain.RunRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active != "" {
		return domain.RunRecord{}, fmt.Errorf("%w: %s", ErrRunInProgress, q.active)
	}

	state, steps, err := q.manager.Prepare(req)
	if err != nil {
		return domain.RunRecord{}, err
	}

	traceID := infrastructure.GetTraceID(ctx)
	runCtx := q.base
	if traceID != "" {
		runCtx = infrastructure.WithTraceID(runCtx, traceID)
	}
	runCtx, cancel := context.WithCancel(runCtx)

	q.active = state.ID
	q.cancel = cancel
	q.wg.Add(1)
	go q.process(runCtx, cancel, state, steps)

	q.logger.InfoContext(ctx, "run submitted",
		slog.String("run_id", state.ID),
		slog.String("step", state.Step))
	return state.Record(), nil
}

func (q *Queue) process(ctx context.Context, cancel context.CancelFunc, state *RunState, steps []Step) {
	defer q.wg.Done()
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			q.logger.ErrorContext(ctx, "run panicked",
				slog.String("run_id", state.ID),
				slog.Any("panic", r))
			state.Fail(fmt.Errorf("run panicked: %v", r))
			if err := q.manager.store.UpdateRun(state.Record()); err != nil {
				q.logger.Error("failed to update run after panic", slog.String("error", err.Error()))
			}
		}

		q.mu.Lock()
		q.active = ""
		q.cancel = nil
		q.mu.Unlock()
	}()

	if _, err := q.manager.Run(ctx, state, steps); err != nil {
		q.logger.WarnContext(ctx, "run finished with error",
			slog.String("run_id", state.ID),
			slog.String("error", err.Error()))
	}
}

// Active returns the ID of the executing run, or ""
func (q *Queue) Active() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Cancel stops the executing run if it has the given ID
func (q *Queue) Cancel(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active != id || q.cancel == nil {
		rec, err := q.manager.store.GetRun(id)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %s has status %s", ErrRunNotCancellable, id, rec.Status)
	}
	q.cancel()
	return nil
}

// Stop cancels the executing run and waits for it to finish
func (q *Queue) Stop(timeout time.Duration) error {
	q.mu.Lock()
	if q.cancel != nil {
		q.cancel()
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for run to finish")
	}
}

func (q *Queue) recoverRuns(ctx context.Context) {
	runs, err := q.manager.store.ListRuns(RunFilter{})
	if err != nil {
		q.logger.ErrorContext(ctx, "failed to list stale runs", slog.String("error", err.Error()))
		return
	}
	for _, rec := range runs {
		if rec.Status.IsTerminal() {
			continue
		}
		now := time.Now()
		rec.Status = domain.RunStatusFailed
		rec.CompletedAt = &now
		rec.Error = "interrupted by restart"
		if err := q.manager.store.UpdateRun(rec); err != nil {
			q.logger.ErrorContext(ctx, "failed to close stale run",
				slog.String("run_id", rec.ID),
				slog.String("error", err.Error()))
			continue
		}
		q.logger.WarnContext(ctx, "closed stale run", slog.String("run_id", rec.ID))
	}
}
