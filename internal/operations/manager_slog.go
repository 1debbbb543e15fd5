package operations

import (
	"context"
	"log/slog"
	"time"
)

func (m *Manager) logRunStart(ctx context.Context, state *RunState) {
	m.logger.InfoContext(ctx, "run start",
		slog.String("run_id", state.ID),
		slog.String("step", state.Step),
		slog.Int("participants", len(state.Participants)),
		slog.Int("workers", state.Workers))
}

func (m *Manager) logRunComplete(ctx context.Context, runID string, duration time.Duration, status string) {
	m.logger.InfoContext(ctx, "run complete",
		slog.String("run_id", runID),
		slog.String("status", status),
		slog.Duration("duration", duration))
}

func (m *Manager) logRunError(ctx context.Context, runID string, err error) {
	errorMsg := "unknown error"
	if err != nil {
		errorMsg = err.Error()
	}
	m.logger.ErrorContext(ctx, "run error",
		slog.String("run_id", runID),
		slog.String("error", errorMsg))
}

func (m *Manager) logStepStart(ctx context.Context, runID, stepID string) {
	m.logger.InfoContext(ctx, "step start",
		slog.String("run_id", runID),
		slog.String("step", stepID))
}

func (m *Manager) logStepComplete(ctx context.Context, runID, stepID string, duration time.Duration) {
	m.logger.InfoContext(ctx, "step complete",
		slog.String("run_id", runID),
		slog.String("step", stepID),
		slog.Duration("duration", duration))
}

func (m *Manager) logStepError(ctx context.Context, runID, stepID string, err error) {
	errorMsg := "unknown error"
	if err != nil {
		errorMsg = err.Error()
	}
	m.logger.ErrorContext(ctx, "step error",
		slog.String("run_id", runID),
		slog.String("step", stepID),
		slog.String("error", errorMsg))
}
