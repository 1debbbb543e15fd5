package operations

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"charmcli/internal/infrastructure"
)

// ParticipantFunc processes one participant
type ParticipantFunc[T any] func(ctx context.Context, id string) (T, error)

// ForEachParticipant runs fn for every participant with at most
// state.Workers calls in flight. A participant whose call fails is logged
// and skipped. Results keep the order of ids; skipped participants are
// returned separately. The step fails when the context is cancelled or no
// participant succeeds.
func ForEachParticipant[T any](ctx context.Context, env *Env, state *RunState, stepID string, ids []string, fn ParticipantFunc[T]) ([]T, []string, error) {
	if len(ids) == 0 {
		return nil, nil, NewValidationError(stepID, "no participants to process")
	}

	stepState := state.GetStep(stepID)
	tracker := NewProgressTracker(stepID, len(ids))
	logger := infrastructure.WithComponent(env.Logger, stepID)

	results := make([]T, len(ids))
	ok := make([]bool, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if state.Workers > 0 {
		g.SetLimit(state.Workers)
	}

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			pctx := infrastructure.WithParticipant(gctx, id)
			res, err := fn(pctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.WarnContext(pctx, "participant skipped",
					slog.String("participant", id),
					slog.String("error", err.Error()))
				if stepState != nil {
					stepState.RecordParticipant(id, true)
				}
				env.Metrics.RecordParticipant(pctx, stepID, true)
			} else {
				results[i], ok[i] = res, true
				if stepState != nil {
					stepState.RecordParticipant(id, false)
				}
				env.Metrics.RecordParticipant(pctx, stepID, false)
			}

			tracker.Increment(fmt.Sprintf("participant %s", id))
			if stepState != nil {
				done, total, pct, _ := tracker.GetProgress()
				stepState.UpdateProgress(pct, fmt.Sprintf("%d of %d participants, ETA %s", done, total, tracker.GetETA()))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var out []T
	var skipped []string
	for i, id := range ids {
		if ok[i] {
			out = append(out, results[i])
		} else {
			skipped = append(skipped, id)
		}
	}
	if len(out) == 0 {
		return nil, skipped, fmt.Errorf("%s: all %d participants failed", stepID, len(ids))
	}
	return out, skipped, nil
}
