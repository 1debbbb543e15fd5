package activity

import (
	"context"
	"log/slog"
	"time"

	"charmcli/pkg/contracts/domain"
)

// AccelSource reads smartwatch acceleration between two times
type AccelSource interface {
	AccelFolder(dir string, start, end time.Time) ([]domain.AccelSample, error)
}

// WatchCounts computes counts for every wear window of the smartwatch and
// concatenates them. Windows that cannot be read or hold no samples are
// logged and skipped.
func WatchCounts(ctx context.Context, src AccelSource, dir string, windows []domain.Interval, opts CountOptions, logger *slog.Logger) ([]domain.ActigraphEpoch, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var all []domain.ActigraphEpoch
	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log := logger.With(
			slog.Int("window", i+1),
			slog.Int("windows", len(windows)),
			slog.String("start", domain.FormatTime(w.Start.Time)),
			slog.String("end", domain.FormatTime(w.End.Time)))

		samples, err := src.AccelFolder(dir, w.Start.Time, w.End.Time)
		if err != nil {
			log.Warn("skipping wear window", slog.String("error", err.Error()))
			continue
		}
		if len(samples) == 0 {
			log.Debug("wear window has no acceleration")
			continue
		}

		counts, err := Counts(samples, opts)
		if err != nil {
			return nil, err
		}
		log.Debug("computed counts", slog.Int("samples", len(samples)), slog.Int("epochs", len(counts)))
		all = append(all, counts...)
	}
	return all, nil
}
