package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"charmcli/internal/circadian"
	"charmcli/internal/config"
	apperrors "charmcli/internal/errors"
	"charmcli/internal/readers"
	"charmcli/internal/wear"
	"charmcli/pkg/contracts/domain"
)

// WearTimesStep derives the smartwatch wear windows of every participant
// from the battery log and the hourly export files
type WearTimesStep struct {
	BaseStage
	env *Env
}

// NewWearTimesStep creates the wear-times step
func NewWearTimesStep(env *Env) *WearTimesStep {
	return &WearTimesStep{
		BaseStage: NewBaseStage(StepIDWearTimes, StepNameWearTimes, nil),
		env:       env,
	}
}

// RequiredInputs returns the study period file
func (s *WearTimesStep) RequiredInputs() []DataRequirement {
	return []DataRequirement{
		{Type: "study_periods", Location: s.env.Paths.StudyPeriodFile},
	}
}

// ProducedOutputs returns the per-participant wear-time files
func (s *WearTimesStep) ProducedOutputs() []DataOutput {
	f := s.env.Study.Files
	return []DataOutput{
		{Type: "battery_times", Location: s.env.Paths.Wear("*", f.BatteryTimes)},
		{Type: "watch_acc_times", Location: s.env.Paths.Wear("*", f.WatchAccTimes)},
		{Type: "hr_times", Location: s.env.Paths.Wear("*", f.HRTimes)},
	}
}

// Execute runs the step
func (s *WearTimesStep) Execute(ctx context.Context, state *RunState) error {
	ids, err := s.env.Participants(state.Participants)
	if err != nil {
		return err
	}
	if _, err := s.env.StudyPeriods(); err != nil {
		return fmt.Errorf("failed to read study periods: %w", err)
	}

	_, _, err = ForEachParticipant(ctx, s.env, state, s.ID(), ids, s.participant)
	return err
}

func (s *WearTimesStep) participant(ctx context.Context, id string) (struct{}, error) {
	env := s.env
	files := env.Study.Files
	log := env.Logger.With(slog.String("step", s.ID()), slog.String("participant", id))

	period, err := env.StudyPeriod(id)
	if err != nil {
		return struct{}{}, err
	}
	if err := env.Paths.EnsureParticipant(id); err != nil {
		return struct{}{}, err
	}

	battery, err := env.Watch.BatteryFolder(env.Paths.BatteryDir(id), period.StartTime, period.EndTime)
	if err != nil {
		return struct{}{}, fmt.Errorf("battery log: %w", err)
	}
	if len(battery) == 0 {
		return struct{}{}, apperrors.NewNotFoundError(fmt.Sprintf("battery samples of %s in the study period", id))
	}

	var times wear.Times
	if env.Study.ChargingMethod == "status" {
		times = wear.ChargingByStatus(battery, period.StartTime, period.EndTime)
	} else {
		times = wear.ChargingByLevel(battery, period.StartTime, period.EndTime, wear.DefaultLevelParams())
	}
	wearing := times.Intervals(log)
	if len(wearing) == 0 {
		return struct{}{}, apperrors.NewInsufficientDataError(fmt.Sprintf("wear periods of %s", id), 0, 1)
	}
	if err := s.write(ctx, env.Paths.Wear(id, files.BatteryTimes), wearing); err != nil {
		return struct{}{}, err
	}

	clean := wear.TimesOf(wearing)
	first, last, _ := clean.Span()
	for _, device := range []struct {
		dir  string
		file string
	}{
		{env.Paths.WatchAccDir(id), files.WatchAccTimes},
		{env.Paths.HeartRateDir(id), files.HRTimes},
	} {
		hourly, err := env.HourlyFiles(device.dir)
		if err != nil {
			return struct{}{}, fmt.Errorf("hourly files in %s: %w", device.dir, err)
		}
		gaps := wear.NoFileIntervals(wear.MissingHours(first, last, hourly))
		windows := wear.Combine(clean, gaps)
		log.Debug("device wear windows",
			slog.String("device", filepath.Base(device.dir)),
			slog.Int("files", len(hourly)),
			slog.Int("gaps", len(gaps)),
			slog.Int("windows", len(windows)))

		if err := s.write(ctx, env.Paths.Wear(id, device.file), windows); err != nil {
			return struct{}{}, err
		}
	}
	return struct{}{}, nil
}

func (s *WearTimesStep) write(ctx context.Context, path string, intervals []domain.Interval) error {
	if err := s.env.Writer.WriteRecords(path, &intervals); err != nil {
		return err
	}
	s.env.Metrics.RecordRows(ctx, filepath.Base(path), len(intervals))
	return nil
}

// ActigraphStep extracts the reference activity counts, removes the
// Actigraph non-wear periods and derives sleep periods when none are given
type ActigraphStep struct {
	BaseStage
	env *Env
}

// NewActigraphStep creates the actigraph step
func NewActigraphStep(env *Env) *ActigraphStep {
	return &ActigraphStep{
		BaseStage: NewBaseStage(StepIDActigraph, StepNameActigraph, nil),
		env:       env,
	}
}

// RequiredInputs returns the study period file and the non-wear files
func (s *ActigraphStep) RequiredInputs() []DataRequirement {
	return []DataRequirement{
		{Type: "study_periods", Location: s.env.Paths.StudyPeriodFile},
		{Type: "acti_non_wear", Location: s.env.Paths.Wear("*", s.env.Study.Files.ActiNoWear), Optional: true},
	}
}

// ProducedOutputs returns the reference counts and the Actigraph miss table
func (s *ActigraphStep) ProducedOutputs() []DataOutput {
	f := s.env.Study.Files
	return []DataOutput{
		{Type: "acti_ac", Location: s.env.Paths.Sensor("*", f.ActiAC)},
		{Type: "acti_miss", Location: s.env.Paths.Stats(f.ActiMiss)},
	}
}

// Execute runs the step
func (s *ActigraphStep) Execute(ctx context.Context, state *RunState) error {
	ids, err := s.env.Participants(state.Participants)
	if err != nil {
		return err
	}

	miss, _, err := ForEachParticipant(ctx, s.env, state, s.ID(), ids, s.participant)
	if err != nil {
		return err
	}

	path := s.env.Paths.Stats(s.env.Study.Files.ActiMiss)
	if err := s.env.Writer.UpsertRecords(path, miss, recordKey, domain.LessID); err != nil {
		return err
	}
	state.GetStep(s.ID()).AddOutput(path)
	return nil
}

func (s *ActigraphStep) participant(ctx context.Context, id string) (domain.ActiMissRecord, error) {
	env := s.env
	files := env.Study.Files
	log := env.Logger.With(slog.String("step", s.ID()), slog.String("participant", id))

	period, err := env.StudyPeriod(id)
	if err != nil {
		return domain.ActiMissRecord{}, err
	}
	if err := env.Paths.EnsureParticipant(id); err != nil {
		return domain.ActiMissRecord{}, err
	}

	whole, err := readers.ReadActigraph(env.Paths.ActigraphFile(id), period.StartTime, period.EndTime)
	if err != nil {
		return domain.ActiMissRecord{}, err
	}
	if len(whole) == 0 {
		return domain.ActiMissRecord{}, apperrors.NewInsufficientDataError(fmt.Sprintf("Actigraph epochs of %s", id), 0, 1)
	}

	nonWear, err := readers.ReadNonWear(env.Paths.Wear(id, files.ActiNoWear))
	if err != nil {
		if !apperrors.IsType(err, apperrors.ErrTypeNotFound) {
			return domain.ActiMissRecord{}, err
		}
		log.Warn("no Actigraph non-wear file, keeping every epoch")
	}
	kept, pct := wear.RemoveNonWear(whole, nonWear)

	out := env.Paths.Sensor(id, files.ActiAC)
	if err := env.Writer.WriteRecords(out, &kept); err != nil {
		return domain.ActiMissRecord{}, err
	}
	env.Metrics.RecordRows(ctx, files.ActiAC, len(kept))

	if err := s.deriveSleep(id, whole, log); err != nil {
		return domain.ActiMissRecord{}, err
	}
	return domain.ActiMissRecord{ID: id, NoWear: pct}, nil
}

// deriveSleep scores the whole recording with Cole-Kripke when the study
// did not supply in-bed times for the participant
func (s *ActigraphStep) deriveSleep(id string, epochs []domain.ActigraphEpoch, log *slog.Logger) error {
	sleep := s.env.Study.Sleep
	path := s.env.Paths.Wear(id, s.env.Study.Files.SleepTimes)
	if !sleep.DeriveWhenMissing || config.FileExists(path) {
		return nil
	}

	params := circadian.DefaultSleepParams()
	if sleep.MinPeriod > 0 {
		params.MinPeriod = sleep.MinPeriod
	}
	if sleep.MaxWakeGap > 0 {
		params.MaxWakeGap = sleep.MaxWakeGap
	}
	periods := circadian.SleepPeriods(circadian.Score(epochs), params)
	log.Info("derived sleep periods", slog.Int("periods", len(periods)))
	return s.env.Writer.WriteRecords(path, &periods)
}
