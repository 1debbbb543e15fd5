package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/go-gota/gota/dataframe"

	"charmcli/internal/activity"
	"charmcli/internal/cardiac"
	"charmcli/internal/comparison"
	"charmcli/internal/config"
	apperrors "charmcli/internal/errors"
	"charmcli/internal/files"
	"charmcli/internal/readers"
	"charmcli/internal/temperature"
	"charmcli/pkg/contracts/domain"
)

// ActivityStep computes smartwatch activity counts inside the wear windows,
// merges them with the Actigraph counts and removes non-wear minutes
type ActivityStep struct {
	BaseStage
	env *Env
}

// NewActivityStep creates the activity step
func NewActivityStep(env *Env) *ActivityStep {
	return &ActivityStep{
		BaseStage: NewBaseStage(StepIDActivity, StepNameActivity, []string{StepIDWearTimes, StepIDActigraph}),
		env:       env,
	}
}

// RequiredInputs returns the wear windows and the sleep periods
func (s *ActivityStep) RequiredInputs() []DataRequirement {
	f := s.env.Study.Files
	return []DataRequirement{
		{Type: "watch_acc_times", Location: s.env.Paths.Wear("*", f.WatchAccTimes)},
		{Type: "sleep_times", Location: s.env.Paths.Wear("*", f.SleepTimes), Optional: true},
	}
}

// ProducedOutputs returns the cleaned count pairs and the comparison tables
func (s *ActivityStep) ProducedOutputs() []DataOutput {
	f := s.env.Study.Files
	return []DataOutput{
		{Type: "ac", Location: s.env.Paths.Sensor("*", f.AC)},
		{Type: "ac_compare", Location: s.compareFile()},
		{Type: "watch_miss", Location: s.env.Paths.Stats(f.WatchMiss)},
		{Type: "rm_corr", Location: s.env.Paths.Stats(f.RMCorr)},
	}
}

func (s *ActivityStep) compareFile() string {
	return filepath.Join(s.env.Paths.SensorDir, s.env.Study.Files.ACCompare)
}

type activityResult struct {
	id      string
	compare domain.ACComparison
	miss    domain.WatchMissRecord
	pairs   []domain.ActivityPair
}

// Execute runs the step
func (s *ActivityStep) Execute(ctx context.Context, state *RunState) error {
	env := s.env
	ids, err := env.Participants(state.Participants)
	if err != nil {
		return err
	}

	results, _, err := ForEachParticipant(ctx, env, state, s.ID(), ids, s.participant)
	if err != nil {
		return err
	}

	compares := make([]domain.ACComparison, len(results))
	misses := make([]domain.WatchMissRecord, len(results))
	byParticipant := make(map[string][]domain.ActivityPair, len(results))
	for i, r := range results {
		compares[i], misses[i] = r.compare, r.miss
		byParticipant[r.id] = r.pairs
	}

	stepState := state.GetStep(s.ID())
	if err := env.Writer.UpsertRecords(s.compareFile(), compares, recordKey, domain.LessID); err != nil {
		return err
	}
	stepState.AddOutput(s.compareFile())

	missPath := env.Paths.Stats(env.Study.Files.WatchMiss)
	if err := env.Writer.UpsertRecords(missPath, misses, recordKey, domain.LessID); err != nil {
		return err
	}
	stepState.AddOutput(missPath)

	s.addStoredPairs(byParticipant)
	rm := []domain.RMCorr{activity.RepeatedMeasures(byParticipant)}
	rmPath := env.Paths.Stats(env.Study.Files.RMCorr)
	if err := env.Writer.WriteRecords(rmPath, &rm); err != nil {
		return err
	}
	stepState.AddOutput(rmPath)
	return nil
}

// addStoredPairs completes the repeated-measures input with participants
// cleaned by earlier runs
func (s *ActivityStep) addStoredPairs(byParticipant map[string][]domain.ActivityPair) {
	env := s.env
	cols := env.Study.Columns
	matches, err := filepath.Glob(env.Paths.Sensor("*", env.Study.Files.AC))
	if err != nil {
		return
	}
	for _, path := range matches {
		id := filepath.Base(filepath.Dir(path))
		if _, ok := byParticipant[id]; ok {
			continue
		}
		tbl, err := readers.ReadTable(path)
		if err != nil {
			env.Logger.Warn("skipping stored counts", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		pairs, err := activity.PairsFromTable(tbl, cols.Time, cols.Acti, cols.Watch)
		if err != nil {
			env.Logger.Warn("skipping stored counts", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		byParticipant[id] = pairs
	}
}

func (s *ActivityStep) participant(ctx context.Context, id string) (activityResult, error) {
	env := s.env
	names := env.Study.Files
	cols := env.Study.Columns
	log := env.Logger.With(slog.String("step", s.ID()), slog.String("participant", id))

	windows, err := readers.ReadIntervals(env.Paths.Wear(id, names.WatchAccTimes))
	if err != nil {
		return activityResult{}, err
	}
	if len(windows) == 0 {
		return activityResult{}, apperrors.NewInsufficientDataError(fmt.Sprintf("wear windows of %s", id), 0, 1)
	}

	watch, err := s.watchCounts(ctx, id, windows, log)
	if err != nil {
		return activityResult{}, err
	}

	acti, err := readers.ReadActigraph(env.Paths.ActigraphFile(id), windows[0].Start.Time, windows[len(windows)-1].End.Time)
	if err != nil {
		return activityResult{}, err
	}
	if len(acti) == 0 {
		return activityResult{}, apperrors.NewInsufficientDataError(fmt.Sprintf("Actigraph epochs of %s", id), 0, 1)
	}

	sleep, err := readers.ReadSleepPeriods(env.Paths.Wear(id, names.SleepTimes))
	if err != nil {
		if !apperrors.IsType(err, apperrors.ErrTypeNotFound) {
			return activityResult{}, err
		}
		log.Warn("no sleep periods, night minutes are cleaned like day minutes")
	}

	cleaned := activity.Clean(len(acti), activity.Merge(acti, watch), sleep)
	log.Info("cleaned activity counts",
		slog.Float64("charging_pct", cleaned.Charging),
		slog.Float64("both_no_wear_pct", cleaned.BothNoWear),
		slog.Float64("single_no_wear_pct", cleaned.SingleNoWear),
		slog.Int("minutes", len(cleaned.Pairs)))
	if len(cleaned.Pairs) < 2 {
		return activityResult{}, apperrors.NewInsufficientDataError(fmt.Sprintf("cleaned minutes of %s", id), len(cleaned.Pairs), 2)
	}

	tbl := activity.PairsTable(cleaned.Pairs, cols.Time, cols.Acti, cols.Watch)
	if err := env.Writer.WriteTable(env.Paths.Sensor(id, names.AC), tbl); err != nil {
		return activityResult{}, err
	}
	env.Metrics.RecordRows(ctx, names.AC, tbl.Len())

	return activityResult{
		id:      id,
		compare: activity.Compare(id, cleaned.Pairs),
		miss: domain.WatchMissRecord{
			ID:           id,
			NoWear:       cleaned.Charging,
			BothNoWear:   cleaned.BothNoWear,
			SingleNoWear: cleaned.SingleNoWear,
		},
		pairs: cleaned.Pairs,
	}, nil
}

// watchCounts reuses the uncleaned smartwatch counts of an earlier run or
// computes them from the raw acceleration
func (s *ActivityStep) watchCounts(ctx context.Context, id string, windows []domain.Interval, log *slog.Logger) ([]domain.ActigraphEpoch, error) {
	env := s.env
	path := env.Paths.Sensor(id, env.Study.Files.WatchACUncleaned)
	if config.FileExists(path) {
		log.Info("reusing smartwatch counts", slog.String("path", path))
		return readers.ReadActigraphEpochs(path)
	}

	counts, err := activity.WatchCounts(ctx, env.Watch, env.Paths.WatchAccDir(id), windows, activity.DefaultCountOptions(), log)
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, apperrors.NewInsufficientDataError(fmt.Sprintf("smartwatch counts of %s", id), 0, 1)
	}
	if err := env.Writer.WriteRecords(path, &counts); err != nil {
		return nil, err
	}
	env.Metrics.RecordRows(ctx, env.Study.Files.WatchACUncleaned, len(counts))
	return counts, nil
}

// CoreStep cleans the core body temperature recordings
type CoreStep struct {
	BaseStage
	env *Env
}

// NewCoreStep creates the core temperature step
func NewCoreStep(env *Env) *CoreStep {
	return &CoreStep{
		BaseStage: NewBaseStage(StepIDCore, StepNameCore, nil),
		env:       env,
	}
}

// RequiredInputs returns the study period file
func (s *CoreStep) RequiredInputs() []DataRequirement {
	return []DataRequirement{
		{Type: "study_periods", Location: s.env.Paths.StudyPeriodFile},
	}
}

// ProducedOutputs returns the temperature series and the CORE miss table
func (s *CoreStep) ProducedOutputs() []DataOutput {
	f := s.env.Study.Files
	return []DataOutput{
		{Type: "cbt", Location: s.env.Paths.Sensor("*", f.CBT)},
		{Type: "cbt_miss", Location: s.env.Paths.Stats(f.CBTMiss)},
	}
}

// Execute runs the step
func (s *CoreStep) Execute(ctx context.Context, state *RunState) error {
	env := s.env
	ids, err := env.Participants(state.Participants)
	if err != nil {
		return err
	}

	miss, _, err := ForEachParticipant(ctx, env, state, s.ID(), ids, func(ctx context.Context, id string) (domain.CoreMissRecord, error) {
		period, err := env.StudyPeriod(id)
		if err != nil {
			return domain.CoreMissRecord{}, err
		}
		if err := env.Paths.EnsureParticipant(id); err != nil {
			return domain.CoreMissRecord{}, err
		}
		res, err := temperature.Process(env.Paths.CoreFile(id), period)
		if err != nil {
			return domain.CoreMissRecord{}, err
		}
		if err := env.Writer.WriteRecords(env.Paths.Sensor(id, env.Study.Files.CBT), &res.Samples); err != nil {
			return domain.CoreMissRecord{}, err
		}
		env.Metrics.RecordRows(ctx, env.Study.Files.CBT, len(res.Samples))
		return domain.CoreMissRecord{ID: id, NoWear: res.NoWear}, nil
	})
	if err != nil {
		return err
	}

	path := env.Paths.Stats(env.Study.Files.CBTMiss)
	if err := env.Writer.UpsertRecords(path, miss, recordKey, domain.LessID); err != nil {
		return err
	}
	state.GetStep(s.ID()).AddOutput(path)
	return nil
}

// HeartRateStep collects heart rate, computes variability windows and
// correlates heart rate with the cleaned activity counts
type HeartRateStep struct {
	BaseStage
	env *Env
}

// NewHeartRateStep creates the heart rate step
func NewHeartRateStep(env *Env) *HeartRateStep {
	return &HeartRateStep{
		BaseStage: NewBaseStage(StepIDHeartRate, StepNameHeartRate, []string{StepIDActivity}),
		env:       env,
	}
}

// RequiredInputs returns the cleaned activity pairs
func (s *HeartRateStep) RequiredInputs() []DataRequirement {
	return []DataRequirement{
		{Type: "ac", Location: s.env.Paths.Sensor("*", s.env.Study.Files.AC)},
	}
}

// ProducedOutputs returns the heart rate series and the correlation table
func (s *HeartRateStep) ProducedOutputs() []DataOutput {
	f := s.env.Study.Files
	return []DataOutput{
		{Type: "hr", Location: s.env.Paths.Sensor("*", f.HR)},
		{Type: "hrv", Location: s.env.Paths.Sensor("*", f.HRV)},
		{Type: "hr_activity_corr", Location: s.env.Paths.Stats(f.HRActivityCorr)},
	}
}

// Execute runs the step
func (s *HeartRateStep) Execute(ctx context.Context, state *RunState) error {
	env := s.env
	ids, err := env.Participants(state.Participants)
	if err != nil {
		return err
	}

	corr, _, err := ForEachParticipant(ctx, env, state, s.ID(), ids, s.participant)
	if err != nil {
		return err
	}

	path := env.Paths.Stats(env.Study.Files.HRActivityCorr)
	if err := env.Writer.UpsertRecords(path, corr, recordKey, domain.LessID); err != nil {
		return err
	}
	state.GetStep(s.ID()).AddOutput(path)
	return nil
}

func (s *HeartRateStep) participant(ctx context.Context, id string) (domain.HRActivityCorr, error) {
	env := s.env
	names := env.Study.Files
	cols := env.Study.Columns

	if err := env.Paths.EnsureParticipant(id); err != nil {
		return domain.HRActivityCorr{}, err
	}
	hr, err := env.Watch.HeartRateFolder(env.Paths.HeartRateDir(id))
	if err != nil {
		return domain.HRActivityCorr{}, err
	}
	if len(hr) == 0 {
		return domain.HRActivityCorr{}, apperrors.NewInsufficientDataError(fmt.Sprintf("heart rate samples of %s", id), 0, 1)
	}
	if err := env.Writer.WriteRecords(env.Paths.Sensor(id, names.HR), &hr); err != nil {
		return domain.HRActivityCorr{}, err
	}
	env.Metrics.RecordRows(ctx, names.HR, len(hr))

	hrv := cardiac.HRVTable(cardiac.HRV(hr), cols)
	if err := env.Writer.WriteTable(env.Paths.Sensor(id, names.HRV), hrv); err != nil {
		return domain.HRActivityCorr{}, err
	}
	env.Metrics.RecordRows(ctx, names.HRV, hrv.Len())

	tbl, err := readers.ReadTable(env.Paths.Sensor(id, names.AC))
	if err != nil {
		return domain.HRActivityCorr{}, err
	}
	pairs, err := activity.PairsFromTable(tbl, cols.Time, cols.Acti, cols.Watch)
	if err != nil {
		return domain.HRActivityCorr{}, err
	}

	corr, scaled := cardiac.ActivityCorrelation(id, pairs, hr)
	if err := env.Writer.WriteTable(env.Paths.Sensor(id, names.HRActivityScaled), cardiac.ScaledTable(scaled, cols)); err != nil {
		return domain.HRActivityCorr{}, err
	}
	return corr, nil
}

// MissStatsStep merges the per-device miss tables
type MissStatsStep struct {
	BaseStage
	env *Env
}

// NewMissStatsStep creates the miss statistics step
func NewMissStatsStep(env *Env) *MissStatsStep {
	return &MissStatsStep{
		BaseStage: NewBaseStage(StepIDMissStats, StepNameMissStats, []string{StepIDActigraph, StepIDActivity, StepIDCore}),
		env:       env,
	}
}

// RequiredInputs returns the three device miss tables
func (s *MissStatsStep) RequiredInputs() []DataRequirement {
	f := s.env.Study.Files
	return []DataRequirement{
		{Type: "acti_miss", Location: s.env.Paths.Stats(f.ActiMiss)},
		{Type: "watch_miss", Location: s.env.Paths.Stats(f.WatchMiss)},
		{Type: "cbt_miss", Location: s.env.Paths.Stats(f.CBTMiss)},
	}
}

// ProducedOutputs returns the merged miss table
func (s *MissStatsStep) ProducedOutputs() []DataOutput {
	return []DataOutput{
		{Type: "overall_miss", Location: s.env.Paths.Stats(s.env.Study.Files.OverallMiss)},
	}
}

// Execute runs the step
func (s *MissStatsStep) Execute(ctx context.Context, state *RunState) error {
	env := s.env
	path := env.Paths.Stats(env.Study.Files.OverallMiss)

	var df dataframe.DataFrame
	var err error
	if !env.Pipeline.RegenerateMiss && config.FileExists(path) && !state.ranStep(StepIDActigraph, StepIDActivity, StepIDCore) {
		env.Logger.InfoContext(ctx, "reusing overall miss table", slog.String("path", path))
		df, err = readFrame(path)
	} else {
		df, err = s.merge()
		if err == nil {
			tbl := comparison.MergedTable(df)
			if err = env.Writer.WriteTable(path, tbl); err == nil {
				env.Metrics.RecordRows(ctx, env.Study.Files.OverallMiss, tbl.Len())
				state.GetStep(s.ID()).AddOutput(path)
			}
		}
	}
	if err != nil {
		return err
	}

	desc := comparison.DescribeMiss(df)
	for _, row := range desc.Rows {
		env.Logger.InfoContext(ctx, "missing data",
			slog.String("statistic", row[0]),
			slog.String(comparison.MissActigraph, row[1]),
			slog.String(comparison.MissSmartwatch, row[2]),
			slog.String(comparison.MissCore, row[3]))
	}
	return nil
}

func (s *MissStatsStep) merge() (dataframe.DataFrame, error) {
	f := s.env.Study.Files
	var acti []domain.ActiMissRecord
	var watch []domain.WatchMissRecord
	var core []domain.CoreMissRecord
	if err := readers.ReadRecords(s.env.Paths.Stats(f.ActiMiss), &acti); err != nil {
		return dataframe.DataFrame{}, err
	}
	if err := readers.ReadRecords(s.env.Paths.Stats(f.WatchMiss), &watch); err != nil {
		return dataframe.DataFrame{}, err
	}
	if err := readers.ReadRecords(s.env.Paths.Stats(f.CBTMiss), &core); err != nil {
		return dataframe.DataFrame{}, err
	}
	return comparison.MergeMiss(acti, watch, core)
}

func readFrame(path string) (dataframe.DataFrame, error) {
	r, err := files.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer r.Close()

	df := dataframe.ReadCSV(r, dataframe.DetectTypes(false), dataframe.HasHeader(true))
	if df.Err != nil {
		return df, apperrors.NewParsingError(fmt.Sprintf("failed to read %s", path), df.Err)
	}
	for _, col := range []string{comparison.MissActigraph, comparison.MissSmartwatch, comparison.MissCore} {
		if !slices.Contains(df.Names(), col) {
			return df, apperrors.NewParsingError(fmt.Sprintf("%s has no %s column", path, col), nil)
		}
	}
	return df, nil
}
