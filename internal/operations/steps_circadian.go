package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"charmcli/internal/circadian"
	"charmcli/pkg/contracts/domain"
)

// circadianDeps are the steps whose sensor files the rhythm analyses read
var circadianDeps = []string{StepIDActigraph, StepIDActivity, StepIDCore, StepIDHeartRate}

func sensorInputs(env *Env) []DataRequirement {
	f := env.Study.Files
	return []DataRequirement{
		{Type: "acti_ac", Location: env.Paths.Sensor("*", f.ActiAC)},
		{Type: "ac", Location: env.Paths.Sensor("*", f.AC), Optional: true},
		{Type: "cbt", Location: env.Paths.Sensor("*", f.CBT), Optional: true},
		{Type: "hr", Location: env.Paths.Sensor("*", f.HR), Optional: true},
		{Type: "hrv", Location: env.Paths.Sensor("*", f.HRV), Optional: true},
	}
}

// CosinorStep fits a 24 hour cosinor model to every measurement of every
// participant
type CosinorStep struct {
	BaseStage
	env *Env
}

// NewCosinorStep creates the cosinor step
func NewCosinorStep(env *Env) *CosinorStep {
	return &CosinorStep{
		BaseStage: NewBaseStage(StepIDCosinor, StepNameCosinor, circadianDeps),
		env:       env,
	}
}

// RequiredInputs returns the sensor series
func (s *CosinorStep) RequiredInputs() []DataRequirement {
	return sensorInputs(s.env)
}

// ProducedOutputs returns the combined model table
func (s *CosinorStep) ProducedOutputs() []DataOutput {
	return []DataOutput{
		{Type: "cr_model", Location: s.env.Paths.Circadian(s.env.Study.Files.CRModel)},
	}
}

// Execute runs the step
func (s *CosinorStep) Execute(ctx context.Context, state *RunState) error {
	env := s.env
	ids, err := env.Participants(state.Participants)
	if err != nil {
		return err
	}
	if err := env.Paths.EnsureDirectories(); err != nil {
		return err
	}

	loader := circadian.NewLoader(env.Paths, env.Study, env.Logger)
	perParticipant, _, err := ForEachParticipant(ctx, env, state, s.ID(), ids, func(ctx context.Context, id string) ([]domain.CosinorFit, error) {
		measurements, err := loader.Load(id)
		if err != nil {
			return nil, err
		}

		var points []circadian.Point
		for _, m := range measurements {
			points = append(points, circadian.ScaleY(circadian.CosinorFormat(m.Label, m.Binned()))...)
		}
		fits, errs := circadian.FitGroup(points, circadian.DayPeriod)
		for _, fitErr := range errs {
			env.Logger.WarnContext(ctx, "cosinor fit failed",
				slog.String("participant", id),
				slog.String("error", fitErr.Error()))
		}
		if len(fits) == 0 {
			return nil, fmt.Errorf("no measurement of %s could be fitted: %w", id, errors.Join(errs...))
		}
		for i := range fits {
			fits[i].ID = id
		}

		if err := env.Writer.WriteRecords(env.Paths.CircadianFit(id), &fits); err != nil {
			return nil, err
		}
		return fits, nil
	})
	if err != nil {
		return err
	}

	var all []domain.CosinorFit
	for _, fits := range perParticipant {
		all = append(all, fits...)
	}
	path := env.Paths.Circadian(env.Study.Files.CRModel)
	if err := env.Writer.UpsertRecords(path, all, recordKey, domain.LessID); err != nil {
		return err
	}
	env.Metrics.RecordRows(ctx, env.Study.Files.CRModel, len(all))
	state.GetStep(s.ID()).AddOutput(path)
	return nil
}

// NonParametricStep computes IS, IV, M10, L5 and RA of every measurement
type NonParametricStep struct {
	BaseStage
	env *Env
}

// NewNonParametricStep creates the non-parametric step
func NewNonParametricStep(env *Env) *NonParametricStep {
	return &NonParametricStep{
		BaseStage: NewBaseStage(StepIDNonParametric, StepNameNonParametric, circadianDeps),
		env:       env,
	}
}

// RequiredInputs returns the sensor series
func (s *NonParametricStep) RequiredInputs() []DataRequirement {
	return sensorInputs(s.env)
}

// ProducedOutputs returns the non-parametric table
func (s *NonParametricStep) ProducedOutputs() []DataOutput {
	return []DataOutput{
		{Type: "cr_non_parametric", Location: s.env.Paths.Circadian(s.env.Study.Files.CRNonParametric)},
	}
}

// Execute runs the step
func (s *NonParametricStep) Execute(ctx context.Context, state *RunState) error {
	env := s.env
	ids, err := env.Participants(state.Participants)
	if err != nil {
		return err
	}
	if err := env.Paths.EnsureDirectories(); err != nil {
		return err
	}

	loader := circadian.NewLoader(env.Paths, env.Study, env.Logger)
	perParticipant, _, err := ForEachParticipant(ctx, env, state, s.ID(), ids, func(ctx context.Context, id string) ([]domain.NonParametric, error) {
		measurements, err := loader.Load(id)
		if err != nil {
			return nil, err
		}
		out := make([]domain.NonParametric, 0, len(measurements))
		for _, m := range measurements {
			out = append(out, circadian.NonParametric(id, m.Label, circadian.ScaleSeries(m.Sorted())))
		}
		return out, nil
	})
	if err != nil {
		return err
	}

	var all []domain.NonParametric
	for _, rows := range perParticipant {
		all = append(all, rows...)
	}
	path := env.Paths.Circadian(env.Study.Files.CRNonParametric)
	if err := env.Writer.UpsertRecords(path, all, recordKey, domain.LessID); err != nil {
		return err
	}
	env.Metrics.RecordRows(ctx, env.Study.Files.CRNonParametric, len(all))
	state.GetStep(s.ID()).AddOutput(path)
	return nil
}

// SubjectComparisonStep compares the rhythm of one measurement between the
// configured participants
type SubjectComparisonStep struct {
	BaseStage
	env *Env
}

// NewSubjectComparisonStep creates the participant comparison step
func NewSubjectComparisonStep(env *Env) *SubjectComparisonStep {
	return &SubjectComparisonStep{
		BaseStage: NewBaseStage(StepIDSubjectComparison, StepNameSubjectComparison, circadianDeps),
		env:       env,
	}
}

// RequiredInputs returns the sensor series
func (s *SubjectComparisonStep) RequiredInputs() []DataRequirement {
	return sensorInputs(s.env)
}

// ProducedOutputs returns the comparison table
func (s *SubjectComparisonStep) ProducedOutputs() []DataOutput {
	return []DataOutput{
		{Type: "cr_subject_compare", Location: s.env.Paths.Circadian(s.env.Study.Files.CRSubjectCompare)},
	}
}

// Validate requires at least two participants and a measurement
func (s *SubjectComparisonStep) Validate(state *RunState) error {
	subjects := s.env.Study.Subjects
	if len(subjects.Compare) < 2 {
		return NewValidationError(s.ID(), "at least two participants must be configured for comparison")
	}
	if subjects.Measure == "" {
		return NewValidationError(s.ID(), "no measurement configured for comparison")
	}
	return nil
}

// Execute runs the step
func (s *SubjectComparisonStep) Execute(ctx context.Context, state *RunState) error {
	env := s.env
	subjects := env.Study.Subjects
	ids, err := env.Participants(subjects.Compare)
	if err != nil {
		return err
	}
	if err := env.Paths.EnsureDirectories(); err != nil {
		return err
	}

	loader := circadian.NewLoader(env.Paths, env.Study, env.Logger)
	loaded, _, err := ForEachParticipant(ctx, env, state, s.ID(), ids, func(ctx context.Context, id string) ([]circadian.Point, error) {
		measurements, err := loader.Load(id)
		if err != nil {
			return nil, err
		}
		for _, m := range measurements {
			if m.Label == subjects.Measure {
				return circadian.CosinorFormat(id, m.Binned()), nil
			}
		}
		return nil, fmt.Errorf("participant %s has no %s measurement", id, subjects.Measure)
	})
	if err != nil {
		return err
	}

	var points []circadian.Point
	for _, p := range loaded {
		points = append(points, p...)
	}
	labels := circadian.Labels(points)
	if len(labels) < 2 {
		return fmt.Errorf("%s: need two participants with %s data, have %d", s.ID(), subjects.Measure, len(labels))
	}

	var rows []domain.CosinorPairComparison
	for i := 0; i < len(labels); i++ {
		for j := i + 1; j < len(labels); j++ {
			cmp, err := circadian.ComparePair(points, labels[i], labels[j], circadian.DayPeriod)
			if err != nil {
				env.Logger.WarnContext(ctx, "participant comparison failed", slog.String("error", err.Error()))
				continue
			}
			rows = append(rows, cmp)
		}
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s: no pair of participants could be compared", s.ID())
	}

	path := env.Paths.Circadian(env.Study.Files.CRSubjectCompare)
	if err := env.Writer.WriteRecords(path, &rows); err != nil {
		return err
	}
	state.GetStep(s.ID()).AddOutput(path)
	return nil
}
