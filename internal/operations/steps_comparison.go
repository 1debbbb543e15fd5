package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"charmcli/internal/comparison"
	"charmcli/internal/config"
	apperrors "charmcli/internal/errors"
	"charmcli/internal/exporter"
	"charmcli/internal/readers"
	"charmcli/pkg/contracts/domain"
)

// recordKey is the participant column of every per-participant result table
const recordKey = "ID"

func rhythmInputs(env *Env) []DataRequirement {
	f := env.Study.Files
	return []DataRequirement{
		{Type: "cr_model", Location: env.Paths.Circadian(f.CRModel)},
		{Type: "cr_non_parametric", Location: env.Paths.Circadian(f.CRNonParametric)},
	}
}

// loadMetrics indexes the stored cosinor and non-parametric results
func loadMetrics(env *Env) (*comparison.Metrics, error) {
	var fits []domain.CosinorFit
	if err := readers.ReadRecords(env.Paths.Circadian(env.Study.Files.CRModel), &fits); err != nil {
		return nil, err
	}
	var np []domain.NonParametric
	if err := readers.ReadRecords(env.Paths.Circadian(env.Study.Files.CRNonParametric), &np); err != nil {
		return nil, err
	}
	return comparison.NewMetrics(fits, np), nil
}

// CRComparisonStep compares the rhythm metrics of every sensor with the
// Actigraph reference
type CRComparisonStep struct {
	BaseStage
	env *Env
}

// NewCRComparisonStep creates the reference comparison step
func NewCRComparisonStep(env *Env) *CRComparisonStep {
	return &CRComparisonStep{
		BaseStage: NewBaseStage(StepIDCRComparison, StepNameCRComparison, []string{StepIDCosinor, StepIDNonParametric}),
		env:       env,
	}
}

// RequiredInputs returns the rhythm metric tables
func (s *CRComparisonStep) RequiredInputs() []DataRequirement {
	return rhythmInputs(s.env)
}

// ProducedOutputs returns the comparison table
func (s *CRComparisonStep) ProducedOutputs() []DataOutput {
	return []DataOutput{
		{Type: "cr_comparison", Location: s.env.Paths.Circadian(s.env.Study.Files.CRComparison)},
	}
}

// Execute runs the step
func (s *CRComparisonStep) Execute(ctx context.Context, state *RunState) error {
	env := s.env
	m, err := loadMetrics(env)
	if err != nil {
		return err
	}
	cols := env.Study.Columns
	rows := comparison.CompareWithReference(m, cols.Acti, cols.Tested())

	path := env.Paths.Circadian(env.Study.Files.CRComparison)
	if err := env.Writer.WriteRecords(path, &rows); err != nil {
		return err
	}
	env.Metrics.RecordRows(ctx, env.Study.Files.CRComparison, len(rows))
	state.GetStep(s.ID()).AddOutput(path)
	return nil
}

// ChronotypeStep relates the rhythm metrics to the MEQ score and compares
// the evening, intermediate and morning groups
type ChronotypeStep struct {
	BaseStage
	env *Env
}

// NewChronotypeStep creates the chronotype step
func NewChronotypeStep(env *Env) *ChronotypeStep {
	return &ChronotypeStep{
		BaseStage: NewBaseStage(StepIDChronotype, StepNameChronotype, []string{StepIDCosinor, StepIDNonParametric}),
		env:       env,
	}
}

// RequiredInputs returns the rhythm metric tables and the questionnaires
func (s *ChronotypeStep) RequiredInputs() []DataRequirement {
	f := s.env.Study.Files
	reqs := append(rhythmInputs(s.env),
		DataRequirement{Type: "meq_scores", Location: s.env.Paths.Questionnaire(f.MEQScores)})
	if f.Demographics != "" {
		reqs = append(reqs, DataRequirement{Type: "demographics", Location: s.env.Paths.Questionnaire(f.Demographics), Optional: true})
	}
	return reqs
}

// ProducedOutputs returns the correlation and group tables
func (s *ChronotypeStep) ProducedOutputs() []DataOutput {
	f := s.env.Study.Files
	return []DataOutput{
		{Type: "cr_meq_correlation", Location: s.env.Paths.Circadian(f.CRMEQCorrelation)},
		{Type: "group_comparison", Location: s.env.Paths.Circadian(f.GroupComparison)},
		{Type: "group_descriptives", Location: s.env.Paths.Circadian(f.GroupDescriptives)},
	}
}

// Validate requires the MEQ score table
func (s *ChronotypeStep) Validate(state *RunState) error {
	path := s.env.Paths.Questionnaire(s.env.Study.Files.MEQScores)
	if !config.FileExists(path) {
		return NewValidationError(s.ID(), fmt.Sprintf("MEQ scores not found at %s", path))
	}
	return nil
}

// Execute runs the step
func (s *ChronotypeStep) Execute(ctx context.Context, state *RunState) error {
	env := s.env
	names := env.Study.Files
	cols := env.Study.Columns
	stepState := state.GetStep(s.ID())

	m, err := loadMetrics(env)
	if err != nil {
		return err
	}
	meq, err := readers.ReadMEQ(env.Paths.Questionnaire(names.MEQScores))
	if err != nil {
		return err
	}

	var demographics []domain.Demographic
	if names.Demographics != "" {
		demographics, err = readers.ReadDemographics(env.Paths.Questionnaire(names.Demographics))
		if err != nil {
			if !apperrors.IsType(err, apperrors.ErrTypeNotFound) {
				return err
			}
			env.Logger.WarnContext(ctx, "no demographics, group descriptives leave age and gender empty")
		}
	}

	corr := comparison.CorrelateWithMEQ(m, meq, cols.Sensors())
	focus := comparison.FocusSensors(cols)
	groups := comparison.CompareGroups(m, meq, demographics, focus)
	describe := comparison.DescribeGroups(m, meq, demographics, focus)

	for _, out := range []struct {
		name    string
		records interface{}
		n       int
	}{
		{names.CRMEQCorrelation, &corr, len(corr)},
		{names.GroupComparison, &groups, len(groups)},
		{names.GroupDescriptives, &describe, len(describe)},
	} {
		path := env.Paths.Circadian(out.name)
		if err := env.Writer.WriteRecords(path, out.records); err != nil {
			return err
		}
		env.Metrics.RecordRows(ctx, out.name, out.n)
		stepState.AddOutput(path)
	}
	return nil
}

// SummaryStep gathers the result tables into one workbook
type SummaryStep struct {
	BaseStage
	env *Env
}

// NewSummaryStep creates the summary workbook step
func NewSummaryStep(env *Env) *SummaryStep {
	return &SummaryStep{
		BaseStage: NewBaseStage(StepIDSummary, StepNameSummary, []string{StepIDMissStats, StepIDCRComparison}),
		env:       env,
	}
}

// ProducedOutputs returns the workbook
func (s *SummaryStep) ProducedOutputs() []DataOutput {
	return []DataOutput{
		{Type: "summary_workbook", Location: s.env.Paths.Circadian(s.env.Study.Files.SummaryWorkbook)},
	}
}

// SummaryTables lists the result tables of a study by sheet name, in
// workbook order
func SummaryTables(env *Env) []struct{ Name, Path string } {
	f := env.Study.Files
	p := env.Paths
	return []struct{ Name, Path string }{
		{"Missing data", p.Stats(f.OverallMiss)},
		{"Activity comparison", filepath.Join(p.SensorDir, f.ACCompare)},
		{"Activity rm-corr", p.Stats(f.RMCorr)},
		{"HR activity correlation", p.Stats(f.HRActivityCorr)},
		{"Cosinor models", p.Circadian(f.CRModel)},
		{"Non-parametric", p.Circadian(f.CRNonParametric)},
		{"Participant comparison", p.Circadian(f.CRSubjectCompare)},
		{"Reference comparison", p.Circadian(f.CRComparison)},
		{"MEQ correlation", p.Circadian(f.CRMEQCorrelation)},
		{"Chronotype groups", p.Circadian(f.GroupComparison)},
		{"Chronotype descriptives", p.Circadian(f.GroupDescriptives)},
	}
}

// Execute runs the step
func (s *SummaryStep) Execute(ctx context.Context, state *RunState) error {
	env := s.env
	var sheets []exporter.Sheet
	for _, t := range SummaryTables(env) {
		tbl, err := readers.ReadTable(t.Path)
		if err != nil {
			env.Logger.InfoContext(ctx, "table left out of summary",
				slog.String("sheet", t.Name),
				slog.String("error", err.Error()))
			continue
		}
		sheets = append(sheets, exporter.Sheet{Name: t.Name, Table: tbl})
	}
	if len(sheets) == 0 {
		return apperrors.NewNotFoundError("result tables for the summary workbook")
	}

	path := env.Paths.Circadian(env.Study.Files.SummaryWorkbook)
	if err := env.Writer.WriteWorkbook(path, sheets); err != nil {
		return err
	}
	state.GetStep(s.ID()).AddOutput(path)
	return nil
}
