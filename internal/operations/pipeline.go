package operations

import (
	"fmt"
)

// Steps returns every analysis step of the study in pipeline order
func Steps(env *Env) []Step {
	return []Step{
		NewWearTimesStep(env),
		NewActigraphStep(env),
		NewActivityStep(env),
		NewCoreStep(env),
		NewHeartRateStep(env),
		NewMissStatsStep(env),
		NewCosinorStep(env),
		NewNonParametricStep(env),
		NewSubjectComparisonStep(env),
		NewCRComparisonStep(env),
		NewChronotypeStep(env),
		NewSummaryStep(env),
	}
}

// NewPipeline registers the analysis steps and checks that their
// dependencies form a valid order
func NewPipeline(env *Env) (*Registry, error) {
	registry := NewRegistry()
	for _, step := range Steps(env) {
		if err := registry.Register(step); err != nil {
			return nil, fmt.Errorf("failed to register step %s: %w", step.ID(), err)
		}
	}
	if err := registry.ValidateDependencies(); err != nil {
		return nil, err
	}
	return registry, nil
}

// NewPipelineManager wires the analysis steps into a Manager configured
// from the pipeline settings of env
func NewPipelineManager(env *Env, store RunStore) (*Manager, error) {
	registry, err := NewPipeline(env)
	if err != nil {
		return nil, err
	}

	cfg := ConfigFromPipeline(env.Pipeline)
	return NewManager(registry, cfg,
		WithRunStore(store),
		WithTracer(NewTracer(env.Metrics)),
		WithLogger(env.Logger),
	), nil
}
