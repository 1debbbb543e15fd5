package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"charmcli/internal/infrastructure"
	"charmcli/pkg/contracts/domain"

	"github.com/google/uuid"
)

// Manager orchestrates pipeline runs
type Manager struct {
	registry *Registry
	config   *Config
	store    RunStore
	tracer   *Tracer
	logger   *slog.Logger

	mu   sync.RWMutex
	runs map[string]*RunState
}

// ManagerOption customises a Manager
type ManagerOption func(*Manager)

// WithRunStore persists run history to store
func WithRunStore(store RunStore) ManagerOption {
	return func(m *Manager) { m.store = store }
}

// WithTracer instruments runs with tracer
func WithTracer(tracer *Tracer) ManagerOption {
	return func(m *Manager) { m.tracer = tracer }
}

// WithLogger sets the manager logger
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a run manager over registry
func NewManager(registry *Registry, config *Config, opts ...ManagerOption) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}

	m := &Manager{
		registry: registry,
		config:   config,
		runs:     make(map[string]*RunState),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = NewMemoryRunStore()
	}
	if m.tracer == nil {
		m.tracer = NewTracer(nil)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = infrastructure.WithComponent(m.logger, "operations")
	return m
}

// GetRegistry returns the step registry
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// Store returns the run store
func (m *Manager) Store() RunStore {
	return m.store
}

// Metrics returns the pipeline instruments, which may be nil
func (m *Manager) Metrics() *infrastructure.PipelineMetrics {
	return m.tracer.Metrics()
}

// Prepare resolves the steps of a request and records a pending run
func (m *Manager) Prepare(req RunRequest) (*RunState, []Step, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Step == "" {
		req.Step = StepAll
	}

	state := NewRunState(req.ID)
	state.Step = req.Step
	state.Participants = slices.Clone(req.Participants)
	state.Workers = req.Workers
	if state.Workers <= 0 {
		state.Workers = m.config.Workers
	}

	steps, err := m.resolveSteps(req.Step)
	if err != nil {
		return state, nil, err
	}
	for _, s := range steps {
		state.SetStep(s.ID(), NewStepState(s.ID(), s.Name()))
	}

	if err := m.store.CreateRun(state.Record()); err != nil {
		return state, nil, fmt.Errorf("failed to save run: %w", err)
	}
	return state, steps, nil
}

// Execute runs one step or the whole pipeline and waits for it to finish
func (m *Manager) Execute(ctx context.Context, req RunRequest) (*RunResponse, error) {
	state, steps, err := m.Prepare(req)
	if err != nil {
		m.logRunError(ctx, state.ID, err)
		state.Fail(err)
		return m.createResponse(state), err
	}
	return m.Run(ctx, state, steps)
}

// Run executes a prepared run
func (m *Manager) Run(ctx context.Context, state *RunState, steps []Step) (*RunResponse, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	state.SetContext(ContextKeyTraceID, infrastructure.GetTraceID(ctx))

	m.storeRun(state)
	defer m.removeRun(state.ID)

	ctx, span := m.tracer.TraceRun(ctx, state.ID, state.Step, len(state.Participants))
	defer m.tracer.EndRun(span, state)

	m.logRunStart(ctx, state)
	state.Start()
	m.persist(ctx, state)

	err := m.executeSequential(ctx, state, steps)
	switch {
	case err == nil:
		state.Complete()
	case ctx.Err() != nil:
		state.Cancel()
		state.mu.Lock()
		state.Error = err
		state.mu.Unlock()
	default:
		state.Fail(err)
	}
	m.persist(ctx, state)
	m.logRunComplete(ctx, state.ID, state.Duration(), string(state.GetStatus()))

	return m.createResponse(state), err
}

func (m *Manager) resolveSteps(stepID string) ([]Step, error) {
	if stepID == StepAll {
		steps, err := m.registry.GetDependencyOrder()
		if err != nil {
			return nil, fmt.Errorf("failed to get dependency order: %w", err)
		}
		return steps, nil
	}

	step, err := m.registry.Get(stepID)
	if err != nil {
		return nil, NewNotFoundError(stepID)
	}

	// a single step reads what earlier runs left on disk
	manifest := NewPipelineManifest()
	if err := manifest.Scan([]Step{step}); err != nil {
		return nil, err
	}
	if missing := manifest.Missing(step); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, req := range missing {
			names = append(names, req.Type)
		}
		return nil, NewDependencyError(stepID, strings.Join(step.GetDependencies(), ","),
			fmt.Sprintf("missing inputs: %s", strings.Join(names, ", ")))
	}
	return []Step{step}, nil
}

// executeSequential executes steps one by one in the given order
func (m *Manager) executeSequential(ctx context.Context, state *RunState, steps []Step) error {
	errs := &ErrorList{}

	for i, step := range steps {
		if ctx.Err() != nil {
			m.skipRemaining(state, steps[i:], "run cancelled")
			return NewCancellationError(step.ID())
		}

		stepState := state.GetStep(step.ID())
		if stepState.GetStatus() == StepStatusSkipped {
			m.logger.InfoContext(ctx, "step skipped",
				slog.String("run_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("reason", stepState.Message))
			continue
		}

		m.logger.InfoContext(ctx, "executing step",
			slog.String("run_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		err := m.executeStep(ctx, state, step)
		m.persist(ctx, state)
		if err == nil {
			continue
		}

		m.logStepError(ctx, state.ID, step.ID(), err)
		m.skipDependents(state, steps, step.ID())

		if GetErrorType(err) == ErrorTypeCancellation {
			m.skipRemaining(state, steps[i+1:], "run cancelled")
			return err
		}
		if !m.config.ContinueOnError {
			m.skipRemaining(state, steps[i+1:], fmt.Sprintf("step %s failed", step.ID()))
			m.persist(ctx, state)
			return err
		}
		errs.Add(WrapError(err, step.ID(), ""))
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// executeStep runs a single step with timeout and retry
func (m *Manager) executeStep(ctx context.Context, state *RunState, step Step) error {
	stepState := state.GetStep(step.ID())
	m.logStepStart(ctx, state.ID, step.ID())

	if err := m.checkDependencies(state, step); err != nil {
		stepState.Skip(fmt.Sprintf("dependencies not met: %v", err))
		return err
	}

	if err := step.Validate(state); err != nil {
		verr := NewValidationError(step.ID(), err.Error())
		stepState.Fail(verr)
		return verr
	}

	timeout := m.config.GetStepTimeout(step.ID())
	retry := m.config.RetryConfig
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		stepState.Start()

		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		stepCtx, span := m.tracer.TraceStep(stepCtx, state.ID, step.ID(), attempt)
		start := time.Now()
		err := step.Execute(stepCtx, state)
		duration := time.Since(start)
		m.tracer.EndStep(stepCtx, span, step.ID(), duration, err)
		deadline := errors.Is(stepCtx.Err(), context.DeadlineExceeded)
		cancel()

		if err == nil {
			stepState.Complete()
			m.logStepComplete(ctx, state.ID, step.ID(), duration)
			return nil
		}

		switch {
		case ctx.Err() != nil:
			err = NewCancellationError(step.ID())
		case deadline:
			err = NewTimeoutError(step.ID(), timeout.String())
		}
		lastErr = err

		if !IsRetryable(err) || attempt >= retry.MaxAttempts {
			break
		}

		delay := m.calculateRetryDelay(attempt, retry)
		m.logger.WarnContext(ctx, "step retry",
			slog.String("run_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", retry.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			lastErr = NewCancellationError(step.ID())
			stepState.Fail(lastErr)
			return lastErr
		}
	}

	stepState.Fail(lastErr)
	return WrapError(lastErr, step.ID(), "")
}

// checkDependencies verifies that dependencies inside this run completed.
// Dependencies outside the run were checked against the files on disk.
func (m *Manager) checkDependencies(state *RunState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStep(dep)
		if depState == nil {
			continue
		}
		if status := depState.GetStatus(); status != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep,
				fmt.Sprintf("dependency %s not completed (status: %s)", dep, status))
		}
	}
	return nil
}

// skipDependents marks every step that transitively depends on failedID as skipped
func (m *Manager) skipDependents(state *RunState, steps []Step, failedID string) {
	for _, step := range steps {
		if !slices.Contains(step.GetDependencies(), failedID) {
			continue
		}
		s := state.GetStep(step.ID())
		if s != nil && s.GetStatus() == StepStatusPending {
			s.Skip(fmt.Sprintf("dependency %s failed", failedID))
			m.skipDependents(state, steps, step.ID())
		}
	}
}

func (m *Manager) skipRemaining(state *RunState, steps []Step, reason string) {
	for _, step := range steps {
		s := state.GetStep(step.ID())
		if s != nil && s.GetStatus() == StepStatusPending {
			s.Skip(reason)
		}
	}
}

// calculateRetryDelay returns an exponential backoff capped at MaxDelay
func (m *Manager) calculateRetryDelay(attempt int, config RetryConfig) time.Duration {
	mult := config.Multiplier
	if mult < 1 {
		mult = 1
	}
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(mult, float64(attempt-1)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

func (m *Manager) persist(ctx context.Context, state *RunState) {
	if err := m.store.UpdateRun(state.Record()); err != nil {
		m.logger.WarnContext(ctx, "failed to persist run",
			slog.String("run_id", state.ID),
			slog.String("error", err.Error()))
	}
}

// createResponse creates a run response from state
func (m *Manager) createResponse(state *RunState) *RunResponse {
	resp := &RunResponse{
		ID:       state.ID,
		Status:   state.GetStatus(),
		Duration: state.Duration(),
		Steps:    state.Steps,
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	return resp
}

// GetRun returns the record of a run, live or persisted
func (m *Manager) GetRun(id string) (domain.RunRecord, error) {
	m.mu.RLock()
	state, ok := m.runs[id]
	m.mu.RUnlock()
	if ok {
		return state.Record(), nil
	}
	return m.store.GetRun(id)
}

// ListRuns returns persisted runs matching filter
func (m *Manager) ListRuns(filter RunFilter) ([]domain.RunRecord, error) {
	return m.store.ListRuns(filter)
}

// ActiveRuns returns the IDs of runs currently executing
func (m *Manager) ActiveRuns() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.runs))
	for id := range m.runs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (m *Manager) storeRun(state *RunState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[state.ID] = state
}

func (m *Manager) removeRun(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, id)
}
