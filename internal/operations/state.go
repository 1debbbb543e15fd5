package operations

import (
	"slices"
	"sync"
	"time"

	"charmcli/pkg/contracts/domain"
)

// RunState represents the complete state of a pipeline run
type RunState struct {
	mu sync.RWMutex

	ID           string           `json:"id"`
	Step         string           `json:"step"`
	Status       domain.RunStatus `json:"status"`
	Participants []string         `json:"participants,omitempty"`
	Workers      int              `json:"workers"`
	CreatedAt    time.Time        `json:"created_at"`
	StartTime    *time.Time       `json:"start_time,omitempty"`
	EndTime      *time.Time       `json:"end_time,omitempty"`

	Steps map[string]*StepState `json:"steps"`
	order []string

	// Context carries values between steps of the same run
	Context map[string]interface{} `json:"-"`

	Error error `json:"-"`
}

// NewRunState creates a new pending run
func NewRunState(id string) *RunState {
	return &RunState{
		ID:        id,
		Status:    domain.RunStatusPending,
		CreatedAt: time.Now(),
		Steps:     make(map[string]*StepState),
		Context:   make(map[string]interface{}),
	}
}

// Start marks the run as running
func (r *RunState) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.StartTime = &now
	r.Status = domain.RunStatusRunning
}

// Complete marks the run as completed
func (r *RunState) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = domain.RunStatusCompleted
}

// Fail marks the run as failed
func (r *RunState) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = domain.RunStatusFailed
	r.Error = err
}

// Cancel marks the run as cancelled
func (r *RunState) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = domain.RunStatusCancelled
}

// GetStatus returns the run status
func (r *RunState) GetStatus() domain.RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Status
}

// GetStep returns the state of a specific step
func (r *RunState) GetStep(stepID string) *StepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Steps[stepID]
}

// SetStep records the state of a step, keeping first-seen order
func (r *RunState) SetStep(stepID string, state *StepState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Steps[stepID]; !ok {
		r.order = append(r.order, stepID)
	}
	r.Steps[stepID] = state
}

// SetContext sets a value in the run context
func (r *RunState) SetContext(key string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Context[key] = value
}

// Duration returns the duration of the run
func (r *RunState) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.StartTime == nil {
		return 0
	}
	if r.EndTime != nil {
		return r.EndTime.Sub(*r.StartTime)
	}
	return time.Since(*r.StartTime)
}

// HasFailures returns true if any step has failed
func (r *RunState) HasFailures() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.Steps {
		if s.GetStatus() == StepStatusFailed {
			return true
		}
	}
	return false
}

// ranStep reports whether any of the given steps completed in this run
func (r *RunState) ranStep(ids ...string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range ids {
		if s, ok := r.Steps[id]; ok && s.GetStatus() == StepStatusCompleted {
			return true
		}
	}
	return false
}

// IsComplete returns true if no step is pending or active
func (r *RunState) IsComplete() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.Steps {
		switch s.GetStatus() {
		case StepStatusPending, StepStatusActive:
			return false
		}
	}
	return true
}

// Record converts the state into its persisted form
func (r *RunState) Record() domain.RunRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec := domain.RunRecord{
		ID:           r.ID,
		Step:         r.Step,
		Participants: slices.Clone(r.Participants),
		Workers:      r.Workers,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		StartedAt:    copyTime(r.StartTime),
		CompletedAt:  copyTime(r.EndTime),
		Steps:        make([]domain.StepRecord, 0, len(r.order)),
	}
	if r.Error != nil {
		rec.Error = r.Error.Error()
	}
	if traceID, ok := r.Context[ContextKeyTraceID].(string); ok {
		rec.TraceID = traceID
	}

	for _, id := range r.order {
		s := r.Steps[id]
		s.mu.RLock()
		sr := domain.StepRecord{
			ID:           s.ID,
			Name:         s.Name,
			Status:       string(s.Status),
			Participants: s.Participants,
			Skipped:      slices.Clone(s.Skipped),
			Outputs:      slices.Clone(s.Outputs),
		}
		if s.Error != nil {
			sr.Error = s.Error.Error()
		}
		if s.StartTime != nil && s.EndTime != nil {
			sr.Duration = s.EndTime.Sub(*s.StartTime)
		}
		s.mu.RUnlock()
		rec.Steps = append(rec.Steps, sr)
	}
	return rec
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
