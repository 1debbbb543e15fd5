package operations

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DataRequirement is a file a step reads that an earlier step or the
// study itself provides
type DataRequirement struct {
	Type     string `json:"type"`
	Location string `json:"location"`
	Optional bool   `json:"optional"`
}

// DataOutput is a shared file a step writes
type DataOutput struct {
	Type     string `json:"type"`
	Location string `json:"location"`
}

// Step represents a single step of the pipeline
type Step interface {
	// ID returns the unique identifier for this Step
	ID() string

	// Name returns the human-readable name for this Step
	Name() string

	// Execute runs the Step with the given context and run state
	Execute(ctx context.Context, state *RunState) error

	// Validate checks if the Step can be executed with the current state
	Validate(state *RunState) error

	// GetDependencies returns the IDs of steps that must complete before this Step
	GetDependencies() []string

	// RequiredInputs returns the files this step reads
	RequiredInputs() []DataRequirement

	// ProducedOutputs returns the shared files this step writes
	ProducedOutputs() []DataOutput
}

// StepStatus represents the current status of a Step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState represents the runtime state of a Step
type StepState struct {
	mu           sync.RWMutex
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Status       StepStatus `json:"status"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Progress     float64    `json:"progress"`
	Message      string     `json:"message"`
	Error        error      `json:"-"`
	Participants int        `json:"participants"`
	Skipped      []string   `json:"skipped,omitempty"`
	Outputs      []string   `json:"outputs,omitempty"`
}

// NewStepState creates a new Step state with default values
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:     id,
		Name:   name,
		Status: StepStatusPending,
	}
}

// Start marks the Step as active and sets the start time
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
	s.Progress = 0
	s.Skipped = nil
	s.Outputs = nil
	s.Participants = 0
}

// Complete marks the Step as completed and sets the end time
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
	s.Progress = 100
}

// Fail marks the Step as failed with the given error
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Error = err
}

// Skip marks the Step as skipped with the given reason
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusSkipped
	s.Message = reason
}

// UpdateProgress updates the Step progress and message
func (s *StepState) UpdateProgress(progress float64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Progress = progress
	s.Message = message
}

// RecordParticipant counts a processed participant or remembers a skipped one
func (s *StepState) RecordParticipant(id string, skipped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if skipped {
		s.Skipped = append(s.Skipped, id)
		return
	}
	s.Participants++
}

// AddOutput remembers a file written by the step
func (s *StepState) AddOutput(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Outputs = append(s.Outputs, path)
}

// GetStatus returns the current status
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns the duration of the Step execution
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// BaseStage provides common functionality for Step implementations
type BaseStage struct {
	id           string
	name         string
	dependencies []string
}

// NewBaseStage creates a new base Step
func NewBaseStage(id, name string, dependencies []string) BaseStage {
	if dependencies == nil {
		dependencies = []string{}
	}
	return BaseStage{
		id:           id,
		name:         name,
		dependencies: dependencies,
	}
}

// ID returns the Step ID
func (b *BaseStage) ID() string {
	if b == nil {
		return ""
	}
	return b.id
}

// Name returns the Step name
func (b *BaseStage) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// GetDependencies returns the Step dependencies
func (b *BaseStage) GetDependencies() []string {
	if b == nil {
		return nil
	}
	return b.dependencies
}

// Validate provides a default validation that always passes
func (b *BaseStage) Validate(state *RunState) error {
	if b == nil {
		return fmt.Errorf("BaseStage is nil")
	}
	return nil
}

// RequiredInputs returns no requirements by default
func (b *BaseStage) RequiredInputs() []DataRequirement {
	return []DataRequirement{}
}

// ProducedOutputs returns no outputs by default
func (b *BaseStage) ProducedOutputs() []DataOutput {
	return []DataOutput{}
}
