package domain

import (
	"time"
)

// RunStatus represents the state of a pipeline run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// IsTerminal reports whether the run can no longer change
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed || s == RunStatusCancelled
}

// RunRecord is the persisted history of one pipeline run
type RunRecord struct {
	ID           string       `json:"id" msgpack:"id"`
	Step         string       `json:"step" msgpack:"step"`
	Participants []string     `json:"participants,omitempty" msgpack:"participants,omitempty"`
	Workers      int          `json:"workers" msgpack:"workers"`
	Status       RunStatus    `json:"status" msgpack:"status"`
	CreatedAt    time.Time    `json:"created_at" msgpack:"created_at"`
	StartedAt    *time.Time   `json:"started_at,omitempty" msgpack:"started_at,omitempty"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty" msgpack:"completed_at,omitempty"`
	Steps        []StepRecord `json:"steps,omitempty" msgpack:"steps,omitempty"`
	Error        string       `json:"error,omitempty" msgpack:"error,omitempty"`
	TraceID      string       `json:"trace_id,omitempty" msgpack:"trace_id,omitempty"`
}

// Duration of the run so far
func (r RunRecord) Duration() time.Duration {
	if r.StartedAt == nil {
		return 0
	}
	if r.CompletedAt != nil {
		return r.CompletedAt.Sub(*r.StartedAt)
	}
	return time.Since(*r.StartedAt)
}

// StepRecord is the outcome of one step inside a run
type StepRecord struct {
	ID           string        `json:"id" msgpack:"id"`
	Name         string        `json:"name" msgpack:"name"`
	Status       string        `json:"status" msgpack:"status"`
	Duration     time.Duration `json:"duration" msgpack:"duration"`
	Participants int           `json:"participants" msgpack:"participants"`
	Skipped      []string      `json:"skipped,omitempty" msgpack:"skipped,omitempty"`
	Outputs      []string      `json:"outputs,omitempty" msgpack:"outputs,omitempty"`
	Error        string        `json:"error,omitempty" msgpack:"error,omitempty"`
}
