package operations

import (
	"time"

	"charmcli/pkg/contracts/domain"
)

// Step identifiers, in pipeline order
const (
	StepIDWearTimes         = "wear-times"
	StepIDActigraph         = "actigraph"
	StepIDActivity          = "activity"
	StepIDCore              = "core"
	StepIDHeartRate         = "heart-rate"
	StepIDMissStats         = "miss-stats"
	StepIDCosinor           = "cosinor"
	StepIDNonParametric     = "non-parametric"
	StepIDSubjectComparison = "subject-comparison"
	StepIDCRComparison      = "cr-comparison"
	StepIDChronotype        = "chronotype"
	StepIDSummary           = "summary"
)

// Step names
const (
	StepNameWearTimes         = "Smartwatch Wear Times"
	StepNameActigraph         = "Actigraph Activity Counts"
	StepNameActivity          = "Activity Count Comparison"
	StepNameCore              = "Core Body Temperature"
	StepNameHeartRate         = "Heart Rate and HRV"
	StepNameMissStats         = "Missing Data Statistics"
	StepNameCosinor           = "Cosinor Models"
	StepNameNonParametric     = "Non-Parametric Rhythm Metrics"
	StepNameSubjectComparison = "Participant Rhythm Comparison"
	StepNameCRComparison      = "Comparison With Reference"
	StepNameChronotype        = "Chronotype Analysis"
	StepNameSummary           = "Summary Workbook"
)

// StepAll runs every registered step in dependency order
const StepAll = "all"

// ContextKeyTraceID holds the trace ID of a run in its state context
const ContextKeyTraceID = "trace_id"

// Default timeouts
const (
	DefaultStepTimeout     = 30 * time.Minute
	DefaultActivityTimeout = 2 * time.Hour
)

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration. Analysis steps
// are deterministic, so only one attempt is made unless configured.
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  1,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// RunRequest asks for one step or the whole pipeline
type RunRequest struct {
	ID           string   `json:"id,omitempty"`
	Step         string   `json:"step" validate:"required"`
	Participants []string `json:"participants,omitempty" validate:"dive,numeric"`
	Workers      int      `json:"workers,omitempty" validate:"gte=0,lte=64"`
}

// RunResponse represents the result of a run
type RunResponse struct {
	ID       string                `json:"id"`
	Status   domain.RunStatus      `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Error    string                `json:"error,omitempty"`
}

// StepInfo describes a registered step for listings
type StepInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Dependencies []string `json:"dependencies"`
	Outputs      []string `json:"outputs"`
}
