package operations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charmcli/pkg/contracts/domain"
)

func TestRunState_Record(t *testing.T) {
	state := NewRunState("r1")
	state.Step = StepAll
	state.Participants = []string{"01"}
	state.SetContext(ContextKeyTraceID, "trace-1")
	state.SetStep(StepIDActigraph, NewStepState(StepIDActigraph, StepNameActigraph))
	state.SetStep(StepIDCore, NewStepState(StepIDCore, StepNameCore))

	acti := state.GetStep(StepIDActigraph)
	acti.Start()
	acti.RecordParticipant("01", false)
	acti.RecordParticipant("02", true)
	acti.AddOutput("ActiAC.csv")
	acti.Complete()

	core := state.GetStep(StepIDCore)
	core.Start()
	core.Fail(errors.New("no CORE export"))

	state.Start()
	state.Fail(errors.New("step core failed"))

	rec := state.Record()
	assert.Equal(t, domain.RunStatusFailed, rec.Status)
	assert.Equal(t, "step core failed", rec.Error)
	assert.Equal(t, "trace-1", rec.TraceID)
	assert.NotNil(t, rec.StartedAt)
	require.Len(t, rec.Steps, 2)

	assert.Equal(t, StepIDActigraph, rec.Steps[0].ID)
	assert.Equal(t, 1, rec.Steps[0].Participants)
	assert.Equal(t, []string{"02"}, rec.Steps[0].Skipped)
	assert.Equal(t, []string{"ActiAC.csv"}, rec.Steps[0].Outputs)
	assert.Equal(t, "no CORE export", rec.Steps[1].Error)

	assert.True(t, state.HasFailures())
	assert.True(t, state.IsComplete())
}

func TestRunState_RanStep(t *testing.T) {
	state := NewRunState("r")
	state.SetStep(StepIDActivity, NewStepState(StepIDActivity, StepNameActivity))
	state.SetStep(StepIDCore, NewStepState(StepIDCore, StepNameCore))

	assert.False(t, state.ranStep(StepIDActivity, StepIDCore, StepIDActigraph))

	state.GetStep(StepIDCore).Complete()
	assert.True(t, state.ranStep(StepIDActivity, StepIDCore))
	assert.False(t, state.ranStep(StepIDActigraph))
}

func TestRetryDelay(t *testing.T) {
	m := NewManager(nil, nil)
	cfg := RetryConfig{InitialDelay: 100, MaxDelay: 350, Multiplier: 2}

	assert.EqualValues(t, 100, m.calculateRetryDelay(1, cfg))
	assert.EqualValues(t, 200, m.calculateRetryDelay(2, cfg))
	assert.EqualValues(t, 350, m.calculateRetryDelay(3, cfg))
}
