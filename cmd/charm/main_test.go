package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charmcli/internal/operations"
	"charmcli/internal/validation"
	"charmcli/pkg/contracts/domain"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, operations.StepAll, opts.step)
	assert.Empty(t, opts.participants)

	opts, err = parseFlags([]string{"-step", "cosinor", "-participants", "01, 02,,10", "-workers", "4", "-continue"})
	require.NoError(t, err)
	assert.Equal(t, "cosinor", opts.step)
	assert.Equal(t, []string{"01", "02", "10"}, opts.participants)
	assert.Equal(t, 4, opts.workers)
	assert.True(t, opts.continueOn)

	_, err = parseFlags([]string{"-workers", "-1"})
	assert.Error(t, err)
	_, err = parseFlags([]string{"-unknown"})
	assert.Error(t, err)
}

func TestPrintRun(t *testing.T) {
	acti := operations.NewStepState("actigraph", "Actigraph")
	acti.Start()
	acti.RecordParticipant("01", false)
	acti.RecordParticipant("02", true)
	acti.Complete()
	core := operations.NewStepState("core", "CORE")
	core.Fail(errors.New("no CORE export"))

	resp := &operations.RunResponse{
		ID:       "r1",
		Status:   domain.RunStatusFailed,
		Duration: 1500 * time.Millisecond,
		Steps:    map[string]*operations.StepState{"actigraph": acti, "core": core},
	}

	var buf bytes.Buffer
	printRun(&buf, resp, []string{"wear-times", "actigraph", "core"})
	out := buf.String()

	assert.Contains(t, out, "run r1: failed in 1.5s")
	assert.NotContains(t, out, "wear-times")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("actigraph")), bytes.Index(buf.Bytes(), []byte("core")))
	assert.Contains(t, out, "no CORE export")
	assert.Regexp(t, `actigraph\s+completed\s+1\s+02`, out)
}

func TestPrintSteps(t *testing.T) {
	var buf bytes.Buffer
	printSteps(&buf, []operations.StepInfo{
		{ID: "actigraph", Name: "Actigraph counts"},
		{ID: "activity", Name: "Activity comparison", Dependencies: []string{"actigraph", "core"}},
	})
	assert.Contains(t, buf.String(), "actigraph, core")
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, validation.Report{
		Participants: []validation.InputCheck{{ID: "01", Actigraph: true, WatchAccHours: 168}},
		Problems:     []string{"participant 01: no CORE export"},
	})
	assert.Regexp(t, `01\s+false\s+true\s+false\s+168`, buf.String())
	assert.Contains(t, buf.String(), "problem: participant 01: no CORE export")
}
