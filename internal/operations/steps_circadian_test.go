package operations_test

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charmcli/internal/config"
	"charmcli/internal/operations"
	"charmcli/internal/readers"
	"charmcli/pkg/contracts/domain"
)

// writeMinuteCounts stores two days of minute activity counts following
// mesor + amp·cos(day angle) plus a repeating 0..10 wobble
func writeMinuteCounts(t *testing.T, env *operations.Env, id string, mesor, amp float64) {
	t.Helper()
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

	var b strings.Builder
	b.WriteString("time,Axis1,Axis2,Axis3,AC\n")
	for i := 0; i < 2*1440; i++ {
		v := mesor + amp*math.Cos(2*math.Pi*float64(i%1440)/1440) + float64((i*7)%11)
		fmt.Fprintf(&b, "%s,%g,0,0,%g\n", start.Add(time.Duration(i)*time.Minute).Format(domain.TimeLayout), v, v)
	}
	require.NoError(t, writeFile(env.Paths.Sensor(id, env.Study.Files.ActiAC), b.String()))
}

func TestNonParametricStep_MinuteResolution(t *testing.T) {
	env := newTestEnv(t, "01")
	writeMinuteCounts(t, env, "01", 50, 40)

	step := operations.NewNonParametricStep(env)
	require.NoError(t, step.Execute(context.Background(), newStepState(step.ID())))

	var rows []domain.NonParametric
	require.NoError(t, readers.ReadRecords(env.Paths.Circadian(env.Study.Files.CRNonParametric), &rows))
	require.Len(t, rows, 1)

	// 10 minute bins would give IS 1.0034, IV 0.0023, M10 0.8653, L5 0.0444
	r := rows[0]
	assert.Equal(t, env.Study.Columns.Acti, r.Measurement)
	assert.InDelta(t, 0.99170, r.IS, 1e-4)
	assert.InDelta(t, 0.034578, r.IV, 1e-5)
	assert.InDelta(t, 0.82789, r.M10, 1e-4)
	assert.InDelta(t, 0.089994, r.L5, 1e-5)
	assert.InDelta(t, 0.80391, r.RA, 1e-4)
}

func TestSubjectComparisonStep_Unscaled(t *testing.T) {
	env := newTestEnv(t, "01", "02")
	env.Study.Subjects = config.SubjectConfig{Compare: []string{"01", "02"}, Measure: env.Study.Columns.Acti}
	writeMinuteCounts(t, env, "01", 50, 40)
	writeMinuteCounts(t, env, "02", 80, 20)

	step := operations.NewSubjectComparisonStep(env)
	require.NoError(t, step.Execute(context.Background(), newStepState(step.ID())))

	var rows []domain.CosinorPairComparison
	require.NoError(t, readers.ReadRecords(env.Paths.Circadian(env.Study.Files.CRSubjectCompare), &rows))
	require.Len(t, rows, 1)

	// mesors are in summed counts per 10 minute bin
	r := rows[0]
	assert.Equal(t, "01 vs. 02", r.Test)
	assert.InDelta(t, 549.993, r.Mesor1, 0.01)
	assert.InDelta(t, 849.993, r.Mesor2, 0.01)
	assert.InDelta(t, 300, r.DMesor, 0.01)
	assert.Greater(t, r.Amplitude1, r.Amplitude2)
}
