package wear

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charmcli/internal/files"
	"charmcli/pkg/contracts/domain"
)

var base = time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC)

func battery(levels []float64, states []int) []domain.BatterySample {
	out := make([]domain.BatterySample, len(levels))
	for i := range levels {
		out[i] = domain.BatterySample{
			Time:  base.Add(time.Duration(i) * 10 * time.Second),
			Level: levels[i],
			State: states[i],
		}
	}
	return out
}

func TestChargingByStatus(t *testing.T) {
	b := battery([]float64{90, 89, 89, 95, 96}, []int{1, 1, 3, 3, 1})
	start, end := base.Add(-time.Hour), base.Add(time.Hour)

	got := ChargingByStatus(b, start, end)
	assert.Equal(t, []time.Time{start, b[3].Time.Add(2 * time.Minute)}, got.Starts)
	assert.Equal(t, []time.Time{b[2].Time.Add(-2 * time.Minute), end}, got.Ends)

	intervals := got.Intervals(nil)
	require.Len(t, intervals, 2)
	assert.Equal(t, start, intervals[0].Start.Time)
}

func TestChargingByStatusStartsCharging(t *testing.T) {
	b := battery([]float64{50, 51, 51}, []int{3, 1, 1})
	start, end := base, base.Add(time.Hour)

	got := ChargingByStatus(b, start, end)
	assert.Equal(t, []time.Time{start}, got.Starts)
	assert.Equal(t, []time.Time{end}, got.Ends)
}

func TestChargingByLevelRise(t *testing.T) {
	n := 100
	levels := make([]float64, n)
	states := make([]int, n)
	for k := 0; k < n; k++ {
		switch {
		case k <= 49:
			levels[k] = 50
		case k <= 79:
			levels[k] = float64(50 + k - 49)
		default:
			levels[k] = 80
		}
		states[k] = 1
	}
	b := battery(levels, states)
	start, end := base.Add(-time.Hour), base.Add(2*time.Hour)

	got := ChargingByLevel(b, start, end, DefaultLevelParams())
	assert.Equal(t, []time.Time{b[16].Time.Add(-5 * time.Minute), end}, got.Ends)
	assert.Equal(t, []time.Time{start}, got.Starts)

	// unpaired boundaries are dropped from the intervals
	intervals := got.Intervals(nil)
	require.Len(t, intervals, 1)
	assert.Equal(t, b[16].Time.Add(-5*time.Minute), intervals[0].End.Time)
}

func TestChargingByLevelFlatStretch(t *testing.T) {
	ramp := func(flat int) []float64 {
		levels := make([]float64, 41)
		for k := range levels {
			levels[k] = 50 + math.Max(0, float64(k-flat))
		}
		return levels
	}
	states := make([]int, 41)
	for k := range states {
		states[k] = 1
	}
	start, end := base.Add(-time.Hour), base.Add(time.Hour)

	// a flat stretch early in the window is enough even though the level
	// already rises before the half
	b := battery(ramp(5), states)
	got := ChargingByLevel(b, start, end, DefaultLevelParams())
	assert.Equal(t, []time.Time{b[0].Time.Add(-5 * time.Minute), end}, got.Ends)

	// a window rising from its first sample never marks a start
	got = ChargingByLevel(battery(ramp(0), states), start, end, DefaultLevelParams())
	assert.Equal(t, []time.Time{end}, got.Ends)
}

func TestChargingByLevelStateSwitch(t *testing.T) {
	n := 60
	levels := make([]float64, n)
	states := make([]int, n)
	for k := 0; k < n; k++ {
		levels[k] = 100
		states[k] = 1
		if k < 20 {
			states[k] = 4
		}
	}
	b := battery(levels, states)
	start, end := base.Add(-time.Hour), base.Add(time.Hour)

	got := ChargingByLevel(b, start, end, DefaultLevelParams())
	assert.Equal(t, []time.Time{start, b[39].Time.Add(5 * time.Minute)}, got.Starts)
	assert.Equal(t, []time.Time{end}, got.Ends)
}

func TestChargingByLevelShortLog(t *testing.T) {
	b := battery([]float64{10, 20}, []int{1, 1})
	got := ChargingByLevel(b, base, base.Add(time.Hour), DefaultLevelParams())
	assert.Equal(t, []time.Time{base}, got.Starts)
	assert.Equal(t, []time.Time{base.Add(time.Hour)}, got.Ends)
}

func TestIntervalsSkipsReversed(t *testing.T) {
	tm := Times{
		Starts: []time.Time{base, base.Add(3 * time.Hour)},
		Ends:   []time.Time{base.Add(time.Hour), base.Add(2 * time.Hour)},
	}
	got := tm.Intervals(nil)
	require.Len(t, got, 1)
	assert.Equal(t, time.Hour, got[0].Duration())
}

func hourly(hours ...int) []files.HourlyFile {
	out := make([]files.HourlyFile, len(hours))
	for i, h := range hours {
		out[i] = files.HourlyFile{Hour: time.Date(2023, 3, 1, h, 0, 0, 0, time.UTC)}
	}
	return out
}

func TestMissingHours(t *testing.T) {
	start := time.Date(2023, 3, 1, 10, 23, 0, 0, time.UTC)
	end := time.Date(2023, 3, 1, 14, 10, 0, 0, time.UTC)

	missing := MissingHours(start, end, hourly(10, 11, 13))
	assert.Equal(t, []time.Time{time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)}, missing)

	assert.Empty(t, MissingHours(start, end, hourly(10, 11, 12, 13)))
}

func TestNoFileIntervals(t *testing.T) {
	h := func(hour int) time.Time { return time.Date(2023, 3, 1, hour, 0, 0, 0, time.UTC) }

	got := NoFileIntervals([]time.Time{h(1), h(2), h(3), h(5)})
	require.Len(t, got, 2)
	assert.Equal(t, domain.NewInterval(h(1), h(4)), got[0])
	assert.Equal(t, domain.NewInterval(h(5), h(6)), got[1])

	assert.Nil(t, NoFileIntervals(nil))
}

func TestCombine(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2023, 3, 1, h, m, 0, 0, time.UTC) }
	wear := Times{
		Starts: []time.Time{at(8, 0), at(15, 0)},
		Ends:   []time.Time{at(12, 30), at(20, 0)},
	}
	noFile := []domain.Interval{domain.NewInterval(at(12, 0), at(13, 0))}

	got := Combine(wear, noFile)
	require.Len(t, got, 2)
	assert.Equal(t, domain.NewInterval(at(8, 0), at(12, 0)), got[0])
	assert.Equal(t, domain.NewInterval(at(15, 0), at(20, 0)), got[1])

	first, last, ok := TimesOf(got).Span()
	require.True(t, ok)
	assert.Equal(t, at(8, 0), first)
	assert.Equal(t, at(20, 0), last)
}

func TestRemoveNonWear(t *testing.T) {
	epochs := make([]domain.ActigraphEpoch, 10)
	for i := range epochs {
		epochs[i] = domain.ActigraphEpoch{Time: domain.NewTimestamp(base.Add(time.Duration(i) * time.Minute)), AC: float64(i)}
	}
	periods := []domain.NonWearPeriod{{
		Start: domain.NewTimestamp(base.Add(2 * time.Minute)),
		End:   domain.NewTimestamp(base.Add(4 * time.Minute)),
	}}

	kept, pct := RemoveNonWear(epochs, periods)
	assert.Len(t, kept, 7)
	assert.Equal(t, 30.0, pct)
	assert.Equal(t, 5.0, kept[2].AC)

	_, pct = RemoveNonWear(nil, periods)
	assert.True(t, math.IsNaN(pct))
	assert.Equal(t, 33.33, RemovedPercent(3, 2))
}
