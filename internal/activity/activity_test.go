package activity

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charmcli/pkg/contracts/domain"
)

var t0 = time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)

func accel(n int, f func(i int) (x, y, z float64)) []domain.AccelSample {
	out := make([]domain.AccelSample, n)
	for i := range out {
		x, y, z := f(i)
		out[i] = domain.AccelSample{Time: t0.Add(time.Duration(i) * 20 * time.Millisecond), X: x, Y: y, Z: z}
	}
	return out
}

func TestSteadyStateSuppressesConstantInput(t *testing.T) {
	x := make([]float64, 300)
	for i := range x {
		x[i] = 1
	}
	for _, v := range bandPass(x) {
		assert.InDelta(t, 0, v, 1e-4)
	}
}

func TestCountsZeroSignal(t *testing.T) {
	samples := accel(2*3000, func(int) (float64, float64, float64) { return 0, 0, 0 })

	got, err := Counts(samples, DefaultCountOptions())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, t0, got[0].Time.Time)
	assert.Equal(t, t0.Add(time.Minute), got[1].Time.Time)
	assert.Zero(t, got[0].AC)
}

func TestCountsSineOnOneAxis(t *testing.T) {
	samples := accel(3000, func(i int) (float64, float64, float64) {
		sec := float64(i) / 50
		return math.Sin(2 * math.Pi * sec), 0, 0
	})

	got, err := Counts(samples, DefaultCountOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Greater(t, got[0].Axis1, 0.0)
	assert.Zero(t, got[0].Axis2)
	assert.Equal(t, got[0].Axis1, got[0].AC)
}

func TestCountsFillsGaps(t *testing.T) {
	// half a minute of samples still yields the whole minute
	samples := accel(1500, func(int) (float64, float64, float64) { return 0, 0, 0 })
	got, err := Counts(samples, DefaultCountOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)

	grid := fillGrid(samples[:10], 20*time.Millisecond)
	assert.Len(t, grid, 3000)
}

func TestCountsRejectsFrequency(t *testing.T) {
	_, err := Counts(accel(10, func(int) (float64, float64, float64) { return 0, 0, 0 }), CountOptions{Frequency: 45, Epoch: time.Minute})
	assert.Error(t, err)

	got, err := Counts(nil, DefaultCountOptions())
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestResampleLength(t *testing.T) {
	assert.Len(t, resample(make([]float64, 3000), 50), 1800)
	assert.Len(t, resample(make([]float64, 3600), 60), 1800)
	assert.Len(t, resample(make([]float64, 1800), 30), 1800)
}

func TestResampleFirstSample(t *testing.T) {
	raw := make([]float64, 10)
	raw[0] = 1

	// the low pass starts from rest, so the first output carries the
	// first upsampled value
	got := resample(raw, 50)
	require.Len(t, got, 6)
	assert.Equal(t, 1.031, got[0])
	assert.Equal(t, 0.013, got[1])
	assert.Zero(t, got[2])
}

type fakeSource struct {
	windows map[time.Time][]domain.AccelSample
}

func (f fakeSource) AccelFolder(_ string, start, _ time.Time) ([]domain.AccelSample, error) {
	s, ok := f.windows[start]
	if !ok {
		return nil, errors.New("no files")
	}
	return s, nil
}

func TestWatchCountsSkipsBadWindows(t *testing.T) {
	zero := accel(3000, func(int) (float64, float64, float64) { return 0, 0, 0 })
	src := fakeSource{windows: map[time.Time][]domain.AccelSample{
		t0:                    zero,
		t0.Add(2 * time.Hour): {},
	}}
	windows := []domain.Interval{
		domain.NewInterval(t0, t0.Add(time.Hour)),
		domain.NewInterval(t0.Add(time.Hour), t0.Add(2*time.Hour)),
		domain.NewInterval(t0.Add(2*time.Hour), t0.Add(3*time.Hour)),
	}

	got, err := WatchCounts(context.Background(), src, "acc", windows, DefaultCountOptions(), nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = WatchCounts(ctx, src, "acc", windows, DefaultCountOptions(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func epochs(values ...float64) []domain.ActigraphEpoch {
	out := make([]domain.ActigraphEpoch, len(values))
	for i, v := range values {
		out[i] = domain.ActigraphEpoch{Time: domain.NewTimestamp(t0.Add(time.Duration(i) * time.Minute)), AC: v}
	}
	return out
}

func TestMerge(t *testing.T) {
	acti := epochs(10, 20, 30, 40)
	watch := epochs(12, 18)
	watch = append(watch, domain.ActigraphEpoch{Time: domain.NewTimestamp(t0.Add(10 * time.Minute)), AC: 5})

	got := Merge(acti, watch)
	require.Len(t, got, 2)
	assert.Equal(t, 10.0, got[0].Acti)
	assert.Equal(t, 12.0, got[0].Watch)
	assert.Equal(t, 2.0, got[0].Diff)
	assert.Equal(t, 19.0, got[1].Average)
}

func pairs(acti, watch []float64) []domain.ActivityPair {
	out := make([]domain.ActivityPair, len(acti))
	for i := range acti {
		out[i] = domain.NewActivityPair(t0.Add(time.Duration(i)*time.Minute), acti[i], watch[i])
	}
	return out
}

func TestRemoveBothNonWear(t *testing.T) {
	// 40 minutes: the second window is all zero except its last minute,
	// the last ten minutes fall outside any full window
	n := 40
	acti := make([]float64, n)
	watch := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < 15 || i >= 30 {
			acti[i], watch[i] = 100, 120
		}
	}
	acti[29] = 50

	kept, pct := RemoveBothNonWear(pairs(acti, watch), nil)
	assert.Len(t, kept, 15)
	assert.Equal(t, 62.5, pct)

	// the same window during sleep is kept
	sleep := []domain.SleepPeriod{{
		InBed:  domain.NewTimestamp(t0.Add(10 * time.Minute)),
		OutBed: domain.NewTimestamp(t0.Add(20 * time.Minute)),
	}}
	kept, _ = RemoveBothNonWear(pairs(acti, watch), sleep)
	assert.Len(t, kept, 30)
}

func TestRemoveSingleNonWear(t *testing.T) {
	in := pairs([]float64{100, 0, 1000, 0}, []float64{120, 400, 0, 900})
	kept, pct := RemoveSingleNonWear(in)
	// (0, 400) passes on the absolute rule, (1000, 0) and (0, 900) fail both
	require.Len(t, kept, 2)
	assert.Equal(t, 100.0, kept[0].Acti)
	assert.Equal(t, 0.0, kept[1].Acti)
	assert.Equal(t, 50.0, pct)
}

func TestClean(t *testing.T) {
	merged := pairs(make([]float64, 30), make([]float64, 30))
	for i := range merged {
		merged[i] = domain.NewActivityPair(merged[i].Time, 10, 10)
	}
	res := Clean(60, merged, nil)
	assert.Equal(t, 50.0, res.Charging)
	// only one full window fits into 30 minutes
	assert.Equal(t, 50.0, res.BothNoWear)
	assert.Equal(t, 0.0, res.SingleNoWear)
	assert.Len(t, res.Pairs, 15)
}

func TestCompare(t *testing.T) {
	in := pairs([]float64{1, 2, 3, 4, 5}, []float64{2, 3, 4, 5, 9})
	got := Compare("07", in)

	assert.Equal(t, "07", got.ID)
	assert.Equal(t, 1.6, got.MAE)
	assert.Equal(t, 1.6, got.MeanDifference)
	assert.InDelta(t, 1.1429, got.TStatistic, 1e-4)
	assert.Contains(t, got.LoA, "[")
	assert.Greater(t, got.Correlation, 0.9)
}

func TestPairsTableRoundTrip(t *testing.T) {
	in := pairs([]float64{1, 2}, []float64{3, 5})
	tbl := PairsTable(in, "time", "ActiAC", "WatchAC")
	assert.Equal(t, []string{"time", "ActiAC", "WatchAC", "diff", "average"}, tbl.Columns)

	back, err := PairsFromTable(tbl, "time", "ActiAC", "WatchAC")
	require.NoError(t, err)
	assert.Equal(t, in, back)
}

func TestRepeatedMeasures(t *testing.T) {
	byID := map[string][]domain.ActivityPair{
		"01": pairs([]float64{2, 4, 6, 8}, []float64{1, 2, 3, 4}),
		"02": pairs([]float64{0, 2, 4, 6}, []float64{11, 12, 13, 14}),
	}
	got := RepeatedMeasures(byID)
	assert.InDelta(t, 1.0, got.R, 1e-12)
	assert.Equal(t, 5, got.DOF)
	assert.Equal(t, 2, got.Subjects)
}
