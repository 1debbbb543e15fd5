package circadian

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charmcli/internal/config"
	"charmcli/internal/series"
	"charmcli/pkg/contracts/domain"
)

var day0 = time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

// rhythm returns two days of 10 minute samples of mesor + amp·cos(w - phase)
// with a small deterministic wobble
func rhythm(mesor, amp, phase float64) series.Series {
	var s series.Series
	for i := 0; i < 2*144; i++ {
		w := 2 * math.Pi * float64(i%144) / 144
		wobble := 0.02 * float64(i%5-2)
		s = append(s, domain.Sample{
			Time:  day0.Add(time.Duration(i) * 10 * time.Minute),
			Value: mesor + amp*math.Cos(w-phase) + wobble,
		})
	}
	return s
}

func TestCosinorFormat(t *testing.T) {
	s := series.Series{
		{Time: day0.Add(6*time.Hour + 30*time.Minute), Value: 1},
		{Time: day0.Add(7 * time.Hour), Value: math.NaN()},
		{Time: day0.Add(24*time.Hour + 10*time.Minute), Value: 3},
	}
	points := CosinorFormat("HR", s)
	require.Len(t, points, 2)
	assert.Equal(t, 39.0, points[0].X)
	assert.Equal(t, 1.0, points[1].X)
	assert.Equal(t, "HR", points[1].Test)

	scaled := ScaleY(points)
	assert.Equal(t, 0.0, scaled[0].Y)
	assert.Equal(t, 1.0, scaled[1].Y)
}

func TestFitRecoversSinusoid(t *testing.T) {
	assert.Equal(t, 144.0, DayPeriod)

	// peak at 06:00
	points := CosinorFormat("Acti", rhythm(5, 2, math.Pi/2))
	fit, err := Fit("Acti", points, DayPeriod)
	require.NoError(t, err)

	assert.InDelta(t, 5, fit.Mesor, 0.01)
	assert.InDelta(t, 2, fit.Amplitude, 0.01)
	assert.InDelta(t, 3*math.Pi/2, fit.Acrophase, 0.01)
	assert.InDelta(t, 6, fit.Time, 0.05)
	assert.InDelta(t, 36, fit.Peak, 0.2)
	assert.InDelta(t, 108, fit.Trough, 0.2)
	assert.InDelta(t, 7, fit.PeakHeight, 0.01)
	assert.InDelta(t, 3, fit.TroughHeight, 0.01)
	assert.Greater(t, fit.R2, 0.99)
	assert.Less(t, fit.P, 1e-6)
	assert.Equal(t, 288, fit.N)
	assert.Equal(t, 1, fit.NComponents)
}

func TestFitTooFewPoints(t *testing.T) {
	_, err := Fit("HR", []Point{{X: 1, Y: 1}, {X: 2, Y: 2}}, DayPeriod)
	assert.Error(t, err)
}

func TestAcrophaseHour(t *testing.T) {
	acr := 2 * math.Pi * (24 - 7.51) / 24
	assert.Equal(t, "07:30", AcrophaseHour(acr))
	assert.InDelta(t, 7.51, AcrophaseTime(acr), 1e-9)

	// a negative phase wraps into [0, 2π)
	assert.InDelta(t, 3*math.Pi/2, Acrophase(0, 1), 1e-12)
	assert.InDelta(t, 0, Acrophase(1, 0), 1e-12)
}

func TestFitGroup(t *testing.T) {
	points := append(
		CosinorFormat("Acti", rhythm(5, 2, math.Pi/2)),
		CosinorFormat("HR", rhythm(60, 8, math.Pi))...)
	fits, errs := FitGroup(points, DayPeriod)
	require.Empty(t, errs)
	require.Len(t, fits, 2)
	assert.Equal(t, "Acti", fits[0].Test)
	assert.Equal(t, "HR", fits[1].Test)
	assert.InDelta(t, 12, fits[1].Time, 0.05)
	for _, f := range fits {
		assert.GreaterOrEqual(t, f.Q, f.P)
	}
}

func TestComparePair(t *testing.T) {
	points := append(
		CosinorFormat("01", rhythm(5, 2, math.Pi/2)),
		CosinorFormat("02", rhythm(3, 1, math.Pi/2))...)

	res, err := ComparePair(points, "01", "02", DayPeriod)
	require.NoError(t, err)
	assert.Equal(t, "01 vs. 02", res.Test)
	assert.InDelta(t, -1, res.DAmplitude, 0.01)
	assert.InDelta(t, -2, res.DMesor, 0.01)
	assert.InDelta(t, 0, res.DAcrophase, 0.01)
	assert.InDelta(t, 5, res.Mesor1, 0.01)
	assert.InDelta(t, 3, res.Mesor2, 0.01)
	assert.Less(t, res.PDAmplitude, 1e-6)
	assert.Less(t, res.PDMesor, 1e-6)
	assert.Less(t, res.PRhythm, 1e-6)

	_, err = ComparePair(points, "01", "03", DayPeriod)
	assert.Error(t, err)
}

func TestWrapPhase(t *testing.T) {
	assert.InDelta(t, -math.Pi/2, wrapPhase(3*math.Pi/2), 1e-12)
	assert.InDelta(t, math.Pi, wrapPhase(-math.Pi), 1e-12)
	assert.InDelta(t, 0.5, wrapPhase(0.5), 1e-12)
}

func TestNonParametric(t *testing.T) {
	// hourly values alternating 0 and 1 over two days
	var s series.Series
	for i := 0; i < 48; i++ {
		s = append(s, domain.Sample{Time: day0.Add(time.Duration(i) * time.Hour), Value: float64(i % 2)})
	}
	s = append(s, domain.Sample{Time: day0.Add(48 * time.Hour), Value: math.NaN()})

	res := NonParametric("01", "Acti", s)
	assert.Equal(t, "01", res.ID)
	assert.Equal(t, "Acti", res.Measurement)
	assert.InDelta(t, 47.0/46, res.IS, 1e-12)
	assert.InDelta(t, 4*47.0/48, res.IV, 1e-12)
	assert.Equal(t, 1.0, res.M10)
	assert.Equal(t, 0.0, res.L5)
	assert.Equal(t, 1.0, res.RA)
}

func TestNonParametricEmpty(t *testing.T) {
	res := NonParametric("01", "HR", nil)
	assert.True(t, math.IsNaN(res.IS))
	assert.True(t, math.IsNaN(res.IV))
	assert.True(t, math.IsNaN(res.RA))
}

func TestScaleSeries(t *testing.T) {
	s := ScaleSeries(series.Series{{Time: day0, Value: 2}, {Time: day0, Value: 6}})
	assert.Equal(t, 0.0, s[0].Value)
	assert.Equal(t, 1.0, s[1].Value)
}

func epochsOf(counts []float64) []domain.ActigraphEpoch {
	out := make([]domain.ActigraphEpoch, len(counts))
	for i, c := range counts {
		out[i] = domain.ActigraphEpoch{Time: domain.NewTimestamp(day0.Add(time.Duration(i) * time.Minute)), Axis1: c}
	}
	return out
}

func counts(spans ...[2]float64) []float64 {
	var out []float64
	for _, s := range spans {
		for i := 0; i < int(s[0]); i++ {
			out = append(out, s[1])
		}
	}
	return out
}

func TestScoreAndSleepPeriods(t *testing.T) {
	scored := Score(epochsOf(counts([2]float64{60, 10000}, [2]float64{240, 0}, [2]float64{60, 10000})))
	require.Len(t, scored, 360)
	assert.False(t, scored[63].Sleep)
	assert.True(t, scored[64].Sleep)
	assert.True(t, scored[297].Sleep)
	assert.False(t, scored[298].Sleep)

	periods := SleepPeriods(scored, DefaultSleepParams())
	require.Len(t, periods, 1)
	assert.Equal(t, day0.Add(64*time.Minute), periods[0].InBed.Time)
	assert.Equal(t, day0.Add(298*time.Minute), periods[0].OutBed.Time)
}

func TestSleepPeriodsMergeGap(t *testing.T) {
	scored := Score(epochsOf(counts([2]float64{200, 0}, [2]float64{10, 10000}, [2]float64{190, 0})))

	merged := SleepPeriods(scored, DefaultSleepParams())
	require.Len(t, merged, 1)
	assert.Equal(t, day0, merged[0].InBed.Time)
	assert.Equal(t, day0.Add(400*time.Minute), merged[0].OutBed.Time)

	split := SleepPeriods(scored, SleepParams{MaxWakeGap: 10 * time.Minute, MinPeriod: 3 * time.Hour})
	require.Len(t, split, 2)
	assert.Equal(t, day0.Add(198*time.Minute), split[0].OutBed.Time)
	assert.Equal(t, day0.Add(214*time.Minute), split[1].InBed.Time)

	short := SleepPeriods(scored, SleepParams{MaxWakeGap: 10 * time.Minute, MinPeriod: 4 * time.Hour})
	assert.Empty(t, short)
}

func TestScoreFillsMissingMinutes(t *testing.T) {
	epochs := []domain.ActigraphEpoch{
		{Time: domain.NewTimestamp(day0), Axis1: 0},
		{Time: domain.NewTimestamp(day0.Add(10 * time.Minute)), Axis1: 0},
	}
	scored := Score(epochs)
	require.Len(t, scored, 11)
	for _, m := range scored {
		assert.True(t, m.Sleep)
	}
	assert.Nil(t, Score(nil))
}

func TestMeasurementBinned(t *testing.T) {
	s := series.Series{
		{Time: day0.Add(12 * time.Minute), Value: 4},
		{Time: day0.Add(time.Minute), Value: 1},
		{Time: day0.Add(2 * time.Minute), Value: 3},
	}
	sum := Measurement{Label: "Acti", Series: s, Aggregation: AggregateSum}.Binned()
	require.Len(t, sum, 2)
	assert.Equal(t, 4.0, sum[0].Value)
	assert.Equal(t, 4.0, sum[1].Value)

	mean := Measurement{Label: "HR", Series: s, Aggregation: AggregateMean}.Binned()
	assert.Equal(t, 2.0, mean[0].Value)

	raw := Measurement{Series: s}.Binned()
	assert.Len(t, raw, 3)
	// the measurement itself is left untouched
	assert.Equal(t, 4.0, s[0].Value)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoaderSkipsMissingFiles(t *testing.T) {
	study := config.DefaultStudy()
	study.OutputRoot = t.TempDir()
	study.Files.AC = "ACs.csv"
	paths := config.NewPaths(study)

	writeFile(t, paths.Sensor("01", study.Files.ActiAC), strings.Join([]string{
		"time,Axis1,Axis2,Axis3,AC",
		"2023-03-01 00:00:00,1,0,0,1",
		"2023-03-01 00:01:00,2,0,0,2",
	}, "\n"))
	writeFile(t, paths.Sensor("01", study.Files.AC), strings.Join([]string{
		"time,ActiAC,WatchAC",
		"2023-03-01 00:00:00,1,5",
		"2023-03-01 00:01:00,2,6",
	}, "\n"))

	measurements, err := NewLoader(paths, study, nil).Load("01")
	require.NoError(t, err)
	require.Len(t, measurements, 2)
	assert.Equal(t, "ActiAC", measurements[0].Label)
	assert.Equal(t, AggregateSum, measurements[0].Aggregation)
	assert.Equal(t, "WatchAC", measurements[1].Label)
	assert.Equal(t, 11.0, measurements[1].Binned()[0].Value)

	_, err = NewLoader(paths, study, nil).Load("02")
	require.Error(t, err)
	assert.True(t, IsMissing(err))
}
