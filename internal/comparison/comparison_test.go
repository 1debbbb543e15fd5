package comparison

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charmcli/internal/config"
	"charmcli/pkg/contracts/domain"
)

func TestMergeMiss(t *testing.T) {
	acti := []domain.ActiMissRecord{{ID: "01", NoWear: 1}, {ID: "02", NoWear: 2}, {ID: "03", NoWear: 3}}
	watch := []domain.WatchMissRecord{{ID: "1", NoWear: 10}, {ID: "2", NoWear: 20}, {ID: "3", NoWear: 30}}
	core := []domain.CoreMissRecord{{ID: "2", NoWear: 200}, {ID: "3", NoWear: 400}}

	df, err := MergeMiss(acti, watch, core)
	require.NoError(t, err)
	assert.Equal(t, 2, df.Nrow())

	merged := MergedTable(df)
	ids, err := merged.Strings("ID")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ids)
	smart, err := merged.Floats(MissSmartwatch)
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 30}, smart)

	desc := DescribeMiss(df)
	assert.Equal(t, []string{"", MissActigraph, MissSmartwatch, MissCore}, desc.Columns)
	require.Len(t, desc.Rows, 8)
	assert.Equal(t, []string{"count", "2", "2", "2"}, desc.Rows[0])
	means, err := desc.Floats(MissCore)
	require.NoError(t, err)
	assert.Equal(t, 300.0, means[1])
	assert.Equal(t, 400.0, means[7])
}

func fitsFor(sensor string, times, amps []float64) []domain.CosinorFit {
	out := make([]domain.CosinorFit, len(times))
	for i := range times {
		out[i] = domain.CosinorFit{
			ID:        []string{"01", "02", "03", "04", "05", "06", "07", "08", "09"}[i],
			Test:      sensor,
			Time:      times[i],
			Amplitude: amps[i],
			Mesor:     1,
		}
	}
	return out
}

func TestCompareWithReference(t *testing.T) {
	fits := append(
		fitsFor("ActiAC", []float64{10, 11, 12, 13, 14}, []float64{1, 2, 3, 4, 5}),
		fitsFor("WatchAC", []float64{10.5, 11, 12, 13.5, 14}, []float64{2, 3, 4, 5, 6})...)
	np := []domain.NonParametric{
		{ID: "01", Measurement: "ActiAC", IS: 0.5, IV: 1, M10: 1, L5: 0, RA: 1},
		{ID: "1", Measurement: "WatchAC", IS: 0.4, IV: 1, M10: 1, L5: 0, RA: 1},
	}
	m := NewMetrics(fits, np)
	assert.Equal(t, []string{"01", "02", "03", "04", "05"}, m.IDs())

	rows := CompareWithReference(m, "ActiAC", []string{"WatchAC", "HR"})
	require.Len(t, rows, 16)
	assert.Equal(t, "amplitude", rows[0].Metric)
	assert.Equal(t, "WatchAC", rows[0].Sensor)
	assert.Equal(t, "HR", rows[1].Sensor)
	assert.Equal(t, "time", rows[2].Metric)
	assert.Equal(t, "IS", rows[6].Metric)

	amp := rows[0]
	assert.Equal(t, 5, amp.N)
	assert.Equal(t, "3(1.58)", amp.MeanSDRef)
	assert.Equal(t, "4(1.58)", amp.MeanSDTest)
	assert.Equal(t, "3(2)", amp.MedianIQRRef)
	assert.InDelta(t, 1, amp.MAE, 1e-12)
	assert.InDelta(t, 1, amp.RMSE, 1e-12)
	assert.Equal(t, 0.0, amp.WStatistic)
	assert.Equal(t, 1.0, amp.Correlation)

	assert.Equal(t, 0, rows[1].N)
	assert.True(t, math.IsNaN(rows[1].MAE))

	// IS pairs "01" with "1"
	assert.Equal(t, 1, rows[6].N)
	assert.InDelta(t, 0.1, rows[6].MAE, 1e-12)
}

func TestCorrelateWithMEQ(t *testing.T) {
	m := NewMetrics(fitsFor("ActiAC", []float64{10, 11, 12}, []float64{1, 1, 1}), nil)
	meq := []domain.MEQScore{{ID: "01", Score: 30}, {ID: "02", Score: 40}, {ID: "03", Score: 50}, {ID: "04", Score: 60}}

	rows := CorrelateWithMEQ(m, meq, []string{"ActiAC"})
	require.Len(t, rows, 8)
	time := rows[1]
	assert.Equal(t, "time", time.Metric)
	assert.Equal(t, 3, time.N)
	assert.InDelta(t, 1, time.Correlation, 1e-12)
	// a constant amplitude has no correlation
	assert.True(t, math.IsNaN(rows[0].Correlation))
}

func TestChronotype(t *testing.T) {
	assert.Equal(t, GroupEvening, Chronotype(41.9))
	assert.Equal(t, GroupIntermediate, Chronotype(42))
	assert.Equal(t, GroupIntermediate, Chronotype(58))
	assert.Equal(t, GroupMorning, Chronotype(58.5))
}

func TestFocusSensors(t *testing.T) {
	cols := config.DefaultStudy().Columns
	assert.Equal(t, []string{"ActiAC", "WatchAC", "CBT", "SkinT", "HR", "meanRR", "RMSSD"}, FocusSensors(cols))
}

func chronotypeFixture() (*Metrics, []domain.MEQScore, []domain.Demographic) {
	// evening types peak late, morning types early
	fits := fitsFor("ActiAC",
		[]float64{16, 17, 18, 13, 14, 15, 10, 11, 12},
		[]float64{1, 1, 1, 1, 1, 1, 1, 1, 1})
	meq := []domain.MEQScore{
		{ID: "01", Score: 30}, {ID: "02", Score: 35}, {ID: "03", Score: 40},
		{ID: "04", Score: 45}, {ID: "05", Score: 50}, {ID: "06", Score: 55},
		{ID: "07", Score: 60}, {ID: "08", Score: 65}, {ID: "09", Score: 70},
	}
	demo := []domain.Demographic{
		{ID: "01", Age: 20, Gender: "Female"},
		{ID: "02", Age: 30, Gender: "Male"},
		{ID: "03", Age: 40, Gender: "Female"},
	}
	return NewMetrics(fits, nil), meq, demo
}

func TestCompareGroups(t *testing.T) {
	m, meq, demo := chronotypeFixture()
	rows := CompareGroups(m, meq, demo, []string{"ActiAC", "HR"})
	require.Len(t, rows, 2)

	acti := rows[0]
	assert.Equal(t, "ActiAC", acti.Sensor)
	assert.Equal(t, 7.2, acti.H)
	assert.InDelta(t, 0.0273, acti.PKruskal, 1e-4)
	assert.Equal(t, 1.96, acti.ZEI)
	assert.InDelta(t, 0.0495, acti.PEI, 1e-4)
	assert.Equal(t, 1.96, acti.ZIM)
	assert.Equal(t, 1.96, acti.ZEM)
	assert.InDelta(t, 0, acti.Levene, 1e-12)

	assert.True(t, math.IsNaN(rows[1].H))
}

func TestCompareGroups_EmptyGroup(t *testing.T) {
	m, meq, demo := chronotypeFixture()
	// no morning types left
	rows := CompareGroups(m, meq[:6], demo, []string{"ActiAC"})
	require.Len(t, rows, 1)

	acti := rows[0]
	assert.True(t, math.IsNaN(acti.H))
	assert.True(t, math.IsNaN(acti.PKruskal))
	assert.Equal(t, 1.96, acti.ZEI)
	assert.True(t, math.IsNaN(acti.ZIM))
	assert.True(t, math.IsNaN(acti.ZEM))
}

func TestDescribeGroups(t *testing.T) {
	m, meq, demo := chronotypeFixture()
	rows := DescribeGroups(m, meq, demo, []string{"ActiAC"})
	require.Len(t, rows, 3)

	evening := rows[0]
	assert.Equal(t, GroupEvening, evening.Group)
	assert.Equal(t, 3, evening.N)
	assert.Equal(t, 17.0, evening.MedianTime)
	assert.Equal(t, 1.0, evening.IQRTime)
	assert.Equal(t, 30.0, evening.MeanAge)
	assert.Equal(t, 10.0, evening.SDAge)
	assert.Equal(t, 35.0, evening.MeanMEQ)
	assert.Equal(t, 66.67, evening.Female)

	morning := rows[2]
	assert.Equal(t, GroupMorning, morning.Group)
	assert.Equal(t, 11.0, morning.MedianTime)
	assert.True(t, math.IsNaN(morning.MeanAge))
	assert.True(t, math.IsNaN(morning.Female))
}
