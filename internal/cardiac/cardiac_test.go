package cardiac

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charmcli/internal/config"
	"charmcli/pkg/contracts/domain"
)

var t0 = time.Date(2023, 8, 1, 10, 3, 0, 0, time.UTC)

func hr(offset time.Duration, rate, ibi float64) domain.HeartRateSample {
	return domain.HeartRateSample{Time: domain.NewTimestamp(t0.Add(offset)), HR: rate, IBI: ibi}
}

func TestHRV(t *testing.T) {
	var samples []domain.HeartRateSample
	for i, ibi := range []float64{800, 820, 760, 900, 800, 810, 10, 2500} {
		samples = append(samples, hr(time.Duration(i)*time.Second, 70, ibi))
	}
	// a sparse second window is dropped
	for i := 0; i < 3; i++ {
		samples = append(samples, hr(10*time.Minute+time.Duration(i)*time.Second, 70, 800))
	}

	got := HRV(samples)
	require.Len(t, got, 1)
	w := got[0]
	assert.Equal(t, time.Date(2023, 8, 1, 10, 0, 0, 0, time.UTC), w.Time)
	assert.InDelta(t, 815, w.MeanRR, 1e-9)
	assert.InDelta(t, math.Sqrt(10750.0/6), w.SDNN, 1e-9)
	assert.InDelta(t, math.Sqrt(6740), w.RMSSD, 1e-9)
	assert.InDelta(t, 50, w.PNN50, 1e-9)

	tbl := HRVTable(got, config.DefaultStudy().Columns)
	assert.Equal(t, []string{"time", "meanRR", "SDNN", "RMSSD", "pNN50"}, tbl.Columns)
	assert.Equal(t, "2023-08-01 10:00:00", tbl.Rows[0][0])
}

func TestHRVEmpty(t *testing.T) {
	assert.Empty(t, HRV(nil))
	assert.Empty(t, HRV([]domain.HeartRateSample{hr(0, 60, math.NaN())}))
}

func TestActivityCorrelation(t *testing.T) {
	var pairs []domain.ActivityPair
	for i, a := range []float64{10, 20, 30, 40} {
		pairs = append(pairs, domain.NewActivityPair(t0.Add(time.Duration(i)*time.Minute), a, a))
	}
	samples := []domain.HeartRateSample{
		hr(0, 60, 1000),
		hr(30*time.Second, 99, 600),
		hr(time.Minute, 70, 850),
		hr(2*time.Minute, 80, 750),
		hr(3*time.Minute, math.NaN(), 0),
	}

	res, scaled := ActivityCorrelation("03", pairs, samples)
	assert.Equal(t, "03", res.ID)
	assert.Equal(t, 3, res.N)
	assert.InDelta(t, 1.0, res.Correlation, 1e-12)

	require.Len(t, scaled, 3)
	assert.Equal(t, []float64{0, 0.5, 1}, []float64{scaled[0].HR, scaled[1].HR, scaled[2].HR})
	assert.Equal(t, 1.0, scaled[2].Activity)

	tbl := ScaledTable(scaled, config.DefaultStudy().Columns)
	assert.Equal(t, []string{"time", "ActiAC", "HR"}, tbl.Columns)
	assert.Equal(t, 3, tbl.Len())
}
