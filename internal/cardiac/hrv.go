package cardiac

import (
	"math"
	"sort"
	"time"

	"charmcli/internal/config"
	"charmcli/internal/series"
	"charmcli/internal/stats"
	"charmcli/pkg/contracts/domain"
)

// Inter-beat intervals outside this range in ms, roughly 30 to 2400 bpm,
// are artefacts
const (
	MinIBI = 25
	MaxIBI = 2000
)

// minWindowIBIs is the number of intervals a window must exceed
const minWindowIBIs = 5

const nn50 = 50

// HRV computes the variability metrics per 10 minute window aligned to
// midnight. Windows with five or fewer valid intervals are skipped.
func HRV(samples []domain.HeartRateSample) []domain.HRVWindow {
	bins := make(map[time.Time][]float64)
	for _, s := range samples {
		if math.IsNaN(s.IBI) || s.IBI < MinIBI || s.IBI > MaxIBI {
			continue
		}
		bin := domain.FloorTo(s.Time.Time, config.HRVWindow)
		bins[bin] = append(bins[bin], s.IBI)
	}

	starts := make([]time.Time, 0, len(bins))
	for t := range bins {
		starts = append(starts, t)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	out := make([]domain.HRVWindow, 0, len(starts))
	for _, t := range starts {
		ibi := bins[t]
		if len(ibi) <= minWindowIBIs {
			continue
		}
		out = append(out, window(t, ibi))
	}
	return out
}

func window(t time.Time, ibi []float64) domain.HRVWindow {
	var sq float64
	over := 0
	for i := 1; i < len(ibi); i++ {
		d := ibi[i] - ibi[i-1]
		sq += d * d
		if math.Abs(d) > nn50 {
			over++
		}
	}
	return domain.HRVWindow{
		Time:   t,
		MeanRR: stats.Mean(ibi),
		SDNN:   stats.PopulationSD(ibi),
		RMSSD:  math.Sqrt(sq / float64(len(ibi)-1)),
		PNN50:  float64(over) / float64(len(ibi)) * 100,
	}
}

// HRVTable renders windows with the configured column labels
func HRVTable(windows []domain.HRVWindow, cols config.Columns) *series.Table {
	tbl := series.NewTable(cols.Time, cols.HRV1, cols.HRV2, cols.HRV3, cols.HRV4)
	for _, w := range windows {
		tbl.Append(w.Time, w.MeanRR, w.SDNN, w.RMSSD, w.PNN50)
	}
	return tbl
}
