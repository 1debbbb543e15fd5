package cardiac

import (
	"math"
	"time"

	"charmcli/internal/config"
	"charmcli/internal/series"
	"charmcli/internal/stats"
	"charmcli/pkg/contracts/domain"
)

// ScaledPoint is a minute with both series mapped onto [0, 1]
type ScaledPoint struct {
	Time     time.Time
	Activity float64
	HR       float64
}

// ScaledTable renders scaled points with the configured labels
func ScaledTable(points []ScaledPoint, cols config.Columns) *series.Table {
	tbl := series.NewTable(cols.Time, cols.Acti, cols.HR)
	for _, p := range points {
		tbl.Append(p.Time, p.Activity, p.HR)
	}
	return tbl
}

// ActivityCorrelation joins the Actigraph counts of the cleaned activity
// series with heart rate samples taken at the same instant. Rows missing
// either value are dropped before correlating. The joined series are also
// returned min-max scaled for plotting.
func ActivityCorrelation(id string, pairs []domain.ActivityPair, hr []domain.HeartRateSample) (domain.HRActivityCorr, []ScaledPoint) {
	byTime := make(map[time.Time][]float64)
	for _, s := range hr {
		byTime[s.Time.Time] = append(byTime[s.Time.Time], s.HR)
	}

	var times []time.Time
	var act, rate []float64
	for _, p := range pairs {
		for _, h := range byTime[p.Time] {
			if math.IsNaN(p.Acti) || math.IsNaN(h) {
				continue
			}
			times = append(times, p.Time)
			act = append(act, p.Acti)
			rate = append(rate, h)
		}
	}

	r := stats.Pearson(act, rate)
	res := domain.HRActivityCorr{
		ID:          id,
		N:           len(act),
		Correlation: r.Statistic,
		PValue:      r.P,
	}

	sa, sr := stats.MinMaxScale(act), stats.MinMaxScale(rate)
	scaled := make([]ScaledPoint, len(times))
	for i := range times {
		scaled[i] = ScaledPoint{Time: times[i], Activity: sa[i], HR: sr[i]}
	}
	return res, scaled
}
