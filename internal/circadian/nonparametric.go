package circadian

import (
	"math"
	"sort"

	"charmcli/internal/series"
	"charmcli/internal/stats"
	"charmcli/pkg/contracts/domain"
)

const (
	mostActiveHours  = 10
	leastActiveHours = 5
)

// NonParametric computes interdaily stability, intradaily variability and
// the most and least active hours of a min-max scaled series. The series is
// expected in time order; NaN values are ignored.
func NonParametric(id, label string, s series.Series) domain.NonParametric {
	res := domain.NonParametric{ID: id, Measurement: label}

	values := make([]float64, 0, len(s))
	type clock struct{ h, m int }
	byClock := make(map[clock][]float64)
	byHour := make(map[int][]float64)
	for _, p := range s {
		if math.IsNaN(p.Value) {
			continue
		}
		values = append(values, p.Value)
		k := clock{p.Time.Hour(), p.Time.Minute()}
		byClock[k] = append(byClock[k], p.Value)
		byHour[p.Time.Hour()] = append(byHour[p.Time.Hour()], p.Value)
	}

	total := stats.SampleVariance(values)

	profile := make([]float64, 0, len(byClock))
	for _, v := range byClock {
		profile = append(profile, stats.Mean(v))
	}
	res.IS = stats.SampleVariance(profile) / total

	if len(values) > 1 {
		var sq float64
		for i := 1; i < len(values); i++ {
			d := values[i] - values[i-1]
			sq += d * d
		}
		res.IV = sq / float64(len(values)-1) / total
	} else {
		res.IV = math.NaN()
	}

	hourly := make([]float64, 0, len(byHour))
	for _, v := range byHour {
		hourly = append(hourly, stats.Mean(v))
	}
	sort.Float64s(hourly)
	if len(hourly) == 0 {
		res.M10, res.L5, res.RA = math.NaN(), math.NaN(), math.NaN()
		return res
	}
	res.L5 = stats.Mean(hourly[:min(leastActiveHours, len(hourly))])
	res.M10 = stats.Mean(hourly[len(hourly)-min(mostActiveHours, len(hourly)):])
	res.RA = (res.M10 - res.L5) / (res.M10 + res.L5)
	return res
}

// ScaleSeries returns s with values min-max scaled onto [0, 1]
func ScaleSeries(s series.Series) series.Series {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Value
	}
	scaled := stats.MinMaxScale(values)
	out := make(series.Series, len(s))
	for i, p := range s {
		out[i] = domain.Sample{Time: p.Time, Value: scaled[i]}
	}
	return out
}
