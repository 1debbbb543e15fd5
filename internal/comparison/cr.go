package comparison

import (
	"math"
	"strconv"

	"charmcli/internal/stats"
	"charmcli/pkg/contracts/domain"
)

const (
	summaryPlaces = 2
	testPlaces    = 4
)

// pairSummary renders "value(spread)" with both parts rounded
func pairSummary(value, spread float64) string {
	return formatRounded(value) + "(" + formatRounded(spread) + ")"
}

func formatRounded(x float64) string {
	return strconv.FormatFloat(stats.Round(x, summaryPlaces), 'f', -1, 64)
}

// CompareWithReference compares every metric of each tested sensor with the
// reference sensor over the participants that have both values. Rows are
// ordered by metric, then by sensor.
func CompareWithReference(m *Metrics, ref string, tested []string) []domain.CRComparison {
	var out []domain.CRComparison
	for _, metric := range AllMetrics() {
		for _, sensor := range tested {
			_, a, b := m.Paired(metric, ref, sensor)
			out = append(out, compareMetric(metric, sensor, a, b))
		}
	}
	return out
}

func compareMetric(metric, sensor string, ref, test []float64) domain.CRComparison {
	w := stats.WilcoxonSignedRank(ref, test)
	r := stats.Pearson(ref, test)
	return domain.CRComparison{
		Metric:        metric,
		Sensor:        sensor,
		N:             len(ref),
		MeanSDRef:     pairSummary(stats.Mean(ref), stats.SampleSD(ref)),
		MeanSDTest:    pairSummary(stats.Mean(test), stats.SampleSD(test)),
		MedianIQRRef:  pairSummary(stats.Median(ref), stats.IQR(ref)),
		MedianIQRTest: pairSummary(stats.Median(test), stats.IQR(test)),
		MAE:           stats.MAE(ref, test),
		RMSE:          stats.RMSE(ref, test),
		WStatistic:    stats.Round(w.Statistic, testPlaces),
		WPValue:       stats.Round(w.P, testPlaces),
		Correlation:   stats.Round(r.Statistic, testPlaces),
		CorrPValue:    stats.Round(r.P, testPlaces),
	}
}

// CorrelateWithMEQ correlates every metric of every sensor with the MEQ
// score of the participants that have both
func CorrelateWithMEQ(m *Metrics, meq []domain.MEQScore, sensors []string) []domain.MEQCorrelation {
	var out []domain.MEQCorrelation
	for _, metric := range AllMetrics() {
		for _, sensor := range sensors {
			var scores, values []float64
			for _, q := range meq {
				v, ok := m.Value(q.ID, sensor, metric)
				if !ok || math.IsNaN(q.Score) {
					continue
				}
				scores = append(scores, q.Score)
				values = append(values, v)
			}
			r := stats.Pearson(scores, values)
			out = append(out, domain.MEQCorrelation{
				Metric:      metric,
				Sensor:      sensor,
				N:           len(scores),
				Correlation: r.Statistic,
				PValue:      r.P,
			})
		}
	}
	return out
}
