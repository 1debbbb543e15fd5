package stats

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
)

// Round rounds x to the given number of decimal places. NaN and Inf pass
// through unchanged.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r, err := mstats.Round(x, places)
	if err != nil {
		return x
	}
	return r
}

// Mean returns the arithmetic mean or NaN for empty input
func Mean(x []float64) float64 {
	m, err := mstats.Mean(x)
	if err != nil {
		return math.NaN()
	}
	return m
}

// Median returns the median or NaN for empty input
func Median(x []float64) float64 {
	m, err := mstats.Median(x)
	if err != nil {
		return math.NaN()
	}
	return m
}

// SampleSD is the standard deviation with n-1 in the denominator
func SampleSD(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	sd, err := mstats.StandardDeviationSample(x)
	if err != nil {
		return math.NaN()
	}
	return sd
}

// PopulationSD is the standard deviation with n in the denominator
func PopulationSD(x []float64) float64 {
	sd, err := mstats.StandardDeviationPopulation(x)
	if err != nil {
		return math.NaN()
	}
	return sd
}

// SampleVariance is the unbiased variance
func SampleVariance(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	v, err := mstats.SampleVariance(x)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Sum of x
func Sum(x []float64) float64 {
	s, _ := mstats.Sum(x)
	return s
}

// Quantile returns the q-th quantile using linear interpolation between the
// closest ranks, h = (n-1)q. This matches the default of most dataframe
// libraries, which montanaflynn's Percentile does not.
func Quantile(x []float64, q float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, x)
	sort.Float64s(sorted)

	h := float64(n-1) * q
	lo := math.Floor(h)
	hi := math.Ceil(h)
	if lo == hi {
		return sorted[int(lo)]
	}
	return sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
}

// IQR is the distance between the 75th and 25th quantile
func IQR(x []float64) float64 {
	return Quantile(x, 0.75) - Quantile(x, 0.25)
}

// Description holds the summary produced by Describe
type Description struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// Describe summarises x, skipping NaN values
func Describe(x []float64) Description {
	clean := DropNaN(x)
	if len(clean) == 0 {
		nan := math.NaN()
		return Description{Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	}
	minV, _ := mstats.Min(clean)
	maxV, _ := mstats.Max(clean)
	return Description{
		Count: len(clean),
		Mean:  Mean(clean),
		Std:   SampleSD(clean),
		Min:   minV,
		Q25:   Quantile(clean, 0.25),
		Q50:   Quantile(clean, 0.5),
		Q75:   Quantile(clean, 0.75),
		Max:   maxV,
	}
}

// DropNaN returns x without NaN entries
func DropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// MinMaxScale maps x linearly onto [0, 1]. NaN values stay NaN and a
// constant series maps to zeros.
func MinMaxScale(x []float64) []float64 {
	clean := DropNaN(x)
	out := make([]float64, len(x))
	if len(clean) == 0 {
		copy(out, x)
		return out
	}
	lo, _ := mstats.Min(clean)
	hi, _ := mstats.Max(clean)
	span := hi - lo
	for i, v := range x {
		switch {
		case math.IsNaN(v):
			out[i] = v
		case span == 0:
			out[i] = 0
		default:
			out[i] = (v - lo) / span
		}
	}
	return out
}

// MAE is the mean absolute error between paired samples
func MAE(a, b []float64) float64 {
	n := pairLen(a, b)
	if n == 0 {
		return math.NaN()
	}
	var s float64
	for i := 0; i < n; i++ {
		s += math.Abs(a[i] - b[i])
	}
	return s / float64(n)
}

// RMSE is the root mean squared error between paired samples
func RMSE(a, b []float64) float64 {
	n := pairLen(a, b)
	if n == 0 {
		return math.NaN()
	}
	var s float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

// BlandAltman returns the mean difference b-a and the half width of the
// 95% limits of agreement
func BlandAltman(a, b []float64) (meanDiff, loa float64) {
	n := pairLen(a, b)
	diff := make([]float64, n)
	for i := 0; i < n; i++ {
		diff[i] = b[i] - a[i]
	}
	return Mean(diff), 1.96 * SampleSD(diff)
}

func pairLen(a, b []float64) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}
