// Package series holds the time-indexed value slices shared by the analysis
// packages together with the resampling and join operations they need.
package series

import (
	"math"
	"sort"
	"time"

	"charmcli/pkg/contracts/domain"
)

// Series is a sequence of samples, normally sorted by time
type Series []domain.Sample

// New pairs times and values. Extra entries of the longer slice are ignored.
func New(times []time.Time, values []float64) Series {
	n := len(times)
	if len(values) < n {
		n = len(values)
	}
	s := make(Series, n)
	for i := 0; i < n; i++ {
		s[i] = domain.Sample{Time: times[i], Value: values[i]}
	}
	return s
}

// Values returns the sample values
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Times returns the sample times
func (s Series) Times() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.Time
	}
	return out
}

// Sort orders the samples by time, keeping the order of equal times
func (s Series) Sort() {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Time.Before(s[j].Time) })
}

// DropNaN returns the samples with a defined value
func (s Series) DropNaN() Series {
	out := make(Series, 0, len(s))
	for _, p := range s {
		if !math.IsNaN(p.Value) {
			out = append(out, p)
		}
	}
	return out
}

// Between keeps samples in [start, end)
func (s Series) Between(start, end time.Time) Series {
	out := make(Series, 0, len(s))
	for _, p := range s {
		if !p.Time.Before(start) && p.Time.Before(end) {
			out = append(out, p)
		}
	}
	return out
}

// Map applies f to every value
func (s Series) Map(f func(float64) float64) Series {
	out := make(Series, len(s))
	for i, p := range s {
		out[i] = domain.Sample{Time: p.Time, Value: f(p.Value)}
	}
	return out
}

// Aggregation selects how samples inside one bin are combined
type Aggregation int

const (
	// Sum adds the samples of a bin. Empty bins between the first and last
	// sample count as zero.
	Sum Aggregation = iota
	// Mean averages the samples of a bin. Empty bins are left out and NaN
	// samples are ignored.
	Mean
)

// Resample groups samples into bins of width d counted from midnight and
// labels each bin with its start. The input must be sorted.
func (s Series) Resample(d time.Duration, agg Aggregation) Series {
	if len(s) == 0 {
		return nil
	}

	type bin struct {
		sum float64
		n   int
	}
	bins := make(map[time.Time]*bin)
	for _, p := range s {
		key := domain.FloorTo(p.Time, d)
		b, ok := bins[key]
		if !ok {
			b = &bin{}
			bins[key] = b
		}
		if math.IsNaN(p.Value) {
			continue
		}
		b.sum += p.Value
		b.n++
	}

	first := domain.FloorTo(s[0].Time, d)
	last := domain.FloorTo(s[len(s)-1].Time, d)
	var out Series
	for t := first; !t.After(last); t = t.Add(d) {
		b, ok := bins[t]
		switch agg {
		case Sum:
			v := 0.0
			if ok {
				v = b.sum
			}
			out = append(out, domain.Sample{Time: t, Value: v})
		case Mean:
			if ok && b.n > 0 {
				out = append(out, domain.Sample{Time: t, Value: b.sum / float64(b.n)})
			}
		}
	}
	return out
}

// Joined holds the values of two series at their common times
type Joined struct {
	Times []time.Time
	Left  []float64
	Right []float64
}

// Len is the number of joined rows
func (j Joined) Len() int {
	return len(j.Times)
}

// InnerJoin matches samples with equal times. Rows follow the order of left;
// a time repeated in right pairs with its last occurrence.
func InnerJoin(left, right Series) Joined {
	idx := make(map[int64]float64, len(right))
	for _, p := range right {
		idx[p.Time.UnixNano()] = p.Value
	}

	var j Joined
	for _, p := range left {
		v, ok := idx[p.Time.UnixNano()]
		if !ok {
			continue
		}
		j.Times = append(j.Times, p.Time)
		j.Left = append(j.Left, p.Value)
		j.Right = append(j.Right, v)
	}
	return j
}
