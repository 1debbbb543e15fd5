package activity

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"charmcli/internal/stats"
	"charmcli/pkg/contracts/domain"
)

// Band-pass filter of the ActiGraph count algorithm at 30 Hz
var (
	bpfInput = []float64{
		-0.009341062898525, -0.025470289659360, -0.004235264826105,
		0.044152415456420, 0.036493718347760, -0.011893961934740,
		-0.022917390623150, -0.006788163862310, 0,
	}
	bpfOutput = []float64{
		1, -3.63367395910957, 5.03689812757486,
		-3.09612247819666, 0.50620507633883, 0.32421701566682,
		-0.15685485875559, 0.01949130205890, 0,
	}
)

const (
	targetFrequency = 30
	countGain       = (3.0 / 4096.0) / (2.6 / 256.0) * 237.5
	deadBand        = 4
	saturation      = 128
)

// resampleFactors maps a sampling frequency to the up and down factors that
// bring it to 30 Hz
var resampleFactors = map[int][2]int{
	30:  {1, 1},
	40:  {3, 4},
	50:  {3, 5},
	60:  {1, 2},
	70:  {3, 7},
	80:  {3, 8},
	90:  {1, 3},
	100: {3, 10},
}

// CountOptions configures Counts
type CountOptions struct {
	Frequency int
	Epoch     time.Duration
}

// DefaultCountOptions match the 50 Hz smartwatch export and 60 s epochs
func DefaultCountOptions() CountOptions {
	return CountOptions{Frequency: 50, Epoch: time.Minute}
}

func (o CountOptions) step() time.Duration {
	return time.Second / time.Duration(o.Frequency)
}

// Counts computes per-epoch activity counts for one continuous recording.
// Missing samples between the first and last minute are filled with zeros
// before filtering. Each epoch carries the counts of the three axes and
// their vector magnitude in AC.
func Counts(samples []domain.AccelSample, opts CountOptions) ([]domain.ActigraphEpoch, error) {
	if _, ok := resampleFactors[opts.Frequency]; !ok {
		return nil, fmt.Errorf("unsupported sampling frequency %d Hz", opts.Frequency)
	}
	clean := make([]domain.AccelSample, 0, len(samples))
	for _, s := range samples {
		if math.IsNaN(s.X) || math.IsNaN(s.Y) || math.IsNaN(s.Z) {
			continue
		}
		clean = append(clean, s)
	}
	if len(clean) == 0 {
		return nil, nil
	}

	grid := fillGrid(clean, opts.step())
	epochTimes := uniqueFloors(grid, opts.Epoch)

	axes := make([][]float64, 3)
	for a := range axes {
		axes[a] = make([]float64, len(grid))
	}
	for i, s := range grid {
		axes[0][i], axes[1][i], axes[2][i] = s.X, s.Y, s.Z
	}

	blocks := int(opts.Epoch / (100 * time.Millisecond))
	var perAxis [3][]float64
	for a := range axes {
		perAxis[a] = axisCounts(axes[a], opts.Frequency, blocks)
	}

	n := len(perAxis[0])
	if len(epochTimes) < n {
		n = len(epochTimes)
	}
	out := make([]domain.ActigraphEpoch, n)
	for i := 0; i < n; i++ {
		a1, a2, a3 := perAxis[0][i], perAxis[1][i], perAxis[2][i]
		out[i] = domain.ActigraphEpoch{
			Time:  domain.NewTimestamp(epochTimes[i]),
			Axis1: a1,
			Axis2: a2,
			Axis3: a3,
			AC:    math.Sqrt(a1*a1 + a2*a2 + a3*a3),
		}
	}
	return out, nil
}

// fillGrid returns the samples on a regular grid from the minute of the
// first sample up to, but excluding, the minute after the last one. Grid
// points without a sample are zero.
func fillGrid(samples []domain.AccelSample, step time.Duration) []domain.AccelSample {
	sorted := append([]domain.AccelSample(nil), samples...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	first := domain.FloorTo(sorted[0].Time, time.Minute)
	last := domain.CeilTo(sorted[len(sorted)-1].Time, time.Minute)

	present := make(map[int64]struct{}, len(sorted))
	for _, s := range sorted {
		present[s.Time.UnixNano()] = struct{}{}
	}

	out := make([]domain.AccelSample, 0, int(last.Sub(first)/step)+len(sorted))
	j := 0
	for t := first; t.Before(last); t = t.Add(step) {
		for j < len(sorted) && sorted[j].Time.Before(t) {
			out = append(out, sorted[j])
			j++
		}
		if _, ok := present[t.UnixNano()]; !ok {
			out = append(out, domain.AccelSample{Time: t})
		}
	}
	return append(out, sorted[j:]...)
}

func uniqueFloors(samples []domain.AccelSample, epoch time.Duration) []time.Time {
	var out []time.Time
	for _, s := range samples {
		t := domain.FloorTo(s.Time, epoch)
		if len(out) == 0 || !out[len(out)-1].Equal(t) {
			out = append(out, t)
		}
	}
	return out
}

// axisCounts runs the filter chain on one axis and sums blocks of 10 Hz
// values into epochs. A trailing partial epoch is dropped.
func axisCounts(raw []float64, frequency, block int) []float64 {
	x := resample(raw, frequency)
	y := bandPass(x)

	for i, v := range y {
		v = math.Abs(countGain * v)
		if v > saturation {
			v = saturation
		}
		if v < deadBand {
			v = 0
		}
		y[i] = math.Floor(v)
	}

	tenHz := make([]float64, 0, len(y)/3)
	for i := 2; i < len(y); i += 3 {
		tenHz = append(tenHz, math.Floor((y[i-2]+y[i-1]+y[i])/3))
	}

	epochs := make([]float64, 0, len(tenHz)/block)
	for i := block; i <= len(tenHz); i += block {
		epochs = append(epochs, math.Floor(stats.Sum(tenHz[i-block:i])))
	}
	return epochs
}

// resample brings raw to 30 Hz: zero-stuffed upsampling, a first order low
// pass for frequencies that are not integer multiples of 30 Hz, decimation
// and rounding to three decimals.
func resample(raw []float64, frequency int) []float64 {
	f := resampleFactors[frequency]
	up, down := f[0], f[1]
	if up == 1 && down == 1 {
		return append([]float64(nil), raw...)
	}

	upsampled := make([]float64, len(raw)*up)
	for i, v := range raw {
		upsampled[i*up] = v * float64(up)
	}

	filtered := upsampled
	if frequency%targetFrequency != 0 {
		a := math.Pi / (math.Pi + 2*float64(up))
		b := (math.Pi - 2*float64(up)) / (math.Pi + 2*float64(up))
		filtered = make([]float64, len(upsampled))
		if len(upsampled) > 0 {
			filtered[0] = a * upsampled[0]
		}
		for i := 1; i < len(upsampled); i++ {
			filtered[i] = a*upsampled[i] + a*upsampled[i-1] - b*filtered[i-1]
		}
	}

	out := make([]float64, 0, len(filtered)/down+1)
	for i := 0; i < len(filtered); i += down {
		out = append(out, math.RoundToEven(filtered[i]*1000)/1000)
	}
	return out
}

// bandPass applies the IIR filter in transposed direct form II, starting
// from the steady state for a constant input equal to the first sample.
func bandPass(x []float64) []float64 {
	y := make([]float64, len(x))
	if len(x) == 0 {
		return y
	}
	z := steadyState(bpfInput, bpfOutput)
	for i := range z {
		z[i] *= x[0]
	}

	b, a := bpfInput, bpfOutput
	m := len(z)
	for n, v := range x {
		out := b[0]*v + z[0]
		for i := 0; i < m-1; i++ {
			z[i] = b[i+1]*v + z[i+1] - a[i+1]*out
		}
		z[m-1] = b[m]*v - a[m]*out
		y[n] = out
	}
	return y
}

// steadyState solves (I - A^T) zi = b[1:] - a[1:]*b[0] where A is the
// companion matrix of a. a[0] must be 1.
func steadyState(b, a []float64) []float64 {
	m := len(a) - 1
	lhs := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		lhs.Set(i, i, 1)
	}
	for i := 0; i < m; i++ {
		lhs.Set(i, 0, lhs.At(i, 0)+a[i+1])
		if i+1 < m {
			lhs.Set(i, i+1, lhs.At(i, i+1)-1)
		}
	}

	rhs := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		rhs.SetVec(i, b[i+1]-a[i+1]*b[0])
	}

	var zi mat.VecDense
	if err := zi.SolveVec(lhs, rhs); err != nil {
		return make([]float64, m)
	}
	out := make([]float64, m)
	for i := range out {
		out[i] = zi.AtVec(i)
	}
	return out
}
