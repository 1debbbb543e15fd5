package circadian

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"charmcli/internal/config"
	"charmcli/internal/series"
	"charmcli/internal/stats"
	"charmcli/pkg/contracts/domain"
)

// DayPeriod is 24 hours counted in circadian bins
const DayPeriod = float64(24 * time.Hour / config.CircadianBin)

// Point is one observation in cosinor form: X is the bin of the day
type Point struct {
	X    float64
	Y    float64
	Test string
}

// CosinorFormat places every sample of s on the 10 minute clock of the day.
// NaN values are dropped.
func CosinorFormat(label string, s series.Series) []Point {
	out := make([]Point, 0, len(s))
	binMinutes := config.CircadianBin.Minutes()
	for _, p := range s {
		if math.IsNaN(p.Value) {
			continue
		}
		x := float64(p.Time.Hour()*60+p.Time.Minute()) / binMinutes
		out = append(out, Point{X: x, Y: p.Value, Test: label})
	}
	return out
}

// ScaleY maps the Y values onto [0, 1]
func ScaleY(points []Point) []Point {
	y := make([]float64, len(points))
	for i, p := range points {
		y[i] = p.Y
	}
	scaled := stats.MinMaxScale(y)
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{X: p.X, Y: scaled[i], Test: p.Test}
	}
	return out
}

// Labels returns the distinct labels in order of first appearance
func Labels(points []Point) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range points {
		if !seen[p.Test] {
			seen[p.Test] = true
			out = append(out, p.Test)
		}
	}
	return out
}

// Select returns the points of one label
func Select(points []Point, label string) []Point {
	var out []Point
	for _, p := range points {
		if p.Test == label {
			out = append(out, p)
		}
	}
	return out
}

// olsFit is an ordinary least squares solution
type olsFit struct {
	beta []float64
	rss  float64
	tss  float64
	n    int
	k    int
	cov  *mat.SymDense // sigma^2 (X'X)^-1
}

func ols(x *mat.Dense, y []float64) (olsFit, error) {
	n, k := x.Dims()
	if n <= k {
		return olsFit{}, fmt.Errorf("need more than %d observations, have %d", k, n)
	}
	yv := mat.NewVecDense(n, y)

	var qr mat.QR
	qr.Factorize(x)
	var b mat.VecDense
	if err := qr.SolveVecTo(&b, false, yv); err != nil {
		return olsFit{}, err
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &b)
	mean := stat.Mean(y, nil)
	var rss, tss float64
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		rss += r * r
		d := y[i] - mean
		tss += d * d
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	cov := mat.NewSymDense(k, nil)
	var chol mat.Cholesky
	if chol.Factorize(&xtx) {
		var inv mat.SymDense
		if err := chol.InverseTo(&inv); err == nil {
			cov.ScaleSym(rss/float64(n-k), &inv)
		}
	}

	beta := make([]float64, k)
	for i := range beta {
		beta[i] = b.AtVec(i)
	}
	return olsFit{beta: beta, rss: rss, tss: tss, n: n, k: k, cov: cov}, nil
}

func (f olsFit) logLikelihood() float64 {
	n := float64(f.n)
	return -n / 2 * (math.Log(2*math.Pi) + math.Log(f.rss/n) + 1)
}

// fPValue tests the model against the intercept-only model
func (f olsFit) fPValue() float64 {
	df1 := float64(f.k - 1)
	df2 := float64(f.n - f.k)
	if f.rss == 0 {
		return 0
	}
	fstat := ((f.tss - f.rss) / df1) / (f.rss / df2)
	return stats.FTestSurvival(fstat, df1, df2)
}

// Acrophase converts the cosine and sine coefficients into the phase of the
// peak in radians on [0, 2π)
func Acrophase(beta, gamma float64) float64 {
	acr := -math.Atan2(gamma, beta)
	for acr < 0 {
		acr += 2 * math.Pi
	}
	return acr
}

// AcrophaseTime is the clock time of the peak in hours
func AcrophaseTime(acrophase float64) float64 {
	return 24 - 24*acrophase/(2*math.Pi)
}

// AcrophaseHour renders the clock time of the peak as HH:MM
func AcrophaseHour(acrophase float64) string {
	t := AcrophaseTime(acrophase)
	hours := int(t)
	minutes := int(math.Mod(t, 1) * 60)
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

func design(points []Point, period float64) *mat.Dense {
	x := mat.NewDense(len(points), 3, nil)
	for i, p := range points {
		w := 2 * math.Pi * p.X / period
		x.Set(i, 0, 1)
		x.Set(i, 1, math.Cos(w))
		x.Set(i, 2, math.Sin(w))
	}
	return x
}

// Fit fits y = M + β cos(2πx/T) + γ sin(2πx/T) to the points of one label
func Fit(label string, points []Point, period float64) (domain.CosinorFit, error) {
	y := make([]float64, len(points))
	for i, p := range points {
		y[i] = p.Y
	}
	fit, err := ols(design(points, period), y)
	if err != nil {
		return domain.CosinorFit{}, fmt.Errorf("cosinor fit of %s: %w", label, err)
	}

	mesor, beta, gamma := fit.beta[0], fit.beta[1], fit.beta[2]
	amp := math.Hypot(beta, gamma)
	acr := Acrophase(beta, gamma)

	peak := math.Mod(period*math.Atan2(gamma, beta)/(2*math.Pi)+period, period)
	trough := math.Mod(peak+period/2, period)

	n, k := float64(fit.n), float64(fit.k)
	r2 := 1 - fit.rss/fit.tss
	if fit.tss == 0 {
		r2 = math.NaN()
	}
	return domain.CosinorFit{
		Test:          label,
		Period:        period,
		NComponents:   1,
		P:             fit.fPValue(),
		RSS:           fit.rss,
		R2:            r2,
		R2Adj:         1 - (1-r2)*(n-1)/(n-k),
		LogLikelihood: fit.logLikelihood(),
		Amplitude:     amp,
		Acrophase:     acr,
		Mesor:         mesor,
		Peak:          peak,
		PeakHeight:    mesor + amp,
		Trough:        trough,
		TroughHeight:  mesor - amp,
		Time:          AcrophaseTime(acr),
		Hour:          AcrophaseHour(acr),
		N:             fit.n,
	}, nil
}

// FitGroup fits every label and adjusts the p-values for the number of
// labels (Benjamini-Hochberg). Labels that cannot be fitted are reported
// in the returned error list and left out.
func FitGroup(points []Point, period float64) ([]domain.CosinorFit, []error) {
	var fits []domain.CosinorFit
	var errs []error
	for _, label := range Labels(points) {
		f, err := Fit(label, Select(points, label), period)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fits = append(fits, f)
	}

	p := make([]float64, len(fits))
	for i, f := range fits {
		p[i] = f.P
	}
	for i, q := range stats.BenjaminiHochberg(p) {
		fits[i].Q = q
	}
	return fits, errs
}
