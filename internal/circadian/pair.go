package circadian

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"charmcli/internal/stats"
	"charmcli/pkg/contracts/domain"
)

// pair model columns: 1, cos, sin, g, g·cos, g·sin where g marks the second label
const pairParams = 6

// ComparePair fits one joint cosinor model to the points of two labels and
// tests the second label's amplitude, acrophase and mesor against the first.
// Differences are second minus first. The F statistic compares the joint
// model with one where both labels share the rhythm and only the mesor
// differs.
func ComparePair(points []Point, first, second string, period float64) (domain.CosinorPairComparison, error) {
	a := Select(points, first)
	b := Select(points, second)
	res := domain.CosinorPairComparison{Test: first + " vs. " + second}
	if len(a) == 0 || len(b) == 0 {
		return res, fmt.Errorf("compare %s: both labels need observations", res.Test)
	}

	n := len(a) + len(b)
	full := mat.NewDense(n, pairParams, nil)
	reduced := mat.NewDense(n, 4, nil)
	y := make([]float64, n)
	for i, p := range append(append(make([]Point, 0, n), a...), b...) {
		g := 0.0
		if i >= len(a) {
			g = 1
		}
		w := 2 * math.Pi * p.X / period
		c, s := math.Cos(w), math.Sin(w)
		full.SetRow(i, []float64{1, c, s, g, g * c, g * s})
		reduced.SetRow(i, []float64{1, c, s, g})
		y[i] = p.Y
	}

	fit, err := ols(full, y)
	if err != nil {
		return res, fmt.Errorf("compare %s: %w", res.Test, err)
	}
	base, err := ols(reduced, y)
	if err != nil {
		return res, fmt.Errorf("compare %s: %w", res.Test, err)
	}

	b0 := fit.beta
	beta1, gamma1 := b0[1], b0[2]
	beta2, gamma2 := b0[1]+b0[4], b0[2]+b0[5]
	amp1, amp2 := math.Hypot(beta1, gamma1), math.Hypot(beta2, gamma2)
	acr1, acr2 := Acrophase(beta1, gamma1), Acrophase(beta2, gamma2)

	df := float64(fit.n - fit.k)
	test := func(d float64, grad []float64) float64 {
		g := mat.NewVecDense(pairParams, grad)
		se := math.Sqrt(mat.Inner(g, fit.cov, g))
		if se == 0 || math.IsNaN(se) {
			return math.NaN()
		}
		return stats.StudentTwoSided(d/se, df)
	}

	res.Amplitude1, res.Amplitude2 = amp1, amp2
	res.DAmplitude = amp2 - amp1
	res.PDAmplitude = test(res.DAmplitude, []float64{
		0,
		beta2/amp2 - beta1/amp1,
		gamma2/amp2 - gamma1/amp1,
		0,
		beta2 / amp2,
		gamma2 / amp2,
	})

	res.Acrophase1, res.Acrophase2 = acr1, acr2
	res.DAcrophase = wrapPhase(acr2 - acr1)
	r1, r2 := amp1*amp1, amp2*amp2
	res.PDAcrophase = test(res.DAcrophase, []float64{
		0,
		gamma2/r2 - gamma1/r1,
		beta1/r1 - beta2/r2,
		0,
		gamma2 / r2,
		-beta2 / r2,
	})

	res.Mesor1, res.Mesor2 = b0[0], b0[0]+b0[3]
	res.DMesor = b0[3]
	res.PDMesor = test(res.DMesor, []float64{0, 0, 0, 1, 0, 0})

	extra := float64(fit.k - base.k)
	if fit.rss > 0 {
		res.FStatistic = ((base.rss - fit.rss) / extra) / (fit.rss / df)
		res.PRhythm = stats.FTestSurvival(res.FStatistic, extra, df)
	} else {
		res.FStatistic, res.PRhythm = math.Inf(1), 0
	}
	return res, nil
}

// wrapPhase maps a phase difference onto (-π, π]
func wrapPhase(d float64) float64 {
	for d <= -math.Pi {
		d += 2 * math.Pi
	}
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	return d
}
