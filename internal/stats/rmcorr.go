package stats

import (
	"math"
)

// RMCorrResult is a repeated measures correlation
type RMCorrResult struct {
	R        float64
	DOF      int
	P        float64
	CILower  float64
	CIUpper  float64
	Subjects int
}

// RMCorr estimates the common within-subject association of x and y
// (Bakdash & Marusich). Each subject's values are centred on the subject
// mean before correlating, so between-subject differences do not count.
func RMCorr(subjects []string, x, y []float64) RMCorrResult {
	n := len(subjects)
	if len(x) < n {
		n = len(x)
	}
	if len(y) < n {
		n = len(y)
	}

	type acc struct {
		sx, sy float64
		n      int
	}
	groups := make(map[string]*acc)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		g, ok := groups[subjects[i]]
		if !ok {
			g = &acc{}
			groups[subjects[i]] = g
		}
		g.sx += x[i]
		g.sy += y[i]
		g.n++
	}

	var sxy, sxx, syy float64
	total := 0
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		g := groups[subjects[i]]
		dx := x[i] - g.sx/float64(g.n)
		dy := y[i] - g.sy/float64(g.n)
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
		total++
	}

	res := RMCorrResult{Subjects: len(groups)}
	res.DOF = total - len(groups) - 1
	if res.DOF < 1 || sxx == 0 || syy == 0 {
		nan := math.NaN()
		res.R, res.P, res.CILower, res.CIUpper = nan, nan, nan, nan
		return res
	}

	r := sxy / math.Sqrt(sxx*syy)
	res.R = r
	df := float64(res.DOF)
	if math.Abs(r) >= 1 {
		res.P = 0
	} else {
		res.P = studentTwoSided(r*math.Sqrt(df/(1-r*r)), df)
	}

	// Fisher z interval with the residual degrees of freedom as sample size
	if df > 3 && math.Abs(r) < 1 {
		z := math.Atanh(r)
		se := 1 / math.Sqrt(df-3)
		res.CILower = Round(math.Tanh(z-1.96*se), 2)
		res.CIUpper = Round(math.Tanh(z+1.96*se), 2)
	} else {
		res.CILower, res.CIUpper = math.NaN(), math.NaN()
	}
	return res
}
