package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TestResult is a statistic with its two-sided p-value
type TestResult struct {
	Statistic float64
	P         float64
}

func nanResult() TestResult {
	return TestResult{Statistic: math.NaN(), P: math.NaN()}
}

// studentTwoSided returns the two-sided p-value of t with df degrees of freedom
func studentTwoSided(t, df float64) float64 {
	if math.IsNaN(t) || df <= 0 {
		return math.NaN()
	}
	if math.IsInf(t, 0) {
		return 0
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return math.Min(1, 2*dist.Survival(math.Abs(t)))
}

func normalTwoSided(z float64) float64 {
	if math.IsNaN(z) {
		return math.NaN()
	}
	return math.Min(1, 2*distuv.UnitNormal.Survival(math.Abs(z)))
}

// TTestInd is the independent two-sample t-test with pooled variance
func TTestInd(a, b []float64) TestResult {
	n1, n2 := float64(len(a)), float64(len(b))
	if n1 < 2 || n2 < 2 {
		return nanResult()
	}
	df := n1 + n2 - 2
	pooled := ((n1-1)*SampleVariance(a) + (n2-1)*SampleVariance(b)) / df
	denom := math.Sqrt(pooled * (1/n1 + 1/n2))
	t := (Mean(a) - Mean(b)) / denom
	if denom == 0 {
		t = math.NaN()
	}
	return TestResult{Statistic: t, P: studentTwoSided(t, df)}
}

// Pearson returns the correlation coefficient of paired samples and the
// p-value of the null hypothesis of no correlation
func Pearson(x, y []float64) TestResult {
	n := pairLen(x, y)
	if n < 2 {
		return nanResult()
	}
	r := stat.Correlation(x[:n], y[:n], nil)
	if math.IsNaN(r) {
		return nanResult()
	}
	r = math.Max(-1, math.Min(1, r))
	if n == 2 {
		return TestResult{Statistic: r, P: 1}
	}
	df := float64(n - 2)
	if math.Abs(r) == 1 {
		return TestResult{Statistic: r, P: 0}
	}
	t := r * math.Sqrt(df/(1-r*r))
	return TestResult{Statistic: r, P: studentTwoSided(t, df)}
}

// Regression is a simple least squares line y = Intercept + Slope*x
type Regression struct {
	Slope     float64
	Intercept float64
	RSquared  float64
}

// LinearRegression fits y on x
func LinearRegression(x, y []float64) Regression {
	n := pairLen(x, y)
	if n < 2 {
		return Regression{Slope: math.NaN(), Intercept: math.NaN(), RSquared: math.NaN()}
	}
	alpha, beta := stat.LinearRegression(x[:n], y[:n], nil, false)
	return Regression{
		Slope:     beta,
		Intercept: alpha,
		RSquared:  stat.RSquared(x[:n], y[:n], nil, alpha, beta),
	}
}

// Rank assigns 1-based ranks, ties get the average rank. The second result
// holds the size of every tie group.
func Rank(x []float64) ([]float64, []int) {
	n := len(x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	ranks := make([]float64, n)
	var ties []int
	for i := 0; i < n; {
		j := i
		for j+1 < n && x[idx[j+1]] == x[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		if j > i {
			ties = append(ties, j-i+1)
		}
		i = j + 1
	}
	return ranks, ties
}

// exactWilcoxonLimit is the largest sample handled by the exact null
// distribution
const exactWilcoxonLimit = 50

// WilcoxonSignedRank tests paired samples. Zero differences are discarded.
// The statistic is the smaller of the positive and negative rank sums. The
// exact null distribution is used for small samples without ties, a normal
// approximation with tie correction otherwise.
func WilcoxonSignedRank(x, y []float64) TestResult {
	n := pairLen(x, y)
	d := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if diff := x[i] - y[i]; diff != 0 && !math.IsNaN(diff) {
			d = append(d, diff)
		}
	}
	if len(d) == 0 {
		return nanResult()
	}

	abs := make([]float64, len(d))
	for i, v := range d {
		abs[i] = math.Abs(v)
	}
	ranks, ties := Rank(abs)

	var rPlus, rMinus float64
	for i, v := range d {
		if v > 0 {
			rPlus += ranks[i]
		} else {
			rMinus += ranks[i]
		}
	}
	w := math.Min(rPlus, rMinus)
	m := len(d)

	if m <= exactWilcoxonLimit && len(ties) == 0 {
		return TestResult{Statistic: w, P: math.Min(1, 2*signedRankCDF(m, int(w)))}
	}

	nf := float64(m)
	mean := nf * (nf + 1) / 4
	variance := nf * (nf + 1) * (2*nf + 1)
	for _, t := range ties {
		tf := float64(t)
		variance -= 0.5 * tf * (tf*tf - 1)
	}
	se := math.Sqrt(variance / 24)
	z := (w - mean) / se
	return TestResult{Statistic: w, P: normalTwoSided(z)}
}

// signedRankCDF is P(W+ <= w) for n untied ranks
func signedRankCDF(n, w int) float64 {
	maxSum := n * (n + 1) / 2
	counts := make([]float64, maxSum+1)
	counts[0] = 1
	for k := 1; k <= n; k++ {
		for s := maxSum; s >= k; s-- {
			counts[s] += counts[s-k]
		}
	}
	var below float64
	for s := 0; s <= w && s <= maxSum; s++ {
		below += counts[s]
	}
	return below / math.Pow(2, float64(n))
}

// RankSums is the Wilcoxon rank-sum test without tie correction
func RankSums(a, b []float64) TestResult {
	n1, n2 := len(a), len(b)
	if n1 == 0 || n2 == 0 {
		return nanResult()
	}
	all := append(append(make([]float64, 0, n1+n2), a...), b...)
	ranks, _ := Rank(all)
	var s float64
	for i := 0; i < n1; i++ {
		s += ranks[i]
	}
	f1, f2 := float64(n1), float64(n2)
	expected := f1 * (f1 + f2 + 1) / 2
	z := (s - expected) / math.Sqrt(f1*f2*(f1+f2+1)/12)
	return TestResult{Statistic: z, P: normalTwoSided(z)}
}

// KruskalWallis tests whether the groups share a distribution. The result
// is NaN unless there are at least two groups and every group has a value.
func KruskalWallis(groups ...[]float64) TestResult {
	k := len(groups)
	if k < 2 {
		return nanResult()
	}
	var all []float64
	for _, g := range groups {
		if len(g) == 0 {
			return nanResult()
		}
		all = append(all, g...)
	}
	ranks, ties := Rank(all)
	n := float64(len(all))

	var h float64
	offset := 0
	for _, g := range groups {
		var r float64
		for i := range g {
			r += ranks[offset+i]
		}
		h += r * r / float64(len(g))
		offset += len(g)
	}
	h = 12/(n*(n+1))*h - 3*(n+1)

	correction := 1.0
	if len(ties) > 0 {
		var t float64
		for _, c := range ties {
			cf := float64(c)
			t += cf*cf*cf - cf
		}
		correction = 1 - t/(n*n*n-n)
	}
	if correction == 0 {
		return nanResult()
	}
	h /= correction

	chi := distuv.ChiSquared{K: float64(k - 1)}
	return TestResult{Statistic: h, P: chi.Survival(h)}
}

// Levene tests equality of variances using deviations from group medians
func Levene(groups ...[]float64) TestResult {
	var used [][]float64
	for _, g := range groups {
		if len(g) > 0 {
			used = append(used, g)
		}
	}
	k := len(used)
	if k < 2 {
		return nanResult()
	}

	z := make([][]float64, k)
	var n float64
	var total float64
	means := make([]float64, k)
	for i, g := range used {
		med := Median(g)
		z[i] = make([]float64, len(g))
		for j, v := range g {
			z[i][j] = math.Abs(v - med)
		}
		means[i] = Mean(z[i])
		n += float64(len(g))
		total += Sum(z[i])
	}
	grand := total / n

	var between, within float64
	for i := range z {
		dm := means[i] - grand
		between += float64(len(z[i])) * dm * dm
		for _, v := range z[i] {
			dv := v - means[i]
			within += dv * dv
		}
	}
	kf := float64(k)
	if within == 0 || n-kf <= 0 {
		return nanResult()
	}
	w := (n - kf) / (kf - 1) * between / within
	f := distuv.F{D1: kf - 1, D2: n - kf}
	return TestResult{Statistic: w, P: f.Survival(w)}
}

// FTestSurvival is P(F > f) for the given degrees of freedom
func FTestSurvival(f, d1, d2 float64) float64 {
	if math.IsNaN(f) || d1 <= 0 || d2 <= 0 {
		return math.NaN()
	}
	if f <= 0 {
		return 1
	}
	return distuv.F{D1: d1, D2: d2}.Survival(f)
}

// StudentTwoSided exposes the two-sided t p-value to the model fitters
func StudentTwoSided(t, df float64) float64 {
	return studentTwoSided(t, df)
}

// BenjaminiHochberg adjusts p-values for the false discovery rate
func BenjaminiHochberg(p []float64) []float64 {
	n := len(p)
	q := make([]float64, n)
	idx := make([]int, 0, n)
	for i, v := range p {
		if math.IsNaN(v) {
			q[i] = math.NaN()
			continue
		}
		idx = append(idx, i)
	}
	m := float64(len(idx))
	sort.SliceStable(idx, func(a, b int) bool { return p[idx[a]] < p[idx[b]] })

	prev := 1.0
	for r := len(idx) - 1; r >= 0; r-- {
		i := idx[r]
		v := math.Min(prev, p[i]*m/float64(r+1))
		q[i] = v
		prev = v
	}
	return q
}
