package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptive(t *testing.T) {
	x := []float64{1, 2, 3, 4}

	assert.Equal(t, 2.5, Mean(x))
	assert.Equal(t, 2.5, Median(x))
	assert.InDelta(t, 1.2909944, SampleSD(x), 1e-6)
	assert.InDelta(t, 1.1180340, PopulationSD(x), 1e-6)
	assert.InDelta(t, 1.6666667, SampleVariance(x), 1e-6)
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.True(t, math.IsNaN(SampleSD([]float64{1})))
}

func TestQuantile(t *testing.T) {
	x := []float64{4, 1, 3, 2}
	assert.InDelta(t, 1.75, Quantile(x, 0.25), 1e-12)
	assert.InDelta(t, 3.25, Quantile(x, 0.75), 1e-12)
	assert.InDelta(t, 1.5, IQR(x), 1e-12)
	assert.Equal(t, 1.0, Quantile(x, 0))
	assert.Equal(t, 4.0, Quantile(x, 1))
	// input is not reordered
	assert.Equal(t, []float64{4, 1, 3, 2}, x)
}

func TestDescribe(t *testing.T) {
	d := Describe([]float64{1, math.NaN(), 2, 3, 4, 5})
	assert.Equal(t, 5, d.Count)
	assert.Equal(t, 3.0, d.Mean)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 2.0, d.Q25)
	assert.Equal(t, 3.0, d.Q50)
	assert.Equal(t, 4.0, d.Q75)
	assert.Equal(t, 5.0, d.Max)

	empty := Describe(nil)
	assert.Zero(t, empty.Count)
	assert.True(t, math.IsNaN(empty.Mean))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.23, Round(1.2345, 2))
	assert.Equal(t, 0.1235, Round(0.123456, 4))
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
}

func TestMinMaxScale(t *testing.T) {
	got := MinMaxScale([]float64{2, 4, math.NaN(), 6})
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 0.5, got[1])
	assert.True(t, math.IsNaN(got[2]))
	assert.Equal(t, 1.0, got[3])

	assert.Equal(t, []float64{0, 0}, MinMaxScale([]float64{3, 3}))
}

func TestErrorsAndAgreement(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{2, 2, 5}

	assert.InDelta(t, 1.0, MAE(a, b), 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3), RMSE(a, b), 1e-12)

	mean, loa := BlandAltman(a, b)
	assert.InDelta(t, 1.0, mean, 1e-12)
	assert.InDelta(t, 1.96, loa, 1e-12)
}

func TestTTestInd(t *testing.T) {
	// scipy.stats.ttest_ind([1,2,3,4,5],[2,3,4,5,9])
	res := TTestInd([]float64{1, 2, 3, 4, 5}, []float64{2, 3, 4, 5, 9})
	assert.InDelta(t, -1.1429, res.Statistic, 1e-4)
	assert.InDelta(t, 0.2861, res.P, 1e-3)

	assert.True(t, math.IsNaN(TTestInd([]float64{1}, []float64{2, 3}).P))
}

func TestPearson(t *testing.T) {
	perfect := Pearson([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	assert.InDelta(t, 1.0, perfect.Statistic, 1e-12)
	assert.InDelta(t, 0.0, perfect.P, 1e-10)

	// scipy.stats.pearsonr([1,2,3,4,5],[2,1,4,3,5]) = (0.8, 0.1041)
	res := Pearson([]float64{1, 2, 3, 4, 5}, []float64{2, 1, 4, 3, 5})
	assert.InDelta(t, 0.8, res.Statistic, 1e-12)
	assert.InDelta(t, 0.1041, res.P, 1e-3)
}

func TestLinearRegression(t *testing.T) {
	reg := LinearRegression([]float64{0, 1, 2, 3}, []float64{1, 3, 5, 7})
	assert.InDelta(t, 2.0, reg.Slope, 1e-12)
	assert.InDelta(t, 1.0, reg.Intercept, 1e-12)
	assert.InDelta(t, 1.0, reg.RSquared, 1e-12)
}

func TestRank(t *testing.T) {
	ranks, ties := Rank([]float64{10, 20, 20, 5})
	assert.Equal(t, []float64{2, 3.5, 3.5, 1}, ranks)
	assert.Equal(t, []int{2}, ties)
}

func TestWilcoxonSignedRank(t *testing.T) {
	// differences 1..6 all positive: W = 0, exact p = 2/64
	x := []float64{2, 4, 6, 8, 10, 12}
	y := []float64{1, 2, 3, 4, 5, 6}
	res := WilcoxonSignedRank(x, y)
	assert.Equal(t, 0.0, res.Statistic)
	assert.InDelta(t, 0.03125, res.P, 1e-12)

	// zero differences are ignored
	res = WilcoxonSignedRank([]float64{1, 1}, []float64{1, 1})
	assert.True(t, math.IsNaN(res.P))

	// ties switch to the normal approximation
	res = WilcoxonSignedRank([]float64{2, 2, 3, 5}, []float64{1, 1, 1, 1})
	assert.Equal(t, 0.0, res.Statistic)
	assert.Greater(t, res.P, 0.0)
	assert.Less(t, res.P, 0.2)
}

func TestSignedRankCDF(t *testing.T) {
	assert.InDelta(t, 1.0, signedRankCDF(5, 15), 1e-12)
	assert.InDelta(t, 1.0/32, signedRankCDF(5, 0), 1e-12)
	assert.InDelta(t, 2.0/32, signedRankCDF(5, 1), 1e-12)
}

func TestRankSums(t *testing.T) {
	res := RankSums([]float64{1, 2, 3}, []float64{4, 5, 6})
	// s = 6, expected = 10.5, sd = sqrt(9*7/12)
	assert.InDelta(t, -1.9640, res.Statistic, 1e-4)
	assert.InDelta(t, 0.0495, res.P, 1e-3)
}

func TestKruskalWallis(t *testing.T) {
	res := KruskalWallis([]float64{1, 2, 3}, []float64{4, 5, 6}, []float64{7, 8, 9})
	assert.InDelta(t, 7.2, res.Statistic, 1e-9)
	assert.InDelta(t, 0.0273, res.P, 1e-3)

	single := KruskalWallis([]float64{1, 2}, nil)
	assert.True(t, math.IsNaN(single.Statistic))

	emptyGroup := KruskalWallis([]float64{1, 2, 3}, []float64{4, 5, 6}, nil)
	assert.True(t, math.IsNaN(emptyGroup.Statistic))
	assert.True(t, math.IsNaN(emptyGroup.P))

	assert.True(t, math.IsNaN(KruskalWallis([]float64{1, 2, 3}).Statistic))
}

func TestLevene(t *testing.T) {
	same := Levene([]float64{1, 2, 3}, []float64{4, 5, 6})
	assert.InDelta(t, 0.0, same.Statistic, 1e-12)
	assert.InDelta(t, 1.0, same.P, 1e-9)

	diff := Levene([]float64{1, 2, 3, 4}, []float64{0, 10, 20, 30})
	assert.Greater(t, diff.Statistic, 1.0)
}

func TestBenjaminiHochberg(t *testing.T) {
	q := BenjaminiHochberg([]float64{0.01, 0.04, math.NaN(), 0.03})
	require.Len(t, q, 4)
	assert.InDelta(t, 0.03, q[0], 1e-12)
	assert.InDelta(t, 0.04, q[1], 1e-12)
	assert.True(t, math.IsNaN(q[2]))
	assert.InDelta(t, 0.04, q[3], 1e-12)
}

func TestRMCorr(t *testing.T) {
	// two subjects with identical within-subject slopes but shifted means
	subjects := []string{"a", "a", "a", "a", "b", "b", "b", "b"}
	x := []float64{1, 2, 3, 4, 11, 12, 13, 14}
	y := []float64{2, 4, 6, 8, 0, 2, 4, 6}

	res := RMCorr(subjects, x, y)
	assert.InDelta(t, 1.0, res.R, 1e-12)
	assert.Equal(t, 5, res.DOF)
	assert.Equal(t, 2, res.Subjects)
	assert.InDelta(t, 0.0, res.P, 1e-10)

	tiny := RMCorr([]string{"a", "b"}, []float64{1, 2}, []float64{1, 2})
	assert.True(t, math.IsNaN(tiny.R))
}
