// Package stats implements the statistics used to compare wearable devices
// with each other and with chronotype scores.
//
// Descriptive statistics and rounding go through montanaflynn/stats.
// Correlation, regression and the reference distributions for p-values
// (Student t, F, chi-squared and the standard normal) come from gonum.
// Rank based tests (Wilcoxon signed-rank, rank-sum, Kruskal-Wallis) and
// Levene's test are built on top of those distributions.
//
// Every function returns NaN rather than an error when the input is too
// small for the statistic, so callers can emit a row for every participant
// and let the result table show the gap.
package stats
