// Package distributions provides the central and noncentral t machinery the
// power engine is built on.
package distributions

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// StudentsTQuantile returns the p-quantile of the central t distribution
// with df degrees of freedom. df may be fractional.
func StudentsTQuantile(p, df float64) float64 {
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return tDist.Quantile(p)
}

// StudentsTUpperQuantile returns t such that P(T > t) = p
func StudentsTUpperQuantile(p, df float64) float64 {
	return -StudentsTQuantile(p, df)
}

// TTestPValue computes the p-value of a t statistic for the given tail.
// tail is -1 for the lower tail, +1 for the upper tail and 0 for two-sided.
func TTestPValue(tStatistic, df float64, tail int) float64 {
	if df <= 0 || math.IsNaN(tStatistic) {
		return 1.0
	}

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	switch {
	case tail < 0:
		return tDist.CDF(tStatistic)
	case tail > 0:
		return tDist.Survival(tStatistic)
	default:
		return 2 * tDist.Survival(math.Abs(tStatistic))
	}
}

// NormalCDF computes cumulative distribution function for standard normal
func NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalQuantile computes quantile function for standard normal (inverse CDF)
func NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}
