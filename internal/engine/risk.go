package engine

import (
	"math"

	"floatbt/internal/domain"
)

// DefaultAnnualRiskFreeRate is used when callers do not supply one.
const DefaultAnnualRiskFreeRate = 0.01

// DailyReturns extracts the daily return series from records.
func DailyReturns(records []domain.DailyRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.DailyReturn
	}
	return out
}

// ComputeRatios returns the Sharpe and Sortino ratios of a daily return
// series against annualRiskFree spread evenly over 365 days. Both use the
// sample standard deviation (n-1). A ratio is 0 whenever its deviation is
// zero or undefined: fewer than two observations, or for Sortino fewer than
// two negative returns.
func ComputeRatios(returns []float64, annualRiskFree float64) (sharpe, sortino float64) {
	if len(returns) == 0 {
		return 0, 0
	}

	excess := mean(returns) - annualRiskFree/365

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}

	return safeRatio(excess, sampleStdDev(returns)), safeRatio(excess, sampleStdDev(downside))
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdDev returns NaN for fewer than two observations and exactly 0 for
// a constant series, where rounding in the mean would otherwise leave a tiny
// residual.
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	constant := true
	for _, x := range xs[1:] {
		if x != xs[0] {
			constant = false
			break
		}
	}
	if constant {
		return 0
	}
	m := mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func safeRatio(num, den float64) float64 {
	if den == 0 || math.IsNaN(den) || math.IsInf(den, 0) {
		return 0
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
