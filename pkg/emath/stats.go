package emath

import(
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MADScale makes the median absolute deviation a consistent estimator
// of the standard deviation for Gaussian noise.
const MADScale = 1.4826

// Percentiles returns the requested percentiles (in [0,100]) of vals,
// sorting a copy once. An empty input yields zeros.
func Percentiles(vals []float64, pcts ...float64) []float64 {
	ret := make([]float64, len(pcts))
	if len(vals) == 0 {
		return ret
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	for i, pct := range pcts {
		ret[i] = PercentileSorted(sorted, pct)
	}
	return ret
}

// PercentileSorted expects `sorted` in ascending order.
func PercentileSorted(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(Clamp(pct/100.0, 0, 1), stat.LinInterp, sorted, nil)
}

func Percentile(vals []float64, pct float64) float64 {
	return Percentiles(vals, pct)[0]
}

func Median(vals []float64) float64 {
	return Percentile(vals, 50)
}

// MADSigma returns the median of vals, and 1.4826 x the median absolute
// deviation about it.
func MADSigma(vals []float64) (float64, float64) {
	med := Median(vals)
	dev := make([]float64, len(vals))
	for i, v := range vals {
		dev[i] = math.Abs(v - med)
	}
	return med, MADScale * Median(dev)
}

// MeanStd returns the mean and the population standard deviation.
func MeanStd(vals []float64) (float64, float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	mean, variance := stat.PopMeanVariance(vals, nil)
	return mean, math.Sqrt(variance)
}

func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return floats.Sum(vals) / float64(len(vals))
}

// FractionWhere is the share of vals for which `f` holds.
func FractionWhere(vals []float64, f func(float64) bool) float64 {
	if len(vals) == 0 {
		return 0
	}
	n := 0
	for _, v := range vals {
		if f(v) {
			n++
		}
	}
	return float64(n) / float64(len(vals))
}

// Percentiles of the whole plane
func (p Plane)Percentiles(pcts ...float64) []float64 { return Percentiles(p.values, pcts...) }
func (p Plane)Percentile(pct float64) float64       { return Percentile(p.values, pct) }
func (p Plane)Mean() float64                        { return Mean(p.values) }
