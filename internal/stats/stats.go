// Package stats reduces raw latency samples into summary statistics.
//
// Quantiles use linear interpolation between order statistics: for a sorted
// sample of length n the rank for probability p is (n-1)*p, and the value is
// interpolated between the two neighbouring order statistics. The median is the
// 0.5 quantile under the same rule, so even-length samples average their two
// middle values.
package stats

import (
	"math"
	"sort"
	"time"
)

// Summary holds the derived statistics of a sample set, all in milliseconds.
type Summary struct {
	Median float64 `json:"median" yaml:"median"`
	Mean   float64 `json:"mean" yaml:"mean"`
	P95    float64 `json:"p95" yaml:"p95"`
	P99    float64 `json:"p99" yaml:"p99"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}

// Calculate computes the summary of times. The input is not modified.
// An empty input yields a zero Summary.
func Calculate(times []float64) Summary {
	if len(times) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(times))
	copy(sorted, times)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range times {
		sum += v
	}

	return Summary{
		Median: Quantile(sorted, 0.5),
		Mean:   sum / float64(len(times)),
		P95:    Quantile(sorted, 0.95),
		P99:    Quantile(sorted, 0.99),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

// Quantile returns the p-quantile of an ascending slice using linear
// interpolation. p is clamped to [0, 1].
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := float64(n-1) * p
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	w := idx - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Milliseconds converts d to fractional milliseconds.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
