package compare

import (
	"time"

	"github.com/torosent/querybench/internal/driver"
	"github.com/torosent/querybench/internal/stats"
)

// Report is the outcome of one comparison run.
type Report struct {
	Results  []DriverComparison `json:"results" yaml:"results"`
	Metadata Metadata           `json:"metadata" yaml:"metadata"`
	Failures []Failure          `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// DriverComparison holds one driver's per-query results and how its total
// median compares to every other successful driver.
type DriverComparison struct {
	Driver      driver.Type                   `json:"driver" yaml:"driver"`
	Results     []stats.PerformanceTestResult `json:"results" yaml:"results"`
	TotalMedian float64                       `json:"totalMedian" yaml:"totalMedian"`
	TotalMean   float64                       `json:"totalMean" yaml:"totalMean"`
	Comparisons []Comparison                  `json:"comparisons" yaml:"comparisons"`
}

// Comparison is the relative difference to another driver's total median.
// Positive means slower.
type Comparison struct {
	Driver               driver.Type `json:"driver" yaml:"driver"`
	PercentageDifference float64     `json:"percentageDifference" yaml:"percentageDifference"`
}

type Metadata struct {
	RunID       string    `json:"runId" yaml:"runId"`
	SampleCount int       `json:"sampleCount" yaml:"sampleCount"`
	Queries     []string  `json:"queries" yaml:"queries"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
}

// Failure records a driver that was excluded from Results.
type Failure struct {
	Driver driver.Type `json:"driver" yaml:"driver"`
	Error  string      `json:"error" yaml:"error"`
}

// summarize builds a DriverComparison whose totals are the unweighted means
// of the per-query medians and means.
func summarize(t driver.Type, results []stats.PerformanceTestResult) DriverComparison {
	dc := DriverComparison{
		Driver:      t,
		Results:     results,
		Comparisons: []Comparison{},
	}
	if len(results) == 0 {
		return dc
	}
	for _, r := range results {
		dc.TotalMedian += r.Median
		dc.TotalMean += r.Mean
	}
	dc.TotalMedian /= float64(len(results))
	dc.TotalMean /= float64(len(results))
	return dc
}

// computeComparisons fills every entry's Comparisons against all other entries.
func computeComparisons(results []DriverComparison) {
	for i := range results {
		comparisons := make([]Comparison, 0, len(results)-1)
		for j := range results {
			if i == j {
				continue
			}
			comparisons = append(comparisons, Comparison{
				Driver:               results[j].Driver,
				PercentageDifference: percentageDifference(results[i].TotalMedian, results[j].TotalMedian),
			})
		}
		results[i].Comparisons = comparisons
	}
}

func percentageDifference(self, other float64) float64 {
	if other == 0 {
		return 0
	}
	return (self - other) / other * 100
}
