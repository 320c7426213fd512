package stats

// PerformanceTestResult is the outcome of sampling one query on one driver.
// Times holds one elapsed duration in milliseconds per iteration, indexed by
// iteration number.
type PerformanceTestResult struct {
	QueryName   string    `json:"queryName" yaml:"queryName"`
	Times       []float64 `json:"times" yaml:"times"`
	SampleCount int       `json:"sampleCount" yaml:"sampleCount"`
	Summary     `yaml:",inline"`
}

// NewPerformanceTestResult builds a result for queryName from its samples.
func NewPerformanceTestResult(queryName string, times []float64) PerformanceTestResult {
	if times == nil {
		times = []float64{}
	}
	return PerformanceTestResult{
		QueryName:   queryName,
		Times:       times,
		SampleCount: len(times),
		Summary:     Calculate(times),
	}
}
