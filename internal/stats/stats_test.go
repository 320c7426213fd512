package stats_test

import (
	"math"
	"testing"
	"time"

	"github.com/torosent/querybench/internal/stats"
)

func TestQuantileInterpolation(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"median odd", []float64{1, 2, 3, 4, 5}, 0.5, 3},
		{"p100", []float64{1, 2, 3, 4, 5}, 1, 5},
		{"p0", []float64{1, 2, 3, 4, 5}, 0, 1},
		{"median even", []float64{1, 2}, 0.5, 1.5},
		{"p95 of five", []float64{1, 2, 3, 4, 5}, 0.95, 4.8},
		{"p25 of four", []float64{10, 20, 30, 40}, 0.25, 17.5},
		{"negative p clamps", []float64{3, 7}, -0.5, 3},
		{"p above one clamps", []float64{3, 7}, 1.5, 7},
		{"single value", []float64{42}, 0.99, 42},
		{"empty", nil, 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stats.Quantile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Quantile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestCalculateSummary(t *testing.T) {
	s := stats.Calculate([]float64{5, 1, 4, 2, 3})

	if s.Median != 3 {
		t.Errorf("Median = %v, want 3", s.Median)
	}
	if s.Mean != 3 {
		t.Errorf("Mean = %v, want 3", s.Mean)
	}
	if s.Min != 1 || s.Max != 5 {
		t.Errorf("Min/Max = %v/%v, want 1/5", s.Min, s.Max)
	}
	if math.Abs(s.P95-4.8) > 1e-9 {
		t.Errorf("P95 = %v, want 4.8", s.P95)
	}
	if math.Abs(s.P99-4.96) > 1e-9 {
		t.Errorf("P99 = %v, want 4.96", s.P99)
	}
	if !(s.Min <= s.Median && s.Median <= s.Max) {
		t.Errorf("ordering violated: %+v", s)
	}
	if s.P95 > s.P99 {
		t.Errorf("P95 %v > P99 %v", s.P95, s.P99)
	}
}

func TestCalculateEmpty(t *testing.T) {
	if got := stats.Calculate(nil); got != (stats.Summary{}) {
		t.Fatalf("Calculate(nil) = %+v, want zero summary", got)
	}
	if got := stats.Calculate([]float64{}); got != (stats.Summary{}) {
		t.Fatalf("Calculate([]) = %+v, want zero summary", got)
	}
}

func TestCalculateIsPure(t *testing.T) {
	input := []float64{9.25, 0.5, 3.75, 3.75, 12.125, 1}
	snapshot := append([]float64(nil), input...)

	first := stats.Calculate(input)
	second := stats.Calculate(input)

	if first != second {
		t.Fatalf("repeated Calculate differs: %+v vs %+v", first, second)
	}
	for i := range input {
		if input[i] != snapshot[i] {
			t.Fatalf("input mutated at %d: %v != %v", i, input[i], snapshot[i])
		}
	}
}

func TestNewPerformanceTestResult(t *testing.T) {
	res := stats.NewPerformanceTestResult("simple", []float64{2, 4})
	if res.SampleCount != 2 || len(res.Times) != 2 {
		t.Fatalf("sample count = %d, times = %d, want 2", res.SampleCount, len(res.Times))
	}
	if res.Median != 3 {
		t.Errorf("Median = %v, want 3", res.Median)
	}

	empty := stats.NewPerformanceTestResult("simple", nil)
	if empty.Times == nil || len(empty.Times) != 0 {
		t.Errorf("expected empty non-nil times, got %#v", empty.Times)
	}
	if empty.Summary != (stats.Summary{}) {
		t.Errorf("expected zero summary, got %+v", empty.Summary)
	}
}

func TestMilliseconds(t *testing.T) {
	if got := stats.Milliseconds(1500 * time.Microsecond); got != 1.5 {
		t.Fatalf("Milliseconds(1.5ms) = %v, want 1.5", got)
	}
}
