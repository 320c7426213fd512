package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/torosent/querybench/internal/compare"
	"github.com/torosent/querybench/internal/metrics"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json and yaml (or yml), case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// Write renders report in format.
func Write(w io.Writer, format Format, report *compare.Report) error {
	switch format {
	case FormatJSON:
		return PrintJSONReport(w, report)
	case FormatYAML:
		return PrintYAMLReport(w, report)
	default:
		PrintReport(w, report)
		return nil
	}
}

// PrintReport outputs a human-readable comparison report.
func PrintReport(w io.Writer, report *compare.Report) {
	fmt.Fprintln(w, "\n--- Driver Comparison ---")
	fmt.Fprintf(w, "Run ID:            %s\n", report.Metadata.RunID)
	fmt.Fprintf(w, "Timestamp:         %s\n", report.Metadata.Timestamp.Format("2006-01-02 15:04:05Z07:00"))
	fmt.Fprintf(w, "Samples per query: %d\n", report.Metadata.SampleCount)
	fmt.Fprintf(w, "Queries:           %s\n", strings.Join(report.Metadata.Queries, ", "))

	for _, dc := range report.Results {
		fmt.Fprintf(w, "\n%s\n", dc.Driver)
		fmt.Fprintf(w, "  Total median:    %.3fms\n", dc.TotalMedian)
		fmt.Fprintf(w, "  Total mean:      %.3fms\n", dc.TotalMean)
		if len(dc.Results) > 0 {
			fmt.Fprintf(w, "  %-14s %10s %10s %10s %10s %10s %10s\n", "Query", "Median", "Mean", "P95", "P99", "Min", "Max")
			for _, r := range dc.Results {
				fmt.Fprintf(w, "  %-14s %10.3f %10.3f %10.3f %10.3f %10.3f %10.3f\n",
					r.QueryName, r.Median, r.Mean, r.P95, r.P99, r.Min, r.Max)
			}
		}
		for _, c := range dc.Comparisons {
			fmt.Fprintf(w, "  vs %-14s %+.1f%%\n", c.Driver, c.PercentageDifference)
		}
	}

	if len(report.Failures) > 0 {
		fmt.Fprintln(w, "\nFailed Drivers:")
		for _, f := range report.Failures {
			fmt.Fprintf(w, "  - %s: %s\n", f.Driver, f.Error)
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, report *compare.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, report *compare.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}

// PrintSampleSummary outputs the collector totals of a run, including
// failed samples grouped by driver.
func PrintSampleSummary(w io.Writer, stats metrics.Stats) {
	fmt.Fprintln(w, "\n--- Samples ---")
	fmt.Fprintf(w, "Total Samples:     %d\n", stats.Total)
	fmt.Fprintf(w, "Successful:        %d\n", stats.Successes)
	fmt.Fprintf(w, "Failed:            %d\n", stats.Failures)
	fmt.Fprintf(w, "Duration:          %s\n", stats.Duration)
	fmt.Fprintf(w, "Samples/sec:       %.2f\n", stats.SamplesPerSec)
	if len(stats.FailureCounts) > 0 {
		fmt.Fprintln(w, "\nFailures:")
		for _, row := range stats.FailureCounts {
			fmt.Fprintf(w, "  %s %s: %d\n", row.Driver, row.Error, row.Count)
		}
	}
}
