// Package sink persists comparison results outside the process.
package sink

import (
	"context"
	"errors"

	"github.com/torosent/querybench/internal/compare"
)

// Row is one stored result: a driver/query pair of a run.
type Row struct {
	RunID       string  `json:"runId"`
	Driver      string  `json:"driver"`
	QueryName   string  `json:"queryName"`
	MeanMs      float64 `json:"executionTimeMs"`
	SampleCount int     `json:"sampleCount"`
	MedianMs    float64 `json:"medianMs"`
	P95Ms       float64 `json:"p95Ms"`
	P99Ms       float64 `json:"p99Ms"`
	MinMs       float64 `json:"minMs"`
	MaxMs       float64 `json:"maxMs"`
}

// Sink stores rows.
type Sink interface {
	Write(ctx context.Context, rows []Row) error
	Close() error
}

// Rows flattens the successful results of report in report order.
func Rows(report *compare.Report) []Row {
	if report == nil {
		return nil
	}
	var rows []Row
	for _, dc := range report.Results {
		for _, r := range dc.Results {
			rows = append(rows, Row{
				RunID:       report.Metadata.RunID,
				Driver:      string(dc.Driver),
				QueryName:   r.QueryName,
				MeanMs:      r.Mean,
				SampleCount: r.SampleCount,
				MedianMs:    r.Median,
				P95Ms:       r.P95,
				P99Ms:       r.P99,
				MinMs:       r.Min,
				MaxMs:       r.Max,
			})
		}
	}
	return rows
}

// Store writes the rows of report to every sink. A failing sink does not
// stop the others; all errors are returned joined.
func Store(ctx context.Context, report *compare.Report, sinks ...Sink) error {
	rows := Rows(report)
	if len(rows) == 0 {
		return nil
	}
	var errs []error
	for _, s := range sinks {
		if s == nil {
			continue
		}
		if err := s.Write(ctx, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
