package metrics_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/torosent/querybench/internal/clientmetrics"
	"github.com/torosent/querybench/internal/events"
	"github.com/torosent/querybench/internal/metrics"
	"github.com/torosent/querybench/internal/stats"
)

func TestExporterRecordsSamplesAndEvents(t *testing.T) {
	e := metrics.NewExporter()
	ctx := context.Background()

	e.RecordSample("pgx", "simple", 2*time.Millisecond, nil)
	e.RecordSample("pgx", "simple", 3*time.Millisecond, errors.New("boom"))

	res := stats.NewPerformanceTestResult("simple", []float64{1, 2, 3})
	e.Observe(ctx, events.Event{Kind: events.QueryCompleted, Driver: "pgx", Query: "simple", Result: &res})
	e.Observe(ctx, events.Event{
		Kind:      events.DriverCompleted,
		Driver:    "neon-http",
		Duration:  time.Second,
		Transport: &clientmetrics.Snapshot{BytesSent: 100, BytesReceived: 250},
	})
	e.Observe(ctx, events.Event{Kind: events.DriverFailed, Driver: "planetscale"})
	e.Observe(ctx, events.Event{Kind: events.SchemaProvisioned, Driver: "pgx", Detail: "provisioned"})
	e.Observe(ctx, events.Event{Kind: events.RunCompleted})

	srv := httptest.NewServer(e.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	for _, want := range []string{
		`querybench_sample_duration_seconds_count{driver="pgx",query="simple",status="ok"} 1`,
		`querybench_sample_duration_seconds_count{driver="pgx",query="simple",status="error"} 1`,
		`querybench_sample_failures_total{driver="pgx",error="Error",query="simple"} 1`,
		`querybench_query_median_milliseconds{driver="pgx",query="simple"} 2`,
		`querybench_driver_runs_total{driver="neon-http",outcome="completed"} 1`,
		`querybench_driver_runs_total{driver="planetscale",outcome="failed"} 1`,
		`querybench_transport_bytes_total{direction="received",driver="neon-http"} 250`,
		`querybench_schema_events_total{driver="pgx",outcome="provisioned"} 1`,
		`querybench_runs_total 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}

func TestExporterRegistryGather(t *testing.T) {
	e := metrics.NewExporter()
	e.RecordSample("pgx", "simple", time.Millisecond, nil)

	n, err := testutil.GatherAndCount(e.Registry(), "querybench_sample_duration_seconds")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 series, got %d", n)
	}
}
