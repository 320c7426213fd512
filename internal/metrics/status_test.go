package metrics_test

import (
	"testing"

	"github.com/torosent/querybench/internal/metrics"
)

func TestFlattenFailuresEmpty(t *testing.T) {
	if rows := metrics.FlattenFailures(nil); rows != nil {
		t.Fatalf("expected nil, got %v", rows)
	}
}

func TestFlattenFailuresOrdering(t *testing.T) {
	rows := metrics.FlattenFailures(map[string]map[string]int{
		"pgx":         {"Network error": 2, "Postgres server error": 5},
		"planetscale": {"MySQL server error": 2},
		"neon-http":   {"SQL over HTTP error": 2},
	})

	want := []metrics.FailureBucket{
		{Driver: "pgx", Error: "Postgres server error", Count: 5},
		{Driver: "neon-http", Error: "SQL over HTTP error", Count: 2},
		{Driver: "pgx", Error: "Network error", Count: 2},
		{Driver: "planetscale", Error: "MySQL server error", Count: 2},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}
