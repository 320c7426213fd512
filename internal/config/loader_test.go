package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{"hello", "hello"},
		{123, "123"},
		{true, "true"},
		{nil, ""},
		{[]byte("bytes"), "bytes"},
	}

	for _, tt := range tests {
		got, err := asString(tt.input)
		if err != nil {
			t.Errorf("asString(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asString(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int
	}{
		{123, 123},
		{"456", 456},
		{int64(789), 789},
		{float64(10.0), 10},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asInt(tt.input)
		if err != nil {
			t.Errorf("asInt(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asInt(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestAsStringSliceSplitsStrings(t *testing.T) {
	got, err := asStringSlice("pgx, neon-http ,,planetscale")
	if err != nil {
		t.Fatalf("asStringSlice() error = %v", err)
	}
	want := []string{"pgx", "neon-http", "planetscale"}
	if len(got) != len(want) {
		t.Fatalf("asStringSlice() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("asStringSlice()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := asStringSlice(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList("simple,countUsers", " complexJoin ", "")
	want := []string{"simple", "countUsers", "complexJoin"}
	if len(got) != len(want) {
		t.Fatalf("SplitList() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SplitList()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if out := SplitList(); out != nil {
		t.Fatalf("SplitList() with no input = %v, want nil", out)
	}
}

func clearDatabaseEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
	}
}

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

func TestLoadDefaults(t *testing.T) {
	clearDatabaseEnv(t)

	cfg, err := NewLoader().Load(newFlagSet(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SampleCount != DefaultSampleCount {
		t.Errorf("SampleCount = %d, want %d", cfg.SampleCount, DefaultSampleCount)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Concurrency, DefaultConcurrency)
	}
	if cfg.Output != OutputText {
		t.Errorf("Output = %q, want %q", cfg.Output, OutputText)
	}
	if cfg.Listen != DefaultListen {
		t.Errorf("Listen = %q, want %q", cfg.Listen, DefaultListen)
	}
	if cfg.Tracing.ServiceName != "querybench" {
		t.Errorf("Tracing.ServiceName = %q", cfg.Tracing.ServiceName)
	}
	if len(cfg.Drivers) != 0 || len(cfg.Queries) != 0 {
		t.Errorf("expected no drivers or queries, got %v %v", cfg.Drivers, cfg.Queries)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("DATABASE_URL", "postgres://pooled/db")
	t.Setenv("DIRECT_DATABASE_URL", "postgres://direct/db")
	t.Setenv("PLANETSCALE_DATABASE_URL", "mysql://user:pw@ps.example.com/db")

	cfg, err := NewLoader().Load(newFlagSet(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "postgres://pooled/db" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.Database.DirectOrPooled() != "postgres://direct/db" {
		t.Errorf("DirectOrPooled() = %q", cfg.Database.DirectOrPooled())
	}
	if cfg.Database.PlanetScaleURL != "mysql://user:pw@ps.example.com/db" {
		t.Errorf("Database.PlanetScaleURL = %q", cfg.Database.PlanetScaleURL)
	}
	if cfg.Database.PlanetScaleUnpooledURL != "" {
		t.Errorf("Database.PlanetScaleUnpooledURL = %q, want empty", cfg.Database.PlanetScaleUnpooledURL)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearDatabaseEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "querybench.yaml")
	content := `
database:
  url: postgres://file/db
  planetscale_url: mysql://file/db
drivers: [pgx, planetscale]
queries: simple,countUsers
sampleCount: 25
concurrency: 4
timeout: 2s
output: JSON
thresholds:
  - "p95 < 250"
tracing:
  endpoint: localhost:4317
  sample_rate: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := NewLoader().Load(newFlagSet(t, "--config", path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
	if cfg.Database.URL != "postgres://file/db" || cfg.Database.PlanetScaleURL != "mysql://file/db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if len(cfg.Drivers) != 2 || cfg.Drivers[0] != "pgx" || cfg.Drivers[1] != "planetscale" {
		t.Errorf("Drivers = %v", cfg.Drivers)
	}
	if len(cfg.Queries) != 2 || cfg.Queries[1] != "countUsers" {
		t.Errorf("Queries = %v", cfg.Queries)
	}
	if cfg.SampleCount != 25 || cfg.Concurrency != 4 {
		t.Errorf("SampleCount = %d, Concurrency = %d", cfg.SampleCount, cfg.Concurrency)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.Output != OutputJSON {
		t.Errorf("Output = %q, want json", cfg.Output)
	}
	if len(cfg.Thresholds) != 1 || cfg.Thresholds[0] != "p95 < 250" {
		t.Errorf("Thresholds = %v", cfg.Thresholds)
	}
	if cfg.Tracing.Endpoint != "localhost:4317" || cfg.Tracing.SampleRate != 0.5 {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("DATABASE_URL", "postgres://env/db")

	dir := t.TempDir()
	path := filepath.Join(dir, "querybench.json")
	if err := os.WriteFile(path, []byte(`{"database":{"url":"postgres://file/db"}}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := NewLoader().Load(newFlagSet(t, "--config", path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "postgres://env/db" {
		t.Fatalf("Database.URL = %q, want env value", cfg.Database.URL)
	}
}

func TestLoadFlagsOverrideEverything(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("DATABASE_URL", "postgres://env/db")

	fs := newFlagSet(t,
		"--database-url", "postgres://flag/db",
		"-D", "pgx,neon-http",
		"--query", "simple",
		"--query", "aggregation",
		"-n", "3",
		"-c", "2",
		"--output", "YAML",
		"--timeout", "500ms",
		"--tracing-no-propagate",
	)

	cfg, err := NewLoader().Load(fs)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "postgres://flag/db" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if len(cfg.Drivers) != 2 || cfg.Drivers[1] != "neon-http" {
		t.Errorf("Drivers = %v", cfg.Drivers)
	}
	if len(cfg.Queries) != 2 || cfg.Queries[0] != "simple" || cfg.Queries[1] != "aggregation" {
		t.Errorf("Queries = %v", cfg.Queries)
	}
	if cfg.SampleCount != 3 || cfg.Concurrency != 2 {
		t.Errorf("SampleCount = %d, Concurrency = %d", cfg.SampleCount, cfg.Concurrency)
	}
	if cfg.Output != OutputYAML {
		t.Errorf("Output = %q", cfg.Output)
	}
	if cfg.Timeout != 500*time.Millisecond {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if !cfg.Tracing.NoPropagate {
		t.Error("expected NoPropagate")
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearDatabaseEnv(t)
	_, err := NewLoader().Load(newFlagSet(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearDatabaseEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("sampleCount: lots\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := NewLoader().Load(newFlagSet(t, "--config", path)); err == nil {
		t.Fatal("expected error for non-numeric sampleCount")
	}
}
