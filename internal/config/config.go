package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// OutputFormat selects how the compare command renders its report.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

const (
	DefaultSampleCount = 10
	DefaultConcurrency = 8
	DefaultListen      = ":3000"
)

type Config struct {
	Database       Database      `mapstructure:"database"`
	Drivers        []string      `mapstructure:"drivers"`
	Queries        []string      `mapstructure:"queries"`
	SampleCount    int           `mapstructure:"sample_count"`
	Concurrency    int           `mapstructure:"concurrency"`
	Rate           int           `mapstructure:"rate"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ConnectRetries int           `mapstructure:"connect_retries"`
	Output         OutputFormat  `mapstructure:"output"`
	Progress       bool          `mapstructure:"progress"`
	ResultsFile    string        `mapstructure:"results_file"`
	StoreResults   bool          `mapstructure:"store_results"`
	Thresholds     []string      `mapstructure:"thresholds"`
	Listen         string        `mapstructure:"listen"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	ConfigFile     string        `mapstructure:"-"`
}

// Database holds the connection strings each driver type may need. Empty
// values are legal here; the driver factory decides which are mandatory.
type Database struct {
	URL                    string `mapstructure:"url"`
	DirectURL              string `mapstructure:"direct_url"`
	PlanetScaleURL         string `mapstructure:"planetscale_url"`
	PlanetScaleUnpooledURL string `mapstructure:"planetscale_unpooled_url"`
	NeonHTTPEndpoint       string `mapstructure:"neon_http_endpoint"`
	NeonWebSocketEndpoint  string `mapstructure:"neon_websocket_endpoint"`
	// ResultsURL is the Postgres database benchmark results are stored in.
	// Falls back to URL.
	ResultsURL string `mapstructure:"results_url"`
}

// DirectOrPooled returns the direct URL, falling back to the pooled URL.
func (d Database) DirectOrPooled() string {
	if strings.TrimSpace(d.DirectURL) != "" {
		return d.DirectURL
	}
	return d.URL
}

// ResultsOrPooled returns the results URL, falling back to the pooled URL.
func (d Database) ResultsOrPooled() string {
	if strings.TrimSpace(d.ResultsURL) != "" {
		return d.ResultsURL
	}
	return d.URL
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	// NoPropagate disables traceparent injection into outbound HTTP driver requests.
	NoPropagate bool `mapstructure:"no_propagate"`
}

// Enabled reports whether an OTLP endpoint is configured.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")) != ""
}

// ShouldPropagate reports whether W3C trace context is sent with driver requests.
func (t TracingConfig) ShouldPropagate() bool {
	return t.Enabled() && !t.NoPropagate
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if c.SampleCount < 1 {
		issues = append(issues, "sample_count must be >= 1")
	}
	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.ConnectRetries < 0 {
		issues = append(issues, "connect_retries must be >= 0")
	}

	switch c.Output {
	case "", OutputText, OutputJSON, OutputYAML:
	default:
		issues = append(issues, fmt.Sprintf("output must be 'text', 'json', or 'yaml', got %q", c.Output))
	}
	if c.Progress && c.Output != "" && c.Output != OutputText {
		issues = append(issues, "progress and structured output are mutually exclusive")
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		issues = append(issues, fmt.Sprintf("log_format must be 'text' or 'json', got %q", c.LogFormat))
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("log_level %q is not supported", c.LogLevel))
	}

	issues = append(issues, validateTracing(c.Tracing)...)

	if c.StoreResults && strings.TrimSpace(c.Database.ResultsOrPooled()) == "" {
		issues = append(issues, "store_results requires database.results_url or DATABASE_URL")
	}

	if c.Concurrency > 64 {
		fmt.Fprintf(os.Stderr, "WARNING: High concurrency configured (%d workers). Most drivers cap pool size well below this.\n", c.Concurrency)
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTracing(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, "tracing: sample_rate must be between 0.0 and 1.0")
	}
	return issues
}
