package tracing

import (
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/torosent/querybench/internal/config"
)

func TestResolveFallsBackToEnvironment(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "bench-env")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	s := resolve(config.TracingConfig{})
	if s.service != "bench-env" || s.endpoint != "collector:4317" || s.protocol != "grpc" {
		t.Fatalf("resolve() = %+v", s)
	}

	s = resolve(config.TracingConfig{ServiceName: "cli", Endpoint: " otel:4318 ", Protocol: "HTTP"})
	if s.service != "cli" || s.endpoint != "otel:4318" || s.protocol != "http" {
		t.Fatalf("explicit config not preferred: %+v", s)
	}
}

func TestResolveDefaultServiceName(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	if got := resolve(config.TracingConfig{}).service; got != instrumentationName {
		t.Errorf("service = %q, want %q", got, instrumentationName)
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{0, sdktrace.NeverSample().Description()},
		{1, sdktrace.AlwaysSample().Description()},
		{0.25, sdktrace.TraceIDRatioBased(0.25).Description()},
	}
	for _, tt := range tests {
		if got := samplerFor(tt.rate).Description(); got != tt.want {
			t.Errorf("samplerFor(%g) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}
