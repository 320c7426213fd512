// Package tracing wires OpenTelemetry into benchmark runs: one span per
// comparison, per driver and per sampled query, exported over OTLP.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/torosent/querybench/internal/config"
)

const instrumentationName = "querybench"

var errSampleRate = errors.New("tracing sample_rate must be between 0.0 and 1.0")

// Provider owns the SDK tracer provider for the process. The zero value and a
// nil *Provider both behave as disabled tracing.
type Provider struct {
	sdk       *sdktrace.TracerProvider
	propagate bool
}

// settings is the TracingConfig after environment fallbacks are applied.
type settings struct {
	service  string
	endpoint string
	protocol string
	insecure bool
	rate     float64
}

func resolve(cfg config.TracingConfig) settings {
	return settings{
		service:  firstNonEmpty(cfg.ServiceName, os.Getenv("OTEL_SERVICE_NAME"), instrumentationName),
		endpoint: firstNonEmpty(cfg.Endpoint, os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		protocol: strings.ToLower(firstNonEmpty(cfg.Protocol, "grpc")),
		insecure: cfg.Insecure,
		rate:     cfg.SampleRate,
	}
}

// Init builds the exporter pipeline described by cfg and installs it as the
// global tracer provider. Without an endpoint it returns a disabled Provider.
func Init(ctx context.Context, cfg config.TracingConfig) (*Provider, error) {
	if !cfg.Enabled() {
		return &Provider{}, nil
	}
	s := resolve(cfg)
	if s.endpoint == "" {
		return &Provider{propagate: cfg.ShouldPropagate()}, nil
	}
	if s.rate < 0 || s.rate > 1 {
		return nil, fmt.Errorf("%w, got %g", errSampleRate, s.rate)
	}

	exporter, err := s.exporter(ctx)
	if err != nil {
		return nil, fmt.Errorf("tracing exporter: %w", err)
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(s.service),
			semconv.TelemetrySDKLanguageGo,
		),
		resource.WithHost(),
	)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(samplerFor(s.rate))),
	)
	otel.SetTracerProvider(sdk)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return &Provider{sdk: sdk, propagate: cfg.ShouldPropagate()}, nil
}

// samplerFor maps a ratio to a sampler. 1 samples every run, 0 none.
func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate <= 0:
		return sdktrace.NeverSample()
	case rate >= 1:
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

func (s settings) exporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch s.protocol {
	case "grpc":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(s.endpoint)}
		if s.insecure {
			opts = append(opts,
				otlptracegrpc.WithInsecure(),
				otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			)
		}
		return otlptracegrpc.New(ctx, opts...)
	case "http":
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(s.endpoint)}
		if s.insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
	return nil, fmt.Errorf("unsupported OTLP protocol %q: use \"grpc\" or \"http\"", s.protocol)
}

// Tracer returns the benchmark tracer; a no-op tracer when disabled.
func (p *Provider) Tracer() trace.Tracer {
	return p.TracerProvider().Tracer(instrumentationName)
}

// TracerProvider exposes the provider for instrumentation middleware.
func (p *Provider) TracerProvider() trace.TracerProvider {
	if !p.Enabled() {
		return noop.NewTracerProvider()
	}
	return p.sdk
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.sdk != nil
}

// ShouldPropagate reports whether HTTP drivers send traceparent headers.
func (p *Provider) ShouldPropagate() bool {
	return p != nil && p.propagate
}

// Shutdown flushes buffered spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
