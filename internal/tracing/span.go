package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys attached to benchmark spans.
const (
	AttrRunID       = attribute.Key("querybench.run_id")
	AttrDriver      = attribute.Key("querybench.driver")
	AttrQuery       = attribute.Key("querybench.query")
	AttrSampleCount = attribute.Key("querybench.sample_count")
)

// StartComparisonSpan starts the root span for one comparison run.
func StartComparisonSpan(ctx context.Context, tracer trace.Tracer, runID string, drivers []string, sampleCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "compare",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			AttrRunID.String(runID),
			attribute.StringSlice("querybench.drivers", drivers),
			AttrSampleCount.Int(sampleCount),
		),
	)
}

// StartDriverSpan starts a span covering one driver's handle lifetime.
func StartDriverSpan(ctx context.Context, tracer trace.Tracer, driver string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "driver "+driver,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AttrDriver.String(driver)),
	)
}

// StartQuerySpan starts a client span for sampling one query on one driver.
func StartQuerySpan(ctx context.Context, tracer trace.Tracer, driver, query string, samples int) (context.Context, trace.Span) {
	spanName := "query"
	if query != "" {
		spanName = "query " + query
	}
	return tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			AttrDriver.String(driver),
			AttrQuery.String(query),
			AttrSampleCount.Int(samples),
		),
	)
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}
