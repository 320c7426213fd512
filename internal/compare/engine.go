// Package compare runs the selected queries through each requested driver in
// turn and compares their latency.
package compare

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/querybench/internal/catalog"
	"github.com/torosent/querybench/internal/driver"
	"github.com/torosent/querybench/internal/events"
	"github.com/torosent/querybench/internal/runner"
	"github.com/torosent/querybench/internal/schema"
	"github.com/torosent/querybench/internal/stats"
	"github.com/torosent/querybench/internal/tracing"
)

// Opener creates driver handles.
type Opener interface {
	Open(ctx context.Context, t driver.Type) (driver.Handle, error)
}

// Provisioner prepares tables before data-dependent queries run.
type Provisioner interface {
	Ensure(ctx context.Context, db schema.Execer, queries []catalog.Query) (schema.Outcome, error)
}

// Engine runs comparisons. Drivers run strictly one after another so they
// never contend with each other.
type Engine struct {
	opener   Opener
	catalog  *catalog.Catalog
	guard    Provisioner
	runner   *runner.Runner
	observer events.Observer
	tracer   trace.Tracer
	retry    runner.RetryPolicy
	now      func() time.Time
}

type Option func(*Engine)

func WithObserver(o events.Observer) Option {
	return func(e *Engine) { e.observer = events.Multi(o) }
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

func WithProvisioner(p Provisioner) Option {
	return func(e *Engine) {
		if p != nil {
			e.guard = p
		}
	}
}

func WithRunner(r *runner.Runner) Option {
	return func(e *Engine) {
		if r != nil {
			e.runner = r
		}
	}
}

// WithConnectRetry retries opening a handle according to policy.
func WithConnectRetry(policy runner.RetryPolicy) Option {
	return func(e *Engine) { e.retry = policy }
}

// WithClock overrides the timestamp source for report metadata.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(opener Opener, cat *catalog.Catalog, opts ...Option) *Engine {
	if cat == nil {
		cat = catalog.Standard()
	}
	e := &Engine{
		opener:   opener,
		catalog:  cat,
		guard:    schema.NewGuard(),
		runner:   runner.New(runner.Options{}),
		observer: events.Nop,
		tracer:   noop.NewTracerProvider().Tracer("querybench"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compare benchmarks every requested driver. A driver that fails is left out
// of the report and listed in Failures; the run only fails as a whole when
// every requested driver failed.
func (e *Engine) Compare(ctx context.Context, req Request) (*Report, error) {
	if req.SampleCount <= 0 {
		return nil, &InputValidationError{Field: "sampleCount", Reason: fmt.Sprintf("must be positive, got %d", req.SampleCount)}
	}
	n := min(req.SampleCount, MaxSampleCount)

	drivers := req.Drivers
	if len(drivers) == 0 {
		drivers = driver.Types()
	}
	queries := e.catalog.Select(req.Queries)
	runID := ulid.Make().String()

	report := &Report{
		Results: make([]DriverComparison, 0, len(drivers)),
		Metadata: Metadata{
			RunID:       runID,
			SampleCount: n,
			Queries:     catalog.QueryNames(queries),
			Timestamp:   e.now().UTC(),
		},
	}

	names := make([]string, len(drivers))
	for i, d := range drivers {
		names[i] = string(d)
	}
	ctx, span := tracing.StartComparisonSpan(ctx, e.tracer, runID, names, n)

	started := time.Now()
	e.observer.Observe(ctx, events.Event{Kind: events.RunStarted, RunID: runID})

	var errs []error
	for _, d := range drivers {
		dc, err := e.runDriver(ctx, runID, d, queries, n)
		if err != nil {
			errs = append(errs, err)
			report.Failures = append(report.Failures, Failure{Driver: d, Error: err.Error()})
			e.observer.Observe(ctx, events.Event{Kind: events.DriverFailed, RunID: runID, Driver: string(d), Err: err})
			continue
		}
		report.Results = append(report.Results, dc)
	}

	computeComparisons(report.Results)

	e.observer.Observe(ctx, events.Event{Kind: events.RunCompleted, RunID: runID, Duration: time.Since(started)})

	if len(report.Results) == 0 {
		err := fmt.Errorf("%w: %w", ErrAllDriversFailed, errors.Join(errs...))
		tracing.EndSpan(span, err)
		return report, err
	}
	tracing.EndSpan(span, nil)
	return report, nil
}

func (e *Engine) runDriver(ctx context.Context, runID string, t driver.Type, queries []catalog.Query, n int) (dc DriverComparison, err error) {
	ctx, span := tracing.StartDriverSpan(ctx, e.tracer, string(t))
	defer func() { tracing.EndSpan(span, err) }()

	started := time.Now()
	e.observer.Observe(ctx, events.Event{Kind: events.DriverStarted, RunID: runID, Driver: string(t)})

	var h driver.Handle
	open := runner.WithRetry(func(ctx context.Context) error {
		var openErr error
		h, openErr = e.opener.Open(ctx, t)
		return openErr
	}, e.retry)
	if err := open(ctx); err != nil {
		return DriverComparison{}, err
	}
	defer h.Close()

	outcome, serr := e.guard.Ensure(ctx, h, queries)
	switch {
	case serr != nil:
		e.observer.Observe(ctx, events.Event{Kind: events.SchemaFailed, RunID: runID, Driver: string(t), Err: serr, Detail: outcome.String()})
	case outcome == schema.Provisioned || outcome == schema.Seeded:
		e.observer.Observe(ctx, events.Event{Kind: events.SchemaProvisioned, RunID: runID, Driver: string(t), Detail: outcome.String()})
	}

	results := make([]stats.PerformanceTestResult, 0, len(queries))
	for _, q := range queries {
		qctx, qspan := tracing.StartQuerySpan(ctx, e.tracer, string(t), q.Name, n)
		res, err := e.runner.Run(qctx, h, q, n)
		tracing.EndSpan(qspan, err)
		if err != nil {
			return DriverComparison{}, &ExecutionError{Driver: t, Query: q.Name, Err: err}
		}
		results = append(results, res)
		e.observer.Observe(ctx, events.Event{Kind: events.QueryCompleted, RunID: runID, Driver: string(t), Query: q.Name, Result: &res})
	}

	ev := events.Event{Kind: events.DriverCompleted, RunID: runID, Driver: string(t), Duration: time.Since(started)}
	if inst, ok := h.(driver.Instrumented); ok {
		if snap := inst.ClientMetrics(); snap.Connects > 0 {
			ev.Transport = &snap
		}
	}
	e.observer.Observe(ctx, ev)

	return summarize(t, results), nil
}
