package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/torosent/querybench/internal/api"
	"github.com/torosent/querybench/internal/compare"
	"github.com/torosent/querybench/internal/metrics"
	"github.com/torosent/querybench/internal/output"
	"github.com/torosent/querybench/internal/sink"
	"github.com/torosent/querybench/internal/threshold"
)

// thresholdError reports failed threshold assertions.
type thresholdError struct {
	failed int
	total  int
}

func (e *thresholdError) Error() string {
	return fmt.Sprintf("%d of %d threshold checks failed", e.failed, e.total)
}

func (a *app) runCompare(ctx context.Context) error {
	format, err := output.ParseFormat(string(a.cfg.Output))
	if err != nil {
		return err
	}
	thresholds, err := threshold.ParseMultiple(a.cfg.Thresholds)
	if err != nil {
		return err
	}
	sampleCount := a.cfg.SampleCount
	req, err := compare.NewRequest(a.cfg.Drivers, a.cfg.Queries, &sampleCount)
	if err != nil {
		return err
	}

	sinks, err := a.openSinks(ctx)
	if err != nil {
		return err
	}
	defer closeSinks(sinks)

	collector := metrics.NewCollector()
	engine := a.newEngine(collector)

	var progress *output.ProgressReporter
	if a.cfg.Progress {
		progress = output.NewProgressReporter(collector, progressInterval, a.stderr)
		progress.Start()
	}
	collector.Start()
	report, runErr := engine.Compare(ctx, req)
	if progress != nil {
		progress.Stop()
	}
	if report == nil {
		return runErr
	}

	if err := output.Write(a.stdout, format, report); err != nil {
		return err
	}
	if format == output.FormatText {
		output.PrintSampleSummary(a.stdout, collector.Stats(collector.Elapsed()))
	}

	if err := sink.Store(ctx, report, sinks...); err != nil {
		a.log.Error("storing results failed", "run_id", report.Metadata.RunID, "error", err)
	}

	if runErr != nil {
		return runErr
	}
	return a.checkThresholds(report, thresholds)
}

func (a *app) checkThresholds(report *compare.Report, thresholds []threshold.Threshold) error {
	if len(thresholds) == 0 {
		return nil
	}
	results := threshold.NewEvaluator(thresholds).Evaluate(report)

	failed := 0
	var b strings.Builder
	b.WriteString("\nThresholds:\n")
	for _, r := range results {
		if !r.Pass {
			failed++
		}
		fmt.Fprintf(&b, "  %s\n", r.Message)
	}
	fmt.Fprint(a.stderr, b.String())

	if failed > 0 {
		return &thresholdError{failed: failed, total: len(results)}
	}
	return nil
}

func (a *app) openSinks(ctx context.Context) ([]sink.Sink, error) {
	var sinks []sink.Sink
	if path := strings.TrimSpace(a.cfg.ResultsFile); path != "" {
		sinks = append(sinks, sink.NewFileSink(path))
	}
	if a.cfg.StoreResults {
		pg, err := sink.NewPostgresSink(ctx, a.cfg.Database.ResultsOrPooled())
		if err != nil {
			closeSinks(sinks)
			return nil, err
		}
		sinks = append(sinks, pg)
	}
	return sinks, nil
}

func closeSinks(sinks []sink.Sink) {
	for _, s := range sinks {
		_ = s.Close()
	}
}

func (a *app) runServe(ctx context.Context) error {
	exporter := metrics.NewExporter()
	engine := a.newEngine(exporter, exporter)

	sinks, err := a.openSinks(ctx)
	if err != nil {
		return err
	}
	defer closeSinks(sinks)

	opts := []api.Option{
		api.WithLogger(a.log),
		api.WithMetricsHandler(exporter.Handler()),
	}
	if len(sinks) > 0 {
		opts = append(opts, api.WithResultStore(func(ctx context.Context, report *compare.Report) error {
			return sink.Store(ctx, report, sinks...)
		}))
	}
	if a.tracing.Enabled() {
		opts = append(opts, api.WithTracing(a.cfg.Tracing.ServiceName, a.tracing.TracerProvider()))
	}

	return api.NewServer(engine, a.newAdmin(), opts...).ListenAndServe(ctx, a.cfg.Listen)
}

func (a *app) runMigrate(ctx context.Context) error {
	if err := a.newAdmin().Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintln(a.stdout, "Database migration completed successfully")
	return nil
}

func (a *app) runSeed(ctx context.Context) error {
	counts, err := a.newAdmin().Seed(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(a.stdout, "Database seeded successfully: %d users, %d posts, %d comments\n",
		counts.Users, counts.Posts, counts.Comments)
	return nil
}

func (a *app) runHealth(ctx context.Context) error {
	if err := a.newAdmin().Ping(ctx); err != nil {
		fmt.Fprintln(a.stdout, "unhealthy")
		return err
	}
	fmt.Fprintln(a.stdout, "healthy")
	return nil
}
