// Package metrics aggregates benchmark samples while a comparison runs.
//
// # Collector
//
// [Collector] implements runner.Recorder. Every finished sample is recorded
// into an HDR histogram, both overall and per driver/query pair:
//
//	collector := metrics.NewCollector()
//	r := runner.New(runner.Options{Recorder: collector})
//
//	// Later, for progress output:
//	stats := collector.Stats(time.Since(start))
//
// Failed samples are grouped by driver and a readable error label, see
// [ErrorLabel] and [FlattenFailures].
//
// # Prometheus
//
// [Exporter] publishes the same samples together with engine lifecycle
// events on its own registry. It implements both runner.Recorder and
// events.Observer, and [Exporter.Handler] serves the registry for scraping.
package metrics
