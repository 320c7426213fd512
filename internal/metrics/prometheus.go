package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/torosent/querybench/internal/events"
)

const namespace = "querybench"

// Exporter publishes samples and lifecycle events as Prometheus metrics.
type Exporter struct {
	registry *prometheus.Registry

	sampleDuration *prometheus.HistogramVec
	sampleFailures *prometheus.CounterVec
	queryMedian    *prometheus.GaugeVec
	driverRuns     *prometheus.CounterVec
	driverDuration *prometheus.HistogramVec
	schemaEvents   *prometheus.CounterVec
	runs           prometheus.Counter
	transportBytes *prometheus.CounterVec
}

// NewExporter registers the benchmark metrics on a fresh registry. Go
// runtime and process collectors are included.
func NewExporter() *Exporter {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Exporter{
		registry: reg,
		// Labels: driver, query, status (ok, error)
		sampleDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sample",
			Name:      "duration_seconds",
			Help:      "Latency of individual benchmark samples in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"driver", "query", "status"}),
		sampleFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sample",
			Name:      "failures_total",
			Help:      "Total failed benchmark samples",
		}, []string{"driver", "query", "error"}),
		queryMedian: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "median_milliseconds",
			Help:      "Median latency of the last completed query run",
		}, []string{"driver", "query"}),
		// Labels: driver, outcome (completed, failed)
		driverRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "runs_total",
			Help:      "Driver runs by outcome",
		}, []string{"driver", "outcome"}),
		driverDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "duration_seconds",
			Help:      "Wall time of a driver run including connect and schema checks",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"driver"}),
		schemaEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schema",
			Name:      "events_total",
			Help:      "Schema provisioning outcomes",
		}, []string{"driver", "outcome"}),
		runs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed comparison runs",
		}),
		// Labels: driver, direction (sent, received)
		transportBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "bytes_total",
			Help:      "Bytes moved by HTTP and WebSocket drivers",
		}, []string{"driver", "direction"}),
	}
}

// Registry exposes the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{Registry: e.registry})
}

// RecordSample implements runner.Recorder.
func (e *Exporter) RecordSample(driver, query string, latency time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		e.sampleFailures.WithLabelValues(driver, query, ErrorLabel(err)).Inc()
	}
	e.sampleDuration.WithLabelValues(driver, query, status).Observe(latency.Seconds())
}

// Observe implements events.Observer.
func (e *Exporter) Observe(_ context.Context, ev events.Event) {
	switch ev.Kind {
	case events.RunCompleted:
		e.runs.Inc()
	case events.QueryCompleted:
		if ev.Result != nil {
			e.queryMedian.WithLabelValues(ev.Driver, ev.Query).Set(ev.Result.Median)
		}
	case events.DriverCompleted:
		e.driverRuns.WithLabelValues(ev.Driver, "completed").Inc()
		e.driverDuration.WithLabelValues(ev.Driver).Observe(ev.Duration.Seconds())
		if t := ev.Transport; t != nil {
			e.transportBytes.WithLabelValues(ev.Driver, "sent").Add(float64(t.BytesSent))
			e.transportBytes.WithLabelValues(ev.Driver, "received").Add(float64(t.BytesReceived))
		}
	case events.DriverFailed:
		e.driverRuns.WithLabelValues(ev.Driver, "failed").Inc()
	case events.SchemaProvisioned:
		e.schemaEvents.WithLabelValues(ev.Driver, ev.Detail).Inc()
	case events.SchemaFailed:
		e.schemaEvents.WithLabelValues(ev.Driver, "failed").Inc()
	}
}
