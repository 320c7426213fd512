// Package events carries benchmark lifecycle notifications from the
// comparison engine to logging, metrics and other observers.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/torosent/querybench/internal/clientmetrics"
	"github.com/torosent/querybench/internal/stats"
)

// Kind names a lifecycle event.
type Kind string

const (
	RunStarted        Kind = "run_started"
	RunCompleted      Kind = "run_completed"
	DriverStarted     Kind = "driver_started"
	DriverFailed      Kind = "driver_failed"
	DriverCompleted   Kind = "driver_completed"
	SchemaProvisioned Kind = "schema_provisioned"
	SchemaFailed      Kind = "schema_failed"
	QueryCompleted    Kind = "query_completed"
)

// Event describes one step of a comparison run. Fields irrelevant to Kind are
// left zero.
type Event struct {
	Kind     Kind
	RunID    string
	Driver   string
	Query    string
	Err      error
	Duration time.Duration
	Result   *stats.PerformanceTestResult
	// Detail is a short free-form qualifier, such as the schema outcome.
	Detail string
	// Transport carries client counters for HTTP and WebSocket drivers.
	Transport *clientmetrics.Snapshot
}

// Observer receives events. Implementations must be safe for concurrent use
// and must not block for long.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

// Nop discards events.
var Nop Observer = ObserverFunc(func(context.Context, Event) {})

type multi []Observer

// Multi fans events out to every non-nil observer in order.
func Multi(observers ...Observer) Observer {
	out := make(multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return Nop
	}
	return out
}

func (m multi) Observe(ctx context.Context, ev Event) {
	for _, o := range m {
		o.Observe(ctx, ev)
	}
}

// Logger renders events as structured log records.
type Logger struct {
	log *slog.Logger
}

// NewLogger returns an observer writing to log, or slog.Default when nil.
func NewLogger(log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log}
}

func (l *Logger) Observe(ctx context.Context, ev Event) {
	attrs := []slog.Attr{slog.String("event", string(ev.Kind))}
	if ev.RunID != "" {
		attrs = append(attrs, slog.String("run_id", ev.RunID))
	}
	if ev.Driver != "" {
		attrs = append(attrs, slog.String("driver", ev.Driver))
	}
	if ev.Query != "" {
		attrs = append(attrs, slog.String("query", ev.Query))
	}
	if ev.Duration > 0 {
		attrs = append(attrs, slog.Float64("elapsed_ms", stats.Milliseconds(ev.Duration)))
	}
	if ev.Result != nil {
		attrs = append(attrs,
			slog.Int("samples", ev.Result.SampleCount),
			slog.Float64("median_ms", ev.Result.Median),
			slog.Float64("p95_ms", ev.Result.P95),
		)
	}
	if ev.Detail != "" {
		attrs = append(attrs, slog.String("detail", ev.Detail))
	}
	if ev.Transport != nil {
		attrs = append(attrs,
			slog.Int64("connects", ev.Transport.Connects),
			slog.Int64("messages_sent", ev.Transport.MessagesSent),
			slog.Int64("bytes_received", ev.Transport.BytesReceived),
			slog.Int64("transport_errors", ev.Transport.Errors),
		)
	}

	level := slog.LevelInfo
	msg := "benchmark event"
	switch ev.Kind {
	case DriverFailed:
		level = slog.LevelError
		msg = "driver failed"
	case SchemaFailed:
		level = slog.LevelWarn
		msg = "schema provisioning failed, continuing"
	case QueryCompleted:
		level = slog.LevelDebug
		msg = "query sampled"
	case DriverStarted:
		msg = "driver started"
	case DriverCompleted:
		msg = "driver completed"
	case SchemaProvisioned:
		msg = "schema provisioned"
	case RunStarted:
		msg = "comparison started"
	case RunCompleted:
		msg = "comparison completed"
	}
	if ev.Err != nil {
		attrs = append(attrs, slog.String("error", ev.Err.Error()))
	}
	l.log.LogAttrs(ctx, level, msg, attrs...)
}
