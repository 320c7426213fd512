package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/torosent/querybench/internal/api"
	"github.com/torosent/querybench/internal/catalog"
	"github.com/torosent/querybench/internal/compare"
	"github.com/torosent/querybench/internal/config"
	"github.com/torosent/querybench/internal/driver"
	"github.com/torosent/querybench/internal/events"
	"github.com/torosent/querybench/internal/runner"
	"github.com/torosent/querybench/internal/tracing"
)

const (
	progressInterval = time.Second
	baseRetryDelay   = 100 * time.Millisecond
	maxRetryDelay    = 5 * time.Second
	shutdownTimeout  = 5 * time.Second
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	tracing *tracing.Provider
	factory *driver.Factory
	stdout  io.Writer
	stderr  io.Writer
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "querybench",
		Short:         "Compare query latency across Postgres and MySQL drivers",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCompare(cmd.Context())
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	config.RegisterFlags(root)

	root.AddCommand(
		&cobra.Command{
			Use:   "compare",
			Short: "Run a driver comparison and print the report (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.runCompare(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the comparison API over HTTP",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the benchmark tables in DATABASE_URL",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.runMigrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Reset the benchmark tables in DATABASE_URL and load fixture data",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.runSeed(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "health",
			Short: "Check that DATABASE_URL answers SELECT 1",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.runHealth(cmd.Context())
			},
		},
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.NewLoader().Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = newLogger(a.stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(a.log)

	a.tracing, err = tracing.Init(cmd.Context(), cfg.Tracing)
	if err != nil {
		return err
	}

	a.factory = driver.NewFactory(cfg.Database, driver.Options{
		HTTPTimeout:    cfg.Timeout,
		PropagateTrace: a.tracing.ShouldPropagate(),
	})
	return nil
}

// teardown flushes pending spans.
func (a *app) teardown() error {
	if a.tracing == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.tracing.Shutdown(ctx)
}

// newEngine wires the comparison engine. recorder and observers may be nil.
func (a *app) newEngine(recorder runner.Recorder, observers ...events.Observer) *compare.Engine {
	r := runner.New(runner.Options{
		Concurrency:   a.cfg.Concurrency,
		RatePerSecond: a.cfg.Rate,
		Timeout:       a.cfg.Timeout,
		Recorder:      recorder,
	})
	observers = append([]events.Observer{events.NewLogger(a.log)}, observers...)

	return compare.NewEngine(a.factory, catalog.Standard(),
		compare.WithRunner(r),
		compare.WithObserver(events.Multi(observers...)),
		compare.WithTracer(a.tracing.Tracer()),
		compare.WithConnectRetry(newRetryPolicy(a.cfg.ConnectRetries)),
	)
}

// newAdmin runs maintenance through the pooled Postgres driver.
func (a *app) newAdmin() *api.DatabaseAdmin {
	return api.NewDatabaseAdmin(a.factory, driver.Pgx)
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log format %q is not supported", format)
	}
}

// newRetryPolicy retries connection failures with exponential backoff.
// Missing configuration and cancellation are never retried.
func newRetryPolicy(retries int) runner.RetryPolicy {
	return runner.RetryPolicy{
		MaxAttempts: retries + 1,
		ShouldRetry: func(err error) bool {
			if err == nil {
				return false
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return false
			}
			var cfgErr *driver.ConfigurationError
			return !errors.As(err, &cfgErr)
		},
		DelayFunc: runner.ExponentialBackoff(baseRetryDelay, maxRetryDelay),
	}
}
