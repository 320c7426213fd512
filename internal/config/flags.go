package config

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all configuration flags on a cobra command and its
// subcommands.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.PersistentFlags())
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Connection flags; environment variables are used when unset.
	flags.String("database-url", "", "Pooled Postgres connection string (env DATABASE_URL)")
	flags.String("direct-database-url", "", "Direct/unpooled Postgres connection string (env DIRECT_DATABASE_URL)")
	flags.String("planetscale-url", "", "PlanetScale connection string (env PLANETSCALE_DATABASE_URL)")
	flags.String("planetscale-unpooled-url", "", "PlanetScale unpooled connection string (env PLANETSCALE_DATABASE_URL_UNPOOLED)")
	flags.String("neon-http-endpoint", "", "Override for the Neon SQL-over-HTTP endpoint")
	flags.String("neon-websocket-endpoint", "", "Override for the Neon WebSocket proxy endpoint")
	flags.String("results-database-url", "", "Postgres connection string results are stored in (defaults to --database-url)")

	// Benchmark flags
	flags.StringSliceP("driver", "D", nil, "Driver to benchmark (repeatable or comma separated; default all)")
	flags.StringSliceP("query", "q", nil, "Query to run (repeatable or comma separated; default whole catalog)")
	flags.IntP("samples", "n", DefaultSampleCount, "Samples per query")
	flags.IntP("concurrency", "c", DefaultConcurrency, "Maximum concurrent samples per query")
	flags.IntP("rate", "r", 0, "Samples per second limit (0 means unlimited)")
	flags.Duration("timeout", 0, "Per-sample timeout (0 means none)")
	flags.Int("connect-retries", 0, "Retries when opening a driver connection")
	flags.StringSlice("threshold", nil, "Threshold assertion, e.g. 'p95 < 250' or 'median:countUsers <= 40'")

	// Output flags
	flags.StringP("output", "o", string(OutputText), "Report format: text, json, or yaml")
	flags.Bool("progress", false, "Show a live progress line while sampling")
	flags.String("results-file", "", "Append results as JSON lines to this file")
	flags.Bool("store-results", false, "Insert results into the benchmark_results table")

	// Server flags
	flags.String("listen", DefaultListen, "Listen address for the HTTP API")

	// Logging flags
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (enables tracing)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.String("tracing-service-name", "querybench", "Service name reported with spans")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of traces sampled (0.0-1.0)")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Bool("tracing-no-propagate", false, "Do not inject W3C trace headers into driver HTTP requests")
}

func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	stringTargets := []struct {
		flag string
		dst  *string
	}{
		{"database-url", &cfg.Database.URL},
		{"direct-database-url", &cfg.Database.DirectURL},
		{"planetscale-url", &cfg.Database.PlanetScaleURL},
		{"planetscale-unpooled-url", &cfg.Database.PlanetScaleUnpooledURL},
		{"neon-http-endpoint", &cfg.Database.NeonHTTPEndpoint},
		{"neon-websocket-endpoint", &cfg.Database.NeonWebSocketEndpoint},
		{"results-database-url", &cfg.Database.ResultsURL},
		{"results-file", &cfg.ResultsFile},
		{"listen", &cfg.Listen},
		{"log-level", &cfg.LogLevel},
		{"log-format", &cfg.LogFormat},
		{"tracing-endpoint", &cfg.Tracing.Endpoint},
		{"tracing-protocol", &cfg.Tracing.Protocol},
		{"tracing-service-name", &cfg.Tracing.ServiceName},
	}
	for _, target := range stringTargets {
		if fs.Lookup(target.flag) == nil || !fs.Changed(target.flag) {
			continue
		}
		val, err := fs.GetString(target.flag)
		if err != nil {
			return err
		}
		*target.dst = strings.TrimSpace(val)
	}

	intTargets := []struct {
		flag string
		dst  *int
	}{
		{"samples", &cfg.SampleCount},
		{"concurrency", &cfg.Concurrency},
		{"rate", &cfg.Rate},
		{"connect-retries", &cfg.ConnectRetries},
	}
	for _, target := range intTargets {
		if fs.Lookup(target.flag) == nil || !fs.Changed(target.flag) {
			continue
		}
		val, err := fs.GetInt(target.flag)
		if err != nil {
			return err
		}
		*target.dst = val
	}

	boolTargets := []struct {
		flag string
		dst  *bool
	}{
		{"progress", &cfg.Progress},
		{"store-results", &cfg.StoreResults},
		{"tracing-insecure", &cfg.Tracing.Insecure},
		{"tracing-no-propagate", &cfg.Tracing.NoPropagate},
	}
	for _, target := range boolTargets {
		if fs.Lookup(target.flag) == nil || !fs.Changed(target.flag) {
			continue
		}
		val, err := fs.GetBool(target.flag)
		if err != nil {
			return err
		}
		*target.dst = val
	}

	if fs.Lookup("timeout") != nil && fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}
	if fs.Lookup("tracing-sample-rate") != nil && fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Lookup("output") != nil && fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}

	sliceTargets := []struct {
		flag string
		dst  *[]string
	}{
		{"driver", &cfg.Drivers},
		{"query", &cfg.Queries},
		{"threshold", &cfg.Thresholds},
	}
	for _, target := range sliceTargets {
		if fs.Lookup(target.flag) == nil || !fs.Changed(target.flag) {
			continue
		}
		val, err := fs.GetStringSlice(target.flag)
		if err != nil {
			return err
		}
		*target.dst = SplitList(val...)
	}

	return nil
}
