package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader builds a Config from a config file, the environment and flags, in
// increasing order of precedence.
type Loader struct{}

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// envBindings maps setting keys to the environment variables that feed them.
var envBindings = map[string]string{
	"database.url":                      "DATABASE_URL",
	"database.direct_url":               "DIRECT_DATABASE_URL",
	"database.planetscale_url":          "PLANETSCALE_DATABASE_URL",
	"database.planetscale_unpooled_url": "PLANETSCALE_DATABASE_URL_UNPOOLED",
	"database.neon_http_endpoint":       "NEON_HTTP_ENDPOINT",
	"database.neon_websocket_endpoint":  "NEON_WEBSOCKET_ENDPOINT",
	"database.results_url":              "RESULTS_DATABASE_URL",
	"tracing.endpoint":                  "OTEL_EXPORTER_OTLP_ENDPOINT",
	"tracing.service_name":              "OTEL_SERVICE_NAME",
}

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	return &Config{
		SampleCount: DefaultSampleCount,
		Concurrency: DefaultConcurrency,
		Output:      OutputText,
		Listen:      DefaultListen,
		LogLevel:    "info",
		LogFormat:   "text",
		Tracing: TracingConfig{
			Protocol:    "grpc",
			ServiceName: "querybench",
			SampleRate:  1.0,
		},
	}
}

// Load reads configuration for an already parsed flag set. fs may be nil.
func (l Loader) Load(fs *pflag.FlagSet) (*Config, error) {
	var configPath string
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			configPath = strings.TrimSpace(f.Value.String())
		}
	}

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	cfg := Defaults()
	cfg.ConfigFile = configPath

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := applyConfigSettings(cfg, v.AllSettings()); err != nil {
		return nil, err
	}

	if fs != nil {
		if err := applyFlagOverrides(cfg, fs); err != nil {
			return nil, err
		}
	}

	cfg.Output = OutputFormat(strings.ToLower(string(cfg.Output)))
	cfg.Drivers = SplitList(cfg.Drivers...)
	cfg.Queries = SplitList(cfg.Queries...)

	return cfg, nil
}

// binding maps the accepted spellings of one setting onto a Config field.
type binding struct {
	keys  []string
	apply func(raw interface{}) error
}

func applyBindings(settings map[string]interface{}, bindings []binding) error {
	for _, b := range bindings {
		raw, ok := lookupSetting(settings, b.keys...)
		if !ok {
			continue
		}
		if err := b.apply(raw); err != nil {
			return fmt.Errorf("%s: %w", b.keys[0], err)
		}
	}
	return nil
}

func bindString(dst *string, keepEmpty bool, normalize func(string) string) func(interface{}) error {
	return func(raw interface{}) error {
		val, err := asString(raw)
		if err != nil {
			return err
		}
		val = strings.TrimSpace(val)
		if val == "" && !keepEmpty {
			return nil
		}
		if normalize != nil {
			val = normalize(val)
		}
		*dst = val
		return nil
	}
}

func bindInt(dst *int) func(interface{}) error {
	return func(raw interface{}) (err error) {
		*dst, err = asInt(raw)
		return err
	}
}

func bindBool(dst *bool) func(interface{}) error {
	return func(raw interface{}) (err error) {
		*dst, err = asBool(raw)
		return err
	}
}

func bindList(dst *[]string) func(interface{}) error {
	return func(raw interface{}) (err error) {
		*dst, err = asStringSlice(raw)
		return err
	}
}

// applyConfigSettings copies file and environment settings onto cfg.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}
	output := string(cfg.Output)
	err := applyBindings(settings, []binding{
		{[]string{"database"}, func(raw interface{}) (err error) {
			cfg.Database, err = parseDatabase(raw)
			return err
		}},
		{[]string{"drivers"}, bindList(&cfg.Drivers)},
		{[]string{"queries"}, bindList(&cfg.Queries)},
		{[]string{"sampleCount", "sample_count", "samples"}, bindInt(&cfg.SampleCount)},
		{[]string{"concurrency"}, bindInt(&cfg.Concurrency)},
		{[]string{"rate"}, bindInt(&cfg.Rate)},
		{[]string{"timeout"}, func(raw interface{}) (err error) {
			cfg.Timeout, err = asDuration(raw)
			return err
		}},
		{[]string{"connectRetries", "connect_retries", "connect-retries"}, bindInt(&cfg.ConnectRetries)},
		{[]string{"output"}, bindString(&output, false, strings.ToLower)},
		{[]string{"progress"}, bindBool(&cfg.Progress)},
		{[]string{"resultsFile", "results_file", "results-file"}, bindString(&cfg.ResultsFile, true, nil)},
		{[]string{"storeResults", "store_results", "store-results"}, bindBool(&cfg.StoreResults)},
		{[]string{"thresholds"}, bindList(&cfg.Thresholds)},
		{[]string{"listen"}, bindString(&cfg.Listen, false, nil)},
		{[]string{"logLevel", "log_level", "log-level"}, bindString(&cfg.LogLevel, false, strings.ToLower)},
		{[]string{"logFormat", "log_format", "log-format"}, bindString(&cfg.LogFormat, false, strings.ToLower)},
		{[]string{"tracing"}, func(raw interface{}) error { return applyTracing(&cfg.Tracing, raw) }},
	})
	cfg.Output = OutputFormat(output)
	return err
}

func parseDatabase(value interface{}) (Database, error) {
	var db Database
	if value == nil {
		return db, nil
	}
	settings, err := toStringKeyMap(value)
	if err != nil {
		return db, err
	}
	err = applyBindings(settings, []binding{
		{[]string{"url", "database_url"}, bindString(&db.URL, true, nil)},
		{[]string{"direct_url", "directUrl", "direct-url"}, bindString(&db.DirectURL, true, nil)},
		{[]string{"planetscale_url", "planetscaleUrl", "planetscale-url"}, bindString(&db.PlanetScaleURL, true, nil)},
		{[]string{"planetscale_unpooled_url", "planetscaleUnpooledUrl", "planetscale-unpooled-url"}, bindString(&db.PlanetScaleUnpooledURL, true, nil)},
		{[]string{"neon_http_endpoint", "neonHttpEndpoint", "neon-http-endpoint"}, bindString(&db.NeonHTTPEndpoint, true, nil)},
		{[]string{"neon_websocket_endpoint", "neonWebsocketEndpoint", "neon-websocket-endpoint"}, bindString(&db.NeonWebSocketEndpoint, true, nil)},
		{[]string{"results_url", "resultsUrl", "results-url"}, bindString(&db.ResultsURL, true, nil)},
	})
	return db, err
}

func applyTracing(t *TracingConfig, value interface{}) error {
	if value == nil {
		return nil
	}
	settings, err := toStringKeyMap(value)
	if err != nil {
		return err
	}
	return applyBindings(settings, []binding{
		{[]string{"endpoint"}, bindString(&t.Endpoint, true, nil)},
		{[]string{"protocol"}, bindString(&t.Protocol, false, strings.ToLower)},
		{[]string{"service_name", "serviceName", "service-name"}, bindString(&t.ServiceName, false, nil)},
		{[]string{"sample_rate", "sampleRate", "sample-rate"}, func(raw interface{}) (err error) {
			t.SampleRate, err = asFloat64(raw)
			return err
		}},
		{[]string{"insecure"}, bindBool(&t.Insecure)},
		{[]string{"no_propagate", "noPropagate", "no-propagate"}, bindBool(&t.NoPropagate)},
	})
}
