// Package driver opens database client handles for each benchmarked driver
// type. Every handle owns its own pool or connection; handles are never shared
// between benchmark runs.
package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/torosent/querybench/internal/catalog"
	"github.com/torosent/querybench/internal/clientmetrics"
)

// Type identifies a driver implementation.
type Type string

const (
	// Pgx is a pooled Postgres connection on DATABASE_URL.
	Pgx Type = "pgx"
	// PgxDirect is a single direct Postgres connection on DIRECT_DATABASE_URL.
	PgxDirect Type = "pgx-direct"
	// NeonHTTP runs each statement as a Neon SQL-over-HTTP request.
	NeonHTTP Type = "neon-http"
	// NeonWebSocket speaks the Postgres wire protocol through a WebSocket tunnel.
	NeonWebSocket Type = "neon-websocket"
	// PlanetScale is a pooled MySQL connection on PLANETSCALE_DATABASE_URL.
	PlanetScale Type = "planetscale"
	// PlanetScaleUnpooled is a single MySQL connection on PLANETSCALE_DATABASE_URL_UNPOOLED.
	PlanetScaleUnpooled Type = "planetscale-unpooled"
)

// Pool sizes. They double as the sampling concurrency ceiling.
const (
	PooledConns   = 8
	UnpooledConns = 1
)

func (t Type) String() string { return string(t) }

// Result describes a fully received result set.
type Result struct {
	Rows int
}

// Handle executes statements against one backend. Implementations must be
// safe for concurrent use by up to MaxConns goroutines.
type Handle interface {
	Type() Type
	Dialect() catalog.Dialect
	// MaxConns is the number of statements the handle can run in parallel.
	MaxConns() int
	// Exec runs statement and returns once the whole result has been read.
	Exec(ctx context.Context, statement string) (Result, error)
	Close() error
}

// Instrumented is implemented by handles whose transport keeps client counters.
type Instrumented interface {
	ClientMetrics() clientmetrics.Snapshot
}

// ConfigurationError reports a connection setting that a driver requires but
// that is not configured.
type ConfigurationError struct {
	Driver   Type
	Variable string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("driver %s: %s is not configured", e.Driver, e.Variable)
}

// UnknownTypeError reports a driver identifier with no registered constructor.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown driver %q (supported: %s)", e.Name, strings.Join(typeNames(), ", "))
}

// ParseType validates a driver identifier.
func ParseType(name string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := registry[t]; !ok {
		return "", &UnknownTypeError{Name: name}
	}
	return t, nil
}

// ParseTypes validates every identifier, keeping order and duplicates. An
// empty input selects all registered types.
func ParseTypes(names []string) ([]Type, error) {
	if len(names) == 0 {
		return Types(), nil
	}
	out := make([]Type, 0, len(names))
	for _, name := range names {
		t, err := ParseType(name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Types lists every supported driver type in registration order.
func Types() []Type {
	out := make([]Type, len(order))
	copy(out, order)
	return out
}

func typeNames() []string {
	names := make([]string, len(order))
	for i, t := range order {
		names[i] = string(t)
	}
	return names
}
