package driver

import (
	"context"
	"strings"
	"time"

	"github.com/torosent/querybench/internal/config"
)

// Options tune transport details shared by all handles a Factory opens.
type Options struct {
	// HTTPTimeout bounds each SQL-over-HTTP request. Zero means no limit.
	HTTPTimeout time.Duration
	// PropagateTrace injects W3C trace context into HTTP driver requests.
	PropagateTrace bool
}

type constructor func(ctx context.Context, db config.Database, opts Options) (Handle, error)

var registry = map[Type]constructor{
	Pgx:                 openPgx,
	PgxDirect:           openPgxDirect,
	NeonHTTP:            openNeonHTTP,
	NeonWebSocket:       openNeonWebSocket,
	PlanetScale:         openPlanetScale,
	PlanetScaleUnpooled: openPlanetScaleUnpooled,
}

var order = []Type{Pgx, PgxDirect, NeonHTTP, NeonWebSocket, PlanetScale, PlanetScaleUnpooled}

// Factory opens handles from an explicit set of connection settings.
type Factory struct {
	db   config.Database
	opts Options
}

func NewFactory(db config.Database, opts Options) *Factory {
	return &Factory{db: db, opts: opts}
}

// Open connects a new, independent handle for t. The handle has been pinged
// successfully when Open returns.
func (f *Factory) Open(ctx context.Context, t Type) (Handle, error) {
	open, ok := registry[t]
	if !ok {
		return nil, &UnknownTypeError{Name: string(t)}
	}
	return open(ctx, f.db, f.opts)
}

func require(t Type, value, variable string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", &ConfigurationError{Driver: t, Variable: variable}
	}
	return value, nil
}
