package driver

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/torosent/querybench/internal/catalog"
	"github.com/torosent/querybench/internal/clientmetrics"
	"github.com/torosent/querybench/internal/config"
	"github.com/torosent/querybench/internal/websocket"
)

type pgxHandle struct {
	typ      Type
	pool     *pgxpool.Pool
	maxConns int
	metrics  *clientmetrics.ClientMetrics
}

func openPgx(ctx context.Context, db config.Database, _ Options) (Handle, error) {
	connString, err := require(Pgx, db.URL, "DATABASE_URL")
	if err != nil {
		return nil, err
	}
	return newPgxHandle(ctx, Pgx, connString, PooledConns, nil, nil)
}

func openPgxDirect(ctx context.Context, db config.Database, _ Options) (Handle, error) {
	connString, err := require(PgxDirect, db.DirectOrPooled(), "DIRECT_DATABASE_URL or DATABASE_URL")
	if err != nil {
		return nil, err
	}
	return newPgxHandle(ctx, PgxDirect, connString, UnpooledConns, nil, nil)
}

func openNeonWebSocket(ctx context.Context, db config.Database, _ Options) (Handle, error) {
	connString, err := require(NeonWebSocket, db.URL, "DATABASE_URL")
	if err != nil {
		return nil, err
	}

	metrics := clientmetrics.New()
	endpoint := strings.TrimSpace(db.NeonWebSocketEndpoint)
	configure := func(cfg *pgxpool.Config) error {
		base := endpoint
		if base == "" {
			base = "wss://" + cfg.ConnConfig.Host + "/v2"
		}
		// The tunnel carries TLS; the Postgres session inside it is plain.
		cfg.ConnConfig.TLSConfig = nil
		cfg.ConnConfig.Fallbacks = nil
		cfg.ConnConfig.LookupFunc = func(_ context.Context, host string) ([]string, error) {
			return []string{host}, nil
		}
		cfg.ConnConfig.DialFunc = func(ctx context.Context, _, addr string) (net.Conn, error) {
			target, err := neonWebSocketURL(base, addr)
			if err != nil {
				return nil, err
			}
			return websocket.Dial(ctx, websocket.Config{URL: target, Metrics: metrics})
		}
		return nil
	}
	return newPgxHandle(ctx, NeonWebSocket, connString, PooledConns, configure, metrics)
}

// neonWebSocketURL appends the proxied Postgres address to the tunnel endpoint.
func neonWebSocketURL(base, addr string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("websocket endpoint: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return "", fmt.Errorf("websocket endpoint %q must use ws or wss", base)
	}
	q := u.Query()
	q.Set("address", addr)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func newPgxHandle(ctx context.Context, t Type, connString string, maxConns int, configure func(*pgxpool.Config) error, metrics *clientmetrics.ClientMetrics) (*pgxHandle, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("driver %s: parse connection string: %w", t, err)
	}
	cfg.MaxConns = int32(maxConns)
	cfg.MinConns = 0
	// Transaction poolers reject named prepared statements.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec
	if configure != nil {
		if err := configure(cfg); err != nil {
			return nil, fmt.Errorf("driver %s: %w", t, err)
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("driver %s: create pool: %w", t, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("driver %s: ping: %w", t, err)
	}

	return &pgxHandle{typ: t, pool: pool, maxConns: maxConns, metrics: metrics}, nil
}

func (h *pgxHandle) Type() Type               { return h.typ }
func (h *pgxHandle) Dialect() catalog.Dialect { return catalog.DialectPostgres }
func (h *pgxHandle) MaxConns() int            { return h.maxConns }

func (h *pgxHandle) Exec(ctx context.Context, statement string) (Result, error) {
	rows, err := h.pool.Query(ctx, statement)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return Result{Rows: n}, nil
}

func (h *pgxHandle) Close() error {
	h.pool.Close()
	return nil
}

// ClientMetrics reports tunnel counters; zero for plain socket handles.
func (h *pgxHandle) ClientMetrics() clientmetrics.Snapshot {
	return h.metrics.Snapshot()
}
