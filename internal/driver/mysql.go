package driver

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/torosent/querybench/internal/catalog"
	"github.com/torosent/querybench/internal/config"
)

type sqlHandle struct {
	typ      Type
	db       *sql.DB
	maxConns int
}

func openPlanetScale(ctx context.Context, db config.Database, _ Options) (Handle, error) {
	dsn, err := require(PlanetScale, db.PlanetScaleURL, "PLANETSCALE_DATABASE_URL")
	if err != nil {
		return nil, err
	}
	return newSQLHandle(ctx, PlanetScale, dsn, PooledConns)
}

func openPlanetScaleUnpooled(ctx context.Context, db config.Database, _ Options) (Handle, error) {
	dsn, err := require(PlanetScaleUnpooled, db.PlanetScaleUnpooledURL, "PLANETSCALE_DATABASE_URL_UNPOOLED")
	if err != nil {
		return nil, err
	}
	return newSQLHandle(ctx, PlanetScaleUnpooled, dsn, UnpooledConns)
}

func newSQLHandle(ctx context.Context, t Type, raw string, maxConns int) (*sqlHandle, error) {
	cfg, err := parseMySQLConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("driver %s: %w", t, err)
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("driver %s: %w", t, err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("driver %s: ping: %w", t, err)
	}
	return &sqlHandle{typ: t, db: db, maxConns: maxConns}, nil
}

// parseMySQLConfig accepts a mysql:// URL (as issued by PlanetScale) or a
// native go-sql-driver DSN.
func parseMySQLConfig(raw string) (*mysql.Config, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "mysql://") {
		cfg, err := mysql.ParseDSN(raw)
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %w", err)
		}
		cfg.ParseTime = true
		return cfg, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("parse url: missing host")
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true

	q := u.Query()
	switch {
	case q.Get("tls") != "":
		cfg.TLSConfig = q.Get("tls")
	case q.Get("sslaccept") != "", q.Has("ssl"), strings.EqualFold(q.Get("sslmode"), "require"):
		cfg.TLSConfig = "true"
	}
	return cfg, nil
}

func (h *sqlHandle) Type() Type               { return h.typ }
func (h *sqlHandle) Dialect() catalog.Dialect { return catalog.DialectMySQL }
func (h *sqlHandle) MaxConns() int            { return h.maxConns }

func (h *sqlHandle) Exec(ctx context.Context, statement string) (Result, error) {
	rows, err := h.db.QueryContext(ctx, statement)
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

func (h *sqlHandle) Close() error {
	return h.db.Close()
}
