package driver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tidwall/gjson"

	"github.com/torosent/querybench/internal/catalog"
	"github.com/torosent/querybench/internal/clientmetrics"
	"github.com/torosent/querybench/internal/config"
	"github.com/torosent/querybench/internal/httpclient"
	"github.com/torosent/querybench/internal/tracing"
)

// HTTPQueryError is a statement rejected by the SQL-over-HTTP endpoint.
type HTTPQueryError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPQueryError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("HTTP %d: %s (SQLSTATE %s)", e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

type neonQuery struct {
	Query  string `json:"query"`
	Params []any  `json:"params"`
}

type neonHTTPHandle struct {
	endpoint   string
	connString string
	client     *http.Client
	metrics    *clientmetrics.ClientMetrics
	propagate  bool
}

func openNeonHTTP(ctx context.Context, db config.Database, opts Options) (Handle, error) {
	connString, err := require(NeonHTTP, db.URL, "DATABASE_URL")
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimSpace(db.NeonHTTPEndpoint)
	if endpoint == "" {
		pgCfg, err := pgconn.ParseConfig(connString)
		if err != nil {
			return nil, fmt.Errorf("driver %s: parse connection string: %w", NeonHTTP, err)
		}
		endpoint = "https://" + pgCfg.Host + "/sql"
	}

	metrics := clientmetrics.New()
	h := &neonHTTPHandle{
		endpoint:   endpoint,
		connString: connString,
		client:     httpclient.NewInstrumentedClient(opts.HTTPTimeout, metrics),
		metrics:    metrics,
		propagate:  opts.PropagateTrace,
	}

	if _, err := h.Exec(ctx, "SELECT 1"); err != nil {
		h.client.CloseIdleConnections()
		return nil, fmt.Errorf("driver %s: ping: %w", NeonHTTP, err)
	}
	metrics.MarkConnected()
	return h, nil
}

func (h *neonHTTPHandle) Type() Type               { return NeonHTTP }
func (h *neonHTTPHandle) Dialect() catalog.Dialect { return catalog.DialectPostgres }
func (h *neonHTTPHandle) MaxConns() int            { return PooledConns }

func (h *neonHTTPHandle) Exec(ctx context.Context, statement string) (Result, error) {
	headers := http.Header{}
	headers.Set("Neon-Connection-String", h.connString)
	headers.Set("Neon-Raw-Text-Output", "true")
	headers.Set("Neon-Array-Mode", "true")
	if h.propagate {
		tracing.InjectHTTPHeaders(ctx, headers)
	}

	req, err := httpclient.NewJSONRequest(ctx, h.endpoint, headers, neonQuery{Query: statement, Params: []any{}})
	if err != nil {
		return Result{}, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		qerr := &HTTPQueryError{StatusCode: resp.StatusCode}
		if gjson.ValidBytes(body) {
			qerr.Message = gjson.GetBytes(body, "message").String()
			qerr.Code = gjson.GetBytes(body, "code").String()
		}
		if qerr.Message == "" {
			qerr.Message = strings.TrimSpace(string(body))
		}
		return Result{}, qerr
	}

	if !gjson.ValidBytes(body) {
		return Result{}, fmt.Errorf("invalid JSON response from %s", h.endpoint)
	}
	rows := gjson.GetBytes(body, "rows")
	if !rows.Exists() {
		return Result{}, nil
	}
	return Result{Rows: int(rows.Get("#").Int())}, nil
}

func (h *neonHTTPHandle) Close() error {
	h.client.CloseIdleConnections()
	h.metrics.MarkClosed()
	return nil
}

func (h *neonHTTPHandle) ClientMetrics() clientmetrics.Snapshot {
	return h.metrics.Snapshot()
}
