package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertResult = `INSERT INTO benchmark_results
  (run_id, driver, query_name, execution_time_ms, sample_count, median_ms, p95_ms, p99_ms, min_ms, max_ms)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresSink inserts rows into the benchmark_results table.
type PostgresSink struct {
	db    batchSender
	close func()
}

// NewPostgresSink connects to url. The benchmark_results table must already
// exist; `querybench migrate` creates it.
func NewPostgresSink(ctx context.Context, url string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("results database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("results database: %w", err)
	}
	return &PostgresSink{db: pool, close: pool.Close}, nil
}

// Write inserts rows in a single batch.
func (s *PostgresSink) Write(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertResult,
			r.RunID, r.Driver, r.QueryName, r.MeanMs, r.SampleCount,
			r.MedianMs, r.P95Ms, r.P99Ms, r.MinMs, r.MaxMs,
		)
	}

	br := s.db.SendBatch(ctx, batch)
	for i := range rows {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("store result %s/%s: %w", rows[i].Driver, rows[i].QueryName, err)
		}
	}
	return br.Close()
}

func (s *PostgresSink) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
