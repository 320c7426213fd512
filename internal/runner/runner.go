package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/torosent/querybench/internal/catalog"
	"github.com/torosent/querybench/internal/driver"
	"github.com/torosent/querybench/internal/stats"
)

// SampleFunc performs one measured iteration and reports its elapsed time.
type SampleFunc func(ctx context.Context, iteration int) (time.Duration, error)

// SampleError is the first failed iteration of a sampling run.
type SampleError struct {
	Iteration int
	Err       error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d: %v", e.Iteration, e.Err)
}

func (e *SampleError) Unwrap() error { return e.Err }

// Execer runs one statement to completion.
type Execer interface {
	Exec(ctx context.Context, statement string) (driver.Result, error)
}

// TimeStatement measures wall-clock time around a complete Exec of statement.
func TimeStatement(db Execer, statement string) SampleFunc {
	return func(ctx context.Context, _ int) (time.Duration, error) {
		start := time.Now()
		_, err := db.Exec(ctx, statement)
		return time.Since(start), err
	}
}

// Runner samples queries under bounded concurrency.
type Runner struct {
	opt     Options
	limiter *rate.Limiter
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt, limiter: opt.LimiterFactory(opt.RatePerSecond)}
}

// Concurrency reports the configured worker cap.
func (r *Runner) Concurrency() int {
	return r.opt.Concurrency
}

// Run samples query n times on h and summarises the timings. Workers are
// capped by both the configured concurrency and the handle's pool size.
func (r *Runner) Run(ctx context.Context, h driver.Handle, query catalog.Query, n int) (stats.PerformanceTestResult, error) {
	workers := r.opt.Concurrency
	if limit := h.MaxConns(); limit > 0 && limit < workers {
		workers = limit
	}

	fn := TimeStatement(h, query.Statement(h.Dialect()))
	if rec := r.opt.Recorder; rec != nil {
		driverName, inner := string(h.Type()), fn
		fn = func(ctx context.Context, i int) (time.Duration, error) {
			d, err := inner(ctx, i)
			rec.RecordSample(driverName, query.Name, d, err)
			return d, err
		}
	}

	times, err := r.sample(ctx, n, workers, fn)
	if err != nil {
		return stats.PerformanceTestResult{}, err
	}
	return stats.NewPerformanceTestResult(query.Name, times), nil
}

// Sample runs fn for iterations 0..n-1 on up to Concurrency workers and
// returns the elapsed milliseconds indexed by iteration.
func (r *Runner) Sample(ctx context.Context, n int, fn SampleFunc) ([]float64, error) {
	return r.sample(ctx, n, r.opt.Concurrency, fn)
}

func (r *Runner) sample(ctx context.Context, n, workers int, fn SampleFunc) ([]float64, error) {
	if n <= 0 {
		return []float64{}, nil
	}
	workers = min(workers, n)

	times := make([]float64, n)
	var next atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				i := int(next.Add(1) - 1)
				if i >= n {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := r.limiter.Wait(gctx); err != nil {
					return err
				}

				elapsed, err := r.measure(gctx, i, fn)
				if err != nil {
					return &SampleError{Iteration: i, Err: err}
				}
				times[i] = stats.Milliseconds(elapsed)
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return times, nil
}

func (r *Runner) measure(ctx context.Context, i int, fn SampleFunc) (time.Duration, error) {
	if r.opt.Timeout <= 0 {
		return fn(ctx, i)
	}
	ctx, cancel := context.WithTimeout(ctx, r.opt.Timeout)
	defer cancel()
	return fn(ctx, i)
}
