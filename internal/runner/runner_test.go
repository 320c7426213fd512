package runner_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/querybench/internal/catalog"
	"github.com/torosent/querybench/internal/driver"
	"github.com/torosent/querybench/internal/runner"
)

// fakeHandle simulates a driver with fixed latency and tracks parallelism.
type fakeHandle struct {
	dialect  catalog.Dialect
	maxConns int
	latency  time.Duration
	failOn   int64 // 1-based call number that fails; 0 never fails

	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64

	mu         sync.Mutex
	statements []string
}

func (f *fakeHandle) Type() driver.Type { return "fake" }
func (f *fakeHandle) Dialect() catalog.Dialect {
	if f.dialect == "" {
		return catalog.DialectPostgres
	}
	return f.dialect
}
func (f *fakeHandle) MaxConns() int { return f.maxConns }
func (f *fakeHandle) Close() error  { return nil }

func (f *fakeHandle) Exec(ctx context.Context, statement string) (driver.Result, error) {
	call := f.calls.Add(1)
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if cur <= peak || f.peak.CompareAndSwap(peak, cur) {
			break
		}
	}

	f.mu.Lock()
	f.statements = append(f.statements, statement)
	f.mu.Unlock()

	select {
	case <-time.After(f.latency):
	case <-ctx.Done():
		return driver.Result{}, ctx.Err()
	}
	if f.failOn > 0 && call == f.failOn {
		return driver.Result{}, errors.New("connection reset")
	}
	return driver.Result{Rows: 1}, nil
}

func TestSampleStoresTimesByIteration(t *testing.T) {
	r := runner.New(runner.Options{Concurrency: 4})
	const n = 40

	times, err := r.Sample(context.Background(), n, func(ctx context.Context, i int) (time.Duration, error) {
		// Scramble completion order.
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
		return time.Duration(i) * time.Millisecond, nil
	})
	if err != nil {
		t.Fatalf("Sample error = %v", err)
	}
	if len(times) != n {
		t.Fatalf("len(times) = %d, want %d", len(times), n)
	}
	for i, v := range times {
		if v != float64(i) {
			t.Fatalf("times[%d] = %v, want %d", i, v, i)
		}
	}
}

func TestSampleZeroIterations(t *testing.T) {
	r := runner.New(runner.Options{})
	called := false
	times, err := r.Sample(context.Background(), 0, func(context.Context, int) (time.Duration, error) {
		called = true
		return 0, nil
	})
	if err != nil {
		t.Fatalf("Sample error = %v", err)
	}
	if times == nil || len(times) != 0 {
		t.Fatalf("times = %v, want empty non-nil slice", times)
	}
	if called {
		t.Fatal("sample function must not run for n=0")
	}
}

func TestSampleFailureAbortsRun(t *testing.T) {
	r := runner.New(runner.Options{Concurrency: 1})
	var calls int
	_, err := r.Sample(context.Background(), 10, func(_ context.Context, i int) (time.Duration, error) {
		calls++
		if i == 3 {
			return 0, errors.New("boom")
		}
		return time.Millisecond, nil
	})

	var serr *runner.SampleError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SampleError, got %v", err)
	}
	if serr.Iteration != 3 {
		t.Fatalf("Iteration = %d, want 3", serr.Iteration)
	}
	if calls != 4 {
		t.Fatalf("calls = %d, want 4 (no iterations after the failure)", calls)
	}
}

func TestSampleTimeout(t *testing.T) {
	r := runner.New(runner.Options{Concurrency: 2, Timeout: 10 * time.Millisecond})
	_, err := r.Sample(context.Background(), 2, func(ctx context.Context, _ int) (time.Duration, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRunSampleCountInvariant(t *testing.T) {
	h := &fakeHandle{maxConns: 8, latency: time.Millisecond}
	r := runner.New(runner.Options{Concurrency: 8})
	q := catalog.NewQuery("simple", "SELECT 1", false)

	for _, n := range []int{1, 7, 25} {
		res, err := r.Run(context.Background(), h, q, n)
		if err != nil {
			t.Fatalf("Run(%d) error = %v", n, err)
		}
		if res.SampleCount != n || len(res.Times) != n {
			t.Fatalf("Run(%d) sampleCount=%d len(times)=%d", n, res.SampleCount, len(res.Times))
		}
		if res.QueryName != "simple" {
			t.Fatalf("QueryName = %q", res.QueryName)
		}
		if res.Min <= 0 || res.Max < res.Min {
			t.Fatalf("unexpected stats %+v", res.Summary)
		}
	}
}

func TestRunZeroSamples(t *testing.T) {
	h := &fakeHandle{maxConns: 8}
	res, err := runner.New(runner.Options{}).Run(context.Background(), h, catalog.NewQuery("simple", "SELECT 1", false), 0)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if len(res.Times) != 0 || res.SampleCount != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if res.Median != 0 || res.Mean != 0 || res.P95 != 0 || res.P99 != 0 || res.Min != 0 || res.Max != 0 {
		t.Fatalf("expected zero stats, got %+v", res.Summary)
	}
	if h.calls.Load() != 0 {
		t.Fatalf("handle called %d times", h.calls.Load())
	}
}

func TestRunCapsWorkersAtPoolSize(t *testing.T) {
	tests := []struct {
		name        string
		concurrency int
		maxConns    int
		wantMax     int64
	}{
		{"single connection", 8, 1, 1},
		{"concurrency below pool", 2, 8, 2},
		{"pool below concurrency", 8, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHandle{maxConns: tt.maxConns, latency: 2 * time.Millisecond}
			r := runner.New(runner.Options{Concurrency: tt.concurrency})
			if _, err := r.Run(context.Background(), h, catalog.NewQuery("q", "SELECT 1", false), 20); err != nil {
				t.Fatalf("Run error = %v", err)
			}
			if peak := h.peak.Load(); peak > tt.wantMax {
				t.Fatalf("peak parallelism = %d, want <= %d", peak, tt.wantMax)
			}
		})
	}
}

func TestRunUsesDialectStatement(t *testing.T) {
	h := &fakeHandle{maxConns: 1, dialect: catalog.DialectMySQL}
	q := catalog.NewQuery("agg", "SELECT DATE_TRUNC('day', NOW())", true).
		WithStatement(catalog.DialectMySQL, "SELECT DATE(NOW())")

	if _, err := runner.New(runner.Options{}).Run(context.Background(), h, q, 2); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	for _, stmt := range h.statements {
		if stmt != "SELECT DATE(NOW())" {
			t.Fatalf("executed %q, want mysql statement", stmt)
		}
	}
}

func TestRunFailurePropagates(t *testing.T) {
	h := &fakeHandle{maxConns: 4, latency: time.Millisecond, failOn: 3}
	_, err := runner.New(runner.Options{Concurrency: 4}).Run(context.Background(), h, catalog.NewQuery("q", "SELECT 1", false), 10)
	if err == nil {
		t.Fatal("expected failure")
	}
	var serr *runner.SampleError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SampleError, got %T", err)
	}
}

type countingRecorder struct {
	mu      sync.Mutex
	samples int
	errors  int
	driver  string
	query   string
}

func (c *countingRecorder) RecordSample(driver, query string, _ time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples++
	if err != nil {
		c.errors++
	}
	c.driver, c.query = driver, query
}

func TestRunNotifiesRecorder(t *testing.T) {
	rec := &countingRecorder{}
	h := &fakeHandle{maxConns: 2}
	r := runner.New(runner.Options{Recorder: rec})
	if _, err := r.Run(context.Background(), h, catalog.NewQuery("countUsers", "SELECT 1", true), 6); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if rec.samples != 6 || rec.errors != 0 {
		t.Fatalf("recorder saw %d samples / %d errors", rec.samples, rec.errors)
	}
	if rec.driver != "fake" || rec.query != "countUsers" {
		t.Fatalf("recorder labels = %q/%q", rec.driver, rec.query)
	}
}

func TestRateLimiterPacesSamples(t *testing.T) {
	r := runner.New(runner.Options{
		Concurrency:   4,
		RatePerSecond: 100,
		LimiterFactory: func(rps int) *rate.Limiter {
			return rate.NewLimiter(rate.Limit(rps), 1)
		},
	})

	start := time.Now()
	if _, err := r.Sample(context.Background(), 11, func(context.Context, int) (time.Duration, error) {
		return time.Millisecond, nil
	}); err != nil {
		t.Fatalf("Sample error = %v", err)
	}
	// 11 samples at 100/s with burst 1 need at least ~100ms.
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Fatalf("rate limiter not applied: %s", elapsed)
	}
}

func TestSampleHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runner.New(runner.Options{}).Sample(ctx, 5, func(context.Context, int) (time.Duration, error) {
		return time.Millisecond, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
