// Package runner samples query latency under bounded concurrency.
//
// A [Runner] spawns min(cap, n) workers that drain a shared iteration
// counter. Each worker times one complete statement execution per claimed
// iteration and stores the elapsed milliseconds at that iteration's index, so
// the returned slice is ordered by iteration, not by completion.
//
// # Basic Usage
//
//	r := runner.New(runner.Options{Concurrency: 8})
//	result, err := r.Run(ctx, handle, query, 10)
//
// The worker cap is further limited by [driver.Handle.MaxConns] so a single
// connection driver is sampled serially.
//
// # Failure Policy
//
// Samples are never retried. The first failed iteration cancels the
// remaining claims and is returned as a [SampleError].
//
// # Pacing
//
// RatePerSecond paces sample starts through a golang.org/x/time/rate limiter.
// Zero leaves sampling unpaced.
//
// # Retries
//
// [WithRetry] wraps an [Operation] (opening a connection, for example) with a
// [RetryPolicy]:
//
//	open := runner.WithRetry(openHandle, runner.RetryPolicy{
//		MaxAttempts: 3,
//		DelayFunc:   runner.ExponentialBackoff(100*time.Millisecond, 2*time.Second),
//	})
package runner
