package runner

import (
	"time"

	"golang.org/x/time/rate"
)

// DefaultConcurrency caps concurrent samples when Options.Concurrency is unset.
const DefaultConcurrency = 8

// Recorder observes every finished sample.
type Recorder interface {
	RecordSample(driver, query string, latency time.Duration, err error)
}

// Options configure the Runner.
type Options struct {
	Concurrency    int                         // maximum concurrent samples per query
	RatePerSecond  int                         // samples per second pacing (0 means unlimited)
	Timeout        time.Duration               // per-sample timeout (0 means none)
	Recorder       Recorder                    // optional sample observer
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
}

func (o *Options) normalize() {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.Timeout < 0 {
		o.Timeout = 0
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
