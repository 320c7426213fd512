package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector records per-sample metrics in a thread-safe manner.
type Collector struct {
	mu        sync.Mutex
	overall   *bucket
	byQuery   map[queryKey]*bucket
	failures  map[string]map[string]int
	start     time.Time
	lastQuery queryKey
}

type queryKey struct {
	driver string
	query  string
}

type bucket struct {
	hist       *hdrhistogram.Histogram
	successes  int64
	failures   int64
	minLatency time.Duration
	maxLatency time.Duration
	sumLatency time.Duration
}

func newBucket() *bucket {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	return &bucket{hist: hdrhistogram.New(1, 60_000_000, 3)}
}

func (b *bucket) record(latency time.Duration, err error) {
	if latency > 0 {
		us := latency.Microseconds()
		if us < b.hist.LowestTrackableValue() {
			us = b.hist.LowestTrackableValue()
		}
		if us > b.hist.HighestTrackableValue() {
			us = b.hist.HighestTrackableValue()
		}
		_ = b.hist.RecordValue(us)
	}
	b.sumLatency += latency

	if b.minLatency == 0 || latency < b.minLatency {
		b.minLatency = latency
	}
	if latency > b.maxLatency {
		b.maxLatency = latency
	}

	if err == nil {
		b.successes++
	} else {
		b.failures++
	}
}

func (b *bucket) stats(elapsed time.Duration) Stats {
	total := b.successes + b.failures
	s := Stats{
		Total:      total,
		Successes:  b.successes,
		Failures:   b.failures,
		MinLatency: b.minLatency,
		MaxLatency: b.maxLatency,
		Duration:   elapsed,
	}
	if total > 0 {
		s.MeanLatency = time.Duration(int64(b.sumLatency) / total)
	}
	if b.hist.TotalCount() > 0 {
		s.P50Latency = time.Duration(b.hist.ValueAtQuantile(50)) * time.Microsecond
		s.P90Latency = time.Duration(b.hist.ValueAtQuantile(90)) * time.Microsecond
		s.P99Latency = time.Duration(b.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	s.MinLatencyMs = ms(s.MinLatency)
	s.MaxLatencyMs = ms(s.MaxLatency)
	s.MeanLatencyMs = ms(s.MeanLatency)
	s.P50LatencyMs = ms(s.P50Latency)
	s.P90LatencyMs = ms(s.P90Latency)
	s.P99LatencyMs = ms(s.P99Latency)
	s.DurationMs = ms(elapsed)
	if elapsed > 0 && total > 0 {
		s.SamplesPerSec = float64(total) / elapsed.Seconds()
	}
	return s
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Stats represents aggregated sample metrics.
type Stats struct {
	Total         int64         `json:"total"`
	Successes     int64         `json:"successes"`
	Failures      int64         `json:"failures"`
	MinLatency    time.Duration `json:"-"`
	MaxLatency    time.Duration `json:"-"`
	MeanLatency   time.Duration `json:"-"`
	P50Latency    time.Duration `json:"-"`
	P90Latency    time.Duration `json:"-"`
	P99Latency    time.Duration `json:"-"`
	Duration      time.Duration `json:"-"`
	SamplesPerSec float64       `json:"samples_per_sec"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64 `json:"min_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms"`
	MeanLatencyMs float64 `json:"mean_latency_ms"`
	P50LatencyMs  float64 `json:"p50_latency_ms"`
	P90LatencyMs  float64 `json:"p90_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms"`
	DurationMs    float64 `json:"duration_ms"`

	// Current is the driver/query pair that recorded the latest sample.
	CurrentDriver string `json:"current_driver,omitempty"`
	CurrentQuery  string `json:"current_query,omitempty"`

	Queries       []QueryStats    `json:"queries,omitempty"`
	FailureCounts []FailureBucket `json:"failures_by_driver,omitempty"`
}

// QueryStats holds the aggregated metrics of one driver/query pair.
type QueryStats struct {
	Driver string `json:"driver"`
	Query  string `json:"query"`
	Stats
}

func NewCollector() *Collector {
	return &Collector{
		overall:  newBucket(),
		byQuery:  make(map[queryKey]*bucket),
		failures: make(map[string]map[string]int),
		start:    time.Now(),
	}
}

// Start resets the clock used for rate calculation.
func (c *Collector) Start() {
	c.mu.Lock()
	c.start = time.Now()
	c.mu.Unlock()
}

// Elapsed returns the time since the collector was created or last started.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start)
}

// RecordSample records a single sample's latency and error state.
func (c *Collector) RecordSample(driver, query string, latency time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := queryKey{driver: driver, query: query}
	b, ok := c.byQuery[key]
	if !ok {
		b = newBucket()
		c.byQuery[key] = b
	}
	b.record(latency, err)
	c.overall.record(latency, err)
	c.lastQuery = key

	if err != nil {
		label := ErrorLabel(err)
		byLabel, ok := c.failures[driver]
		if !ok {
			byLabel = make(map[string]int)
			c.failures[driver] = byLabel
		}
		byLabel[label]++
	}
}

// Stats computes and returns current aggregated statistics. Per-query
// entries are ordered by driver, then query.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.overall.stats(elapsed)
	s.CurrentDriver = c.lastQuery.driver
	s.CurrentQuery = c.lastQuery.query

	keys := make([]queryKey, 0, len(c.byQuery))
	for k := range c.byQuery {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].driver == keys[j].driver {
			return keys[i].query < keys[j].query
		}
		return keys[i].driver < keys[j].driver
	})
	for _, k := range keys {
		s.Queries = append(s.Queries, QueryStats{
			Driver: k.driver,
			Query:  k.query,
			Stats:  c.byQuery[k].stats(0),
		})
	}

	s.FailureCounts = FlattenFailures(c.failures)
	return s
}

// GetErrorBreakdown returns failure counts per driver and error label.
func (c *Collector) GetErrorBreakdown() map[string]map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]map[string]int, len(c.failures))
	for d, labels := range c.failures {
		copied := make(map[string]int, len(labels))
		for k, v := range labels {
			copied[k] = v
		}
		result[d] = copied
	}
	return result
}
