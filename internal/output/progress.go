package output

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/torosent/querybench/internal/metrics"
)

// ProgressReporter redraws a single status line while a comparison runs.
type ProgressReporter struct {
	collector *metrics.Collector
	interval  time.Duration
	writer    io.Writer
	start     time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewProgressReporter creates a reporter that redraws every interval.
func NewProgressReporter(collector *metrics.Collector, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		collector: collector,
		interval:  interval,
		writer:    writer,
		start:     time.Now(),
	}
}

// Start launches the redraw loop. Calling it again while running is a no-op.
func (p *ProgressReporter) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.stopped = make(chan struct{})
	go p.loop(ctx, p.stopped)
}

// Stop ends the loop and moves the cursor past the status line. It does
// nothing when the reporter never started.
func (p *ProgressReporter) Stop() {
	p.mu.Lock()
	cancel, stopped := p.cancel, p.stopped
	p.cancel, p.stopped = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-stopped
	fmt.Fprintln(p.writer)
}

func (p *ProgressReporter) loop(ctx context.Context, stopped chan<- struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(p.writer, "\r"+progressLine(p.collector.Stats(time.Since(p.start))))
		}
	}
}

func progressLine(s metrics.Stats) string {
	line := fmt.Sprintf("Samples: %d | Failures: %d | SPS: %.1f | P90: %.1fms",
		s.Total, s.Failures, s.SamplesPerSec, s.P90LatencyMs)
	if s.CurrentDriver == "" {
		return line
	}
	return line + " | " + s.CurrentDriver + "/" + s.CurrentQuery
}
