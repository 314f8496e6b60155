// Package metrics collects per-invocation latency and outcome counts
// for a run. Recording is safe from concurrent invocation goroutines.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Metrics aggregates invocation outcomes across a run
type Metrics struct {
	mu sync.Mutex

	total    atomic.Int64
	failures atomic.Int64
	timeouts atomic.Int64

	// Latency histogram in microseconds for precision
	histogram *hdrhistogram.Histogram

	startTime time.Time
}

// New creates an empty metrics collector
func New() *Metrics {
	return &Metrics{
		// 1us to 60s range, 3 significant digits
		histogram: hdrhistogram.New(1, 60_000_000, 3),
		startTime: time.Now(),
	}
}

// Observe records one completed invocation
func (m *Metrics) Observe(latency time.Duration, failed bool) {
	m.total.Add(1)
	if failed {
		m.failures.Add(1)
	}

	m.mu.Lock()
	_ = m.histogram.RecordValue(latency.Microseconds())
	m.mu.Unlock()
}

// ObserveTimeout records a case batch that hit its timeout
func (m *Metrics) ObserveTimeout() {
	m.timeouts.Add(1)
}

// Snapshot is a point-in-time view of the collected metrics
type Snapshot struct {
	Total    int64
	Failures int64
	Timeouts int64
	Elapsed  time.Duration

	P50  time.Duration
	P95  time.Duration
	P99  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// Snapshot returns the current aggregate view
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Total:    m.total.Load(),
		Failures: m.failures.Load(),
		Timeouts: m.timeouts.Load(),
		Elapsed:  time.Since(m.startTime),
		P50:      time.Duration(m.histogram.ValueAtQuantile(50)) * time.Microsecond,
		P95:      time.Duration(m.histogram.ValueAtQuantile(95)) * time.Microsecond,
		P99:      time.Duration(m.histogram.ValueAtQuantile(99)) * time.Microsecond,
		Max:      time.Duration(m.histogram.Max()) * time.Microsecond,
		Mean:     time.Duration(m.histogram.Mean()) * time.Microsecond,
	}
}

// ErrorRate returns the ratio of failed invocations to total
func (s Snapshot) ErrorRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Total)
}
