package telemetry

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SystemMetricsCollector samples goroutine and heap usage periodically
type SystemMetricsCollector struct {
	metrics  *Metrics
	logger   zerolog.Logger
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewSystemMetricsCollector creates a new system metrics collector
func NewSystemMetricsCollector(metrics *Metrics, logger zerolog.Logger, interval time.Duration) *SystemMetricsCollector {
	return &SystemMetricsCollector{
		metrics:  metrics,
		logger:   logger.With().Str("component", "system_metrics").Logger(),
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start samples once immediately, then on every tick until ctx is done or
// Stop is called. It blocks; run it in its own goroutine.
func (c *SystemMetricsCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Debug().
		Dur("interval", c.interval).
		Msg("Starting system metrics collection")

	c.Collect()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.Collect()
		}
	}
}

// Stop stops the metrics collection. Safe to call more than once.
func (c *SystemMetricsCollector) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// Collect takes a single sample.
func (c *SystemMetricsCollector) Collect() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	goroutines := runtime.NumGoroutine()
	c.metrics.UpdateSystemMetrics(goroutines, m.Alloc)

	c.logger.Trace().
		Int("goroutines", goroutines).
		Uint64("memory_bytes", m.Alloc).
		Msg("Updated system metrics")
}
