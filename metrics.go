package distkmeans

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/distkmeans/collective"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Workers of the same process may share one collector, so implementations
// must be safe for concurrent use.
type MetricsCollector interface {
	// RecordInit is called once the dataset and initial centers are in place.
	RecordInit(points, k int, duration time.Duration)

	// RecordRound is called after each assignment+update round.
	RecordRound(round int, duration time.Duration)

	// RecordCollective is called after each collective operation.
	// bytes is the size of the local buffer taking part.
	RecordCollective(op collective.Op, bytes int, duration time.Duration, err error)

	// RecordEmptyCluster is called for every cluster that received no points in a round.
	RecordEmptyCluster(round, cluster int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInit(int, int, time.Duration)                         {}
func (NoopMetricsCollector) RecordRound(int, time.Duration)                             {}
func (NoopMetricsCollector) RecordCollective(collective.Op, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordEmptyCluster(int, int)                                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InitCount          atomic.Int64
	InitTotalNanos     atomic.Int64
	RoundCount         atomic.Int64
	RoundTotalNanos    atomic.Int64
	CollectiveCount    atomic.Int64
	CollectiveErrors   atomic.Int64
	CollectiveBytes    atomic.Int64
	CollectiveNanos    atomic.Int64
	EmptyClusterEvents atomic.Int64
}

// RecordInit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInit(_, _ int, duration time.Duration) {
	b.InitCount.Add(1)
	b.InitTotalNanos.Add(duration.Nanoseconds())
}

// RecordRound implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRound(_ int, duration time.Duration) {
	b.RoundCount.Add(1)
	b.RoundTotalNanos.Add(duration.Nanoseconds())
}

// RecordCollective implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCollective(_ collective.Op, bytes int, duration time.Duration, err error) {
	b.CollectiveCount.Add(1)
	b.CollectiveBytes.Add(int64(bytes))
	b.CollectiveNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CollectiveErrors.Add(1)
	}
}

// RecordEmptyCluster implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEmptyCluster(int, int) {
	b.EmptyClusterEvents.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InitCount:          b.InitCount.Load(),
		RoundCount:         b.RoundCount.Load(),
		RoundAvgNanos:      avg(b.RoundTotalNanos.Load(), b.RoundCount.Load()),
		CollectiveCount:    b.CollectiveCount.Load(),
		CollectiveErrors:   b.CollectiveErrors.Load(),
		CollectiveBytes:    b.CollectiveBytes.Load(),
		CollectiveAvgNanos: avg(b.CollectiveNanos.Load(), b.CollectiveCount.Load()),
		EmptyClusterEvents: b.EmptyClusterEvents.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InitCount          int64
	RoundCount         int64
	RoundAvgNanos      int64
	CollectiveCount    int64
	CollectiveErrors   int64
	CollectiveBytes    int64
	CollectiveAvgNanos int64
	EmptyClusterEvents int64
}
