// Package metrics records per-operation latency for session drivers using HDR
// histograms.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// Histogram range: 1 nanosecond to 10 seconds. Session operations are pure
	// computation and routinely finish in well under a microsecond.
	minLatencyNs = 1
	maxLatencyNs = 10_000_000_000
	sigFigs      = 3
)

// Operation names recorded by the drivers.
const (
	OpTick   = "tick"
	OpSkip   = "skip"
	OpAction = "action"
	OpSample = "sample"
)

// opMetrics holds metrics for a single operation type.
type opMetrics struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
	count     atomic.Int64
	errors    atomic.Int64
	errorMap  map[string]int64
}

func newOpMetrics() *opMetrics {
	return &opMetrics{
		histogram: hdrhistogram.New(minLatencyNs, maxLatencyNs, sigFigs),
		errorMap:  make(map[string]int64),
	}
}

// Collector aggregates metrics for multiple operation types. It is safe for
// concurrent use so the feed can read snapshots while a driver records.
type Collector struct {
	mu        sync.RWMutex
	ops       map[string]*opMetrics
	startTime time.Time
}

// NewCollector creates a new metrics Collector.
func NewCollector() *Collector {
	return &Collector{
		ops:       make(map[string]*opMetrics),
		startTime: time.Now(),
	}
}

// getOrCreateOp returns metrics for an operation type, creating if needed.
func (c *Collector) getOrCreateOp(opType string) *opMetrics {
	c.mu.RLock()
	op, exists := c.ops[opType]
	c.mu.RUnlock()

	if exists {
		return op
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if op, exists = c.ops[opType]; exists {
		return op
	}

	op = newOpMetrics()
	c.ops[opType] = op
	return op
}

// RecordLatency records an operation latency.
func (c *Collector) RecordLatency(opType string, latency time.Duration) {
	op := c.getOrCreateOp(opType)

	ns := latency.Nanoseconds()
	if ns < minLatencyNs {
		ns = minLatencyNs
	}
	if ns > maxLatencyNs {
		ns = maxLatencyNs
	}

	op.mu.Lock()
	_ = op.histogram.RecordValue(ns)
	op.mu.Unlock()

	op.count.Add(1)
}

// Time runs fn, records its latency under opType and classifies any returned
// error with ErrorType.
func (c *Collector) Time(opType string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.RecordLatency(opType, time.Since(start))
	if err != nil {
		c.IncrementError(opType, ErrorType(err))
	}
	return err
}

// IncrementCount increments the operation count without recording latency.
func (c *Collector) IncrementCount(opType string) {
	op := c.getOrCreateOp(opType)
	op.count.Add(1)
}

// IncrementError increments the error count for an operation type.
func (c *Collector) IncrementError(opType string, errType string) {
	op := c.getOrCreateOp(opType)
	op.errors.Add(1)

	op.mu.Lock()
	op.errorMap[errType]++
	op.mu.Unlock()
}

// GetSnapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) GetSnapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	duration := time.Since(c.startTime)
	snap := &Snapshot{
		StartTime:  c.startTime,
		Duration:   duration,
		Operations: make(map[string]*OperationStats),
	}

	var totalOps, totalErrors int64

	for opType, op := range c.ops {
		count := op.count.Load()
		errors := op.errors.Load()

		totalOps += count
		totalErrors += errors

		op.mu.Lock()
		hist := op.histogram.Export()
		errorMapCopy := make(map[string]int64, len(op.errorMap))
		for k, v := range op.errorMap {
			errorMapCopy[k] = v
		}
		op.mu.Unlock()

		imported := hdrhistogram.Import(hist)

		opStats := &OperationStats{
			Count:  count,
			Errors: errors,
			Latency: LatencyStats{
				Min:    time.Duration(imported.Min()),
				Max:    time.Duration(imported.Max()),
				Mean:   time.Duration(imported.Mean()),
				StdDev: time.Duration(imported.StdDev()),
				P50:    time.Duration(imported.ValueAtQuantile(50)),
				P90:    time.Duration(imported.ValueAtQuantile(90)),
				P95:    time.Duration(imported.ValueAtQuantile(95)),
				P99:    time.Duration(imported.ValueAtQuantile(99)),
				P999:   time.Duration(imported.ValueAtQuantile(99.9)),
			},
			ErrorTypes: errorMapCopy,
		}

		if duration.Seconds() > 0 {
			opStats.Rate = float64(count) / duration.Seconds()
		}

		snap.Operations[opType] = opStats
	}

	snap.TotalOps = totalOps
	snap.TotalErrors = totalErrors

	if duration.Seconds() > 0 {
		snap.Rate = float64(totalOps) / duration.Seconds()
	}

	return snap
}

// Reset clears all collected metrics and resets the start time.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ops = make(map[string]*opMetrics)
	c.startTime = time.Now()
}
