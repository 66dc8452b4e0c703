// Package metrics holds the process-wide aggregate counters mutated
// with atomic arithmetic, per spec.md §3/§5.
package metrics

import "sync/atomic"

// Counters is the process-wide set of aggregate counters. All fields are
// accessed only through the methods below so that reads and writes stay
// atomic; the avg-latency derivation is best-effort (the two operands
// are read independently, not as one atomic composite).
type Counters struct {
	packetsReceived  int64
	packetsProcessed int64
	packetsDropped   int64
	errors           int64
	totalLatencyMs   int64
}

func (c *Counters) IncPacketsReceived()       { atomic.AddInt64(&c.packetsReceived, 1) }
func (c *Counters) IncPacketsDropped()        { atomic.AddInt64(&c.packetsDropped, 1) }
func (c *Counters) AddPacketsDropped(n int64) { atomic.AddInt64(&c.packetsDropped, n) }
func (c *Counters) IncErrors()                { atomic.AddInt64(&c.errors, 1) }
func (c *Counters) PacketsReceived() int64    { return atomic.LoadInt64(&c.packetsReceived) }
func (c *Counters) PacketsProcessed() int64   { return atomic.LoadInt64(&c.packetsProcessed) }
func (c *Counters) PacketsDropped() int64     { return atomic.LoadInt64(&c.packetsDropped) }
func (c *Counters) Errors() int64             { return atomic.LoadInt64(&c.errors) }

// RecordPacketProcessed marks one packet as fully attempted and adds its
// end-to-end latency to the running total.
func (c *Counters) RecordPacketProcessed(latencyMs int64) {
	atomic.AddInt64(&c.packetsProcessed, 1)
	atomic.AddInt64(&c.totalLatencyMs, latencyMs)
}

// AvgLatencyMs returns totalLatencyMs / packetsProcessed, or 0 if no
// packet has completed yet.
func (c *Counters) AvgLatencyMs() float64 {
	processed := atomic.LoadInt64(&c.packetsProcessed)
	if processed == 0 {
		return 0
	}
	total := atomic.LoadInt64(&c.totalLatencyMs)
	return float64(total) / float64(processed)
}
