package ingest

import (
	"log"
	"sync"
)

// Stats is a point-in-time snapshot of the pipeline counters.
type Stats struct {
	Packets    uint64 `json:"packets"`
	Bytes      uint64 `json:"bytes"`
	Accepted   uint64 `json:"accepted"`
	Duplicates uint64 `json:"duplicates"`
	OutOfOrder uint64 `json:"out_of_order"`
	DecodeErrs uint64 `json:"decode_errors"`
	ReadErrs   uint64 `json:"read_errors"`
	LongGaps   uint64 `json:"long_gaps"`
}

// statsCollector accumulates pipeline counters. Writes come from the single
// ingestion goroutine; reads may come from HTTP handlers at any time.
type statsCollector struct {
	mu    sync.Mutex
	total Stats
	delta Stats // since the last LogStats call
}

func (c *statsCollector) addPacket(n int) {
	c.mu.Lock()
	c.total.Packets++
	c.total.Bytes += uint64(n)
	c.delta.Packets++
	c.delta.Bytes += uint64(n)
	c.mu.Unlock()
}

func (c *statsCollector) add(f func(*Stats)) {
	c.mu.Lock()
	f(&c.total)
	f(&c.delta)
	c.mu.Unlock()
}

// Snapshot returns the lifetime totals.
func (c *statsCollector) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// LogStats writes one summary line for the interval since the previous call
// and resets the interval counters. Modeled on the packet-stats reporting of
// the radar listener: a single periodic line, no per-sample noise.
func (c *statsCollector) LogStats(logger *log.Logger) Stats {
	c.mu.Lock()
	d := c.delta
	c.delta = Stats{}
	c.mu.Unlock()

	if d.Packets > 0 || d.ReadErrs > 0 {
		logger.Printf("ingest: %d packets (%d B), %d accepted, %d dup, %d out-of-order, %d decode-err, %d read-err",
			d.Packets, d.Bytes, d.Accepted, d.Duplicates, d.OutOfOrder, d.DecodeErrs, d.ReadErrs)
	}
	return d
}
