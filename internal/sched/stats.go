package sched

import (
	"log"
	"sync"
	"time"
)

// Stats is a snapshot of the send-loop counters. Timing error is the gap
// between a cycle's target time and when it actually fired; it is recorded
// for observability only and never fed back into scheduling.
type Stats struct {
	PacketsSent     uint64        `json:"packets_sent"`
	SendErrors      uint64        `json:"send_errors"`
	TransportResets uint64        `json:"transport_resets"`
	TimingSamples   uint64        `json:"timing_samples"`
	AvgTimingError  time.Duration `json:"avg_timing_error_ns"`
	MaxTimingError  time.Duration `json:"max_timing_error_ns"`
}

type timingStats struct {
	mu          sync.Mutex
	sent        uint64
	sendErrs    uint64
	resets      uint64
	count       uint64
	sum         time.Duration
	max         time.Duration
	recentCount uint64
	recentSum   time.Duration
	recentMax   time.Duration
}

func (t *timingStats) recordTiming(err time.Duration) {
	if err < 0 {
		err = -err
	}
	t.mu.Lock()
	t.count++
	t.sum += err
	if err > t.max {
		t.max = err
	}
	t.recentCount++
	t.recentSum += err
	if err > t.recentMax {
		t.recentMax = err
	}
	t.mu.Unlock()
}

func (t *timingStats) recordSent() {
	t.mu.Lock()
	t.sent++
	t.mu.Unlock()
}

func (t *timingStats) recordSendError() {
	t.mu.Lock()
	t.sendErrs++
	t.mu.Unlock()
}

func (t *timingStats) recordReset() {
	t.mu.Lock()
	t.resets++
	t.mu.Unlock()
}

func (t *timingStats) snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Stats{
		PacketsSent:     t.sent,
		SendErrors:      t.sendErrs,
		TransportResets: t.resets,
		TimingSamples:   t.count,
		MaxTimingError:  t.max,
	}
	if t.count > 0 {
		s.AvgTimingError = t.sum / time.Duration(t.count)
	}
	return s
}

// logReport writes one timing summary for the interval since the previous
// report and clears the interval accumulators.
func (t *timingStats) logReport(logger *log.Logger) {
	t.mu.Lock()
	count, sum, max, sent, errs := t.recentCount, t.recentSum, t.recentMax, t.sent, t.sendErrs
	t.recentCount, t.recentSum, t.recentMax = 0, 0, 0
	t.mu.Unlock()

	if count == 0 {
		return
	}
	avg := sum / time.Duration(count)
	logger.Printf("sched: %d packets sent, avg timing error %.2fms, max %.2fms, %d send errors",
		sent, float64(avg.Microseconds())/1000, float64(max.Microseconds())/1000, errs)
}
