// Package sched drives the dispenser's send loop on an absolute-time grid.
// Cycle n fires at sessionStart + n*interval measured on the monotonic
// clock, so timing error on one cycle never leaks into the next and a
// session accumulates no drift, unlike a naive sleep(interval) loop. The
// final stretch before each deadline is busy-polled for sub-millisecond
// firing accuracy.
package sched

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xodbsdl/fueltrace/internal/wire"
)

const (
	// DefaultInterval is the 1 Hz telemetry cadence.
	DefaultInterval = time.Second
	// spinThreshold is the remaining-time cutoff below which the wait
	// busy-polls the clock instead of sleeping.
	spinThreshold = 2 * time.Millisecond
	// sleepSlice caps one coarse sleep, bounding how long a stop request
	// can go unobserved mid-wait.
	sleepSlice = 100 * time.Millisecond
)

// Transport carries encoded payloads to the monitor. Reset tears the
// underlying socket down and re-establishes it after repeated send failures.
type Transport interface {
	Send(payload []byte) error
	Reset() error
	Close() error
}

// PayloadFunc produces the sample for one cycle of the given phase.
type PayloadFunc func(phase wire.Phase, cycle int) wire.Sample

// Config contains the scheduler configuration.
type Config struct {
	// Interval between cycles; 0 selects the 1s default.
	Interval time.Duration
	// PhaseDurations holds how long each phase of the cycle runs, indexed
	// like wire.Phases. A zero entry defaults to 10s.
	PhaseDurations [4]time.Duration
	// ErrorThreshold is the consecutive-send-failure count that triggers a
	// transport reset; 0 selects 10.
	ErrorThreshold int
	// StatsInterval is how often the timing report is logged; 0 selects 5s.
	StatsInterval time.Duration
}

// Runner owns the send loop. Start/Stop toggle the RUNNING state; Run is the
// loop body and exits when stopped or cancelled.
type Runner struct {
	cfg       Config
	transport Transport
	payload   PayloadFunc
	logger    *log.Logger

	running atomic.Bool

	// mu guards done, the channel Run closes when the loop of the current
	// session has actually returned. Start blocks on it so a loop still
	// draining out of its final sleep can never overlap the next one.
	mu   sync.Mutex
	done chan struct{}

	// OnPhaseChange, when set, is called from the send loop whenever the
	// active phase advances.
	OnPhaseChange func(from, to wire.Phase)

	stats timingStats

	// Clock hooks, overridable in tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a stopped runner.
func New(cfg Config, transport Transport, payload PayloadFunc, logger *log.Logger) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	for i := range cfg.PhaseDurations {
		if cfg.PhaseDurations[i] <= 0 {
			cfg.PhaseDurations[i] = 10 * time.Second
		}
	}
	if cfg.ErrorThreshold <= 0 {
		cfg.ErrorThreshold = 10
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = 5 * time.Second
	}
	return &Runner{
		cfg:       cfg,
		transport: transport,
		payload:   payload,
		logger:    logger,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Running reports whether the send loop is active.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Start moves STOPPED -> RUNNING. It returns false if already running.
// When the loop of a stopped session is still draining out of its final
// sleep, Start waits for it to return (bounded by one sleep slice) before
// opening the new session, so two send loops never run concurrently. Each
// successful Start must be followed by exactly one Run.
func (r *Runner) Start() bool {
	r.mu.Lock()
	if r.running.Load() {
		r.mu.Unlock()
		return false
	}
	done := r.done
	r.mu.Unlock()

	if done != nil {
		<-done
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running.Load() {
		return false
	}
	r.done = make(chan struct{})
	r.running.Store(true)
	return true
}

// Stop requests a cooperative stop; the loop finishes any in-flight send and
// exits.
func (r *Runner) Stop() {
	r.running.Store(false)
}

// Stats returns the lifetime timing and transport counters.
func (r *Runner) Stats() Stats {
	return r.stats.snapshot()
}

// Run executes cycles until Stop is called or ctx is cancelled. Transport
// errors never terminate the loop: the cycle is skipped, the failure is
// counted, and after the configured consecutive-error threshold the
// transport is reset once and the counter cleared.
func (r *Runner) Run(ctx context.Context) {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	defer func() {
		r.running.Store(false)
		if done != nil {
			close(done)
		}
	}()

	sessionStart := r.now()
	cycle := 0
	phaseIdx := 0
	phaseStart := sessionStart
	consecutiveErrs := 0
	lastReport := sessionStart

	r.logger.Printf("sched: session started, interval %s", r.cfg.Interval)

	for r.running.Load() && ctx.Err() == nil {
		target := sessionStart.Add(time.Duration(cycle) * r.cfg.Interval)
		if !r.waitUntil(ctx, target) {
			break
		}

		fired := r.now()
		r.stats.recordTiming(fired.Sub(target))

		sample := r.payload(wire.Phases[phaseIdx], cycle)
		line, err := wire.Encode(sample)
		if err != nil {
			// Payload generators own their field names; this is a bug, not
			// a transport condition.
			r.logger.Printf("sched: dropping unencodable payload: %v", err)
		} else if err := r.transport.Send(line); err != nil {
			consecutiveErrs++
			r.stats.recordSendError()
			r.logger.Printf("sched: send failed (%d consecutive): %v", consecutiveErrs, err)
			if consecutiveErrs >= r.cfg.ErrorThreshold {
				r.logger.Print("sched: error threshold reached, resetting transport")
				if err := r.transport.Reset(); err != nil {
					r.logger.Printf("sched: transport reset failed: %v", err)
				}
				r.stats.recordReset()
				consecutiveErrs = 0
			}
		} else {
			r.stats.recordSent()
			consecutiveErrs = 0
		}

		cycle++

		// Advance the phase by elapsed time, not cycle count. Completing
		// SHUTDOWN wraps the cycle and resynchronizes the time grid so the
		// counter cannot grow without bound across a long session.
		if fired.Sub(phaseStart) >= r.cfg.PhaseDurations[phaseIdx] {
			from := wire.Phases[phaseIdx]
			phaseIdx++
			phaseStart = fired
			if phaseIdx == len(wire.Phases) {
				phaseIdx = 0
				sessionStart = r.now()
				cycle = 0
			}
			to := wire.Phases[phaseIdx]
			r.logger.Printf("sched: phase %s -> %s", from, to)
			if r.OnPhaseChange != nil {
				r.OnPhaseChange(from, to)
			}
		}

		if fired.Sub(lastReport) >= r.cfg.StatsInterval {
			r.stats.logReport(r.logger)
			lastReport = fired
		}
	}

	final := r.stats.snapshot()
	r.logger.Printf("sched: session stopped after %d packets (max timing error %.2fms, %d send errors)",
		final.PacketsSent, float64(final.MaxTimingError.Microseconds())/1000, final.SendErrors)
}

// waitUntil blocks until the monotonic clock reaches target. While more than
// spinThreshold remains it sleeps 90% of the remainder, capped at one slice
// so a stop request is observed promptly; the last stretch is busy-polled.
// Returns false if the runner was stopped or the context cancelled during
// the coarse portion.
func (r *Runner) waitUntil(ctx context.Context, target time.Time) bool {
	for {
		if !r.running.Load() || ctx.Err() != nil {
			return false
		}
		remaining := target.Sub(r.now())
		if remaining <= 0 {
			return true
		}
		if remaining > spinThreshold {
			d := remaining * 9 / 10
			if d > sleepSlice {
				d = sleepSlice
			}
			r.sleep(d)
			continue
		}
		for target.Sub(r.now()) > 0 {
		}
		return true
	}
}
