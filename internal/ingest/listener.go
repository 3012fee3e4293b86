package ingest

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xodbsdl/fueltrace/internal/eventlog"
	"github.com/xodbsdl/fueltrace/internal/wire"
)

// Config contains the configuration options for the ingestion listener.
type Config struct {
	// Address is the UDP listen address for the data channel, e.g. ":12345".
	Address string
	// RcvBuf is the socket receive buffer size in bytes; 0 keeps the OS
	// default.
	RcvBuf int
	// ReadTimeout bounds each blocking read so stop requests are observed
	// promptly. 0 selects 100ms.
	ReadTimeout time.Duration
	// DuplicateWindow is passed to the duplicate suppressor; 0 selects the
	// default.
	DuplicateWindow time.Duration
	// StatsInterval is how often a summary line is logged. 0 selects 10s.
	StatsInterval time.Duration
	// LongGap is the admitted-sample spacing beyond which a missed-data
	// warning is logged. 0 selects 1.5s.
	LongGap time.Duration

	Log    *eventlog.Log
	Logger *log.Logger

	// OnSample, when set, is called with every admitted sample after it has
	// been appended to the log. Called from the ingestion goroutine.
	OnSample func(wire.Sample)
}

// Listener owns the receive loop. Datagrams only flow into the pipeline
// while a session is running; outside a session they are read and discarded
// so the socket buffer cannot fill with stale data.
type Listener struct {
	cfg     Config
	logger  *log.Logger
	running atomic.Bool

	// pipeMu guards the stateful pipeline stages against concurrent session
	// resets from the control path.
	pipeMu       sync.Mutex
	suppressor   *DuplicateSuppressor
	validator    *PhaseSequenceValidator
	lastAdmitted time.Time

	stats statsCollector
}

// New creates a listener. The socket is not bound until Start.
func New(cfg Config) *Listener {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 100 * time.Millisecond
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = 10 * time.Second
	}
	if cfg.LongGap <= 0 {
		cfg.LongGap = 1500 * time.Millisecond
	}
	return &Listener{
		cfg:        cfg,
		logger:     cfg.Logger,
		suppressor: NewDuplicateSuppressor(cfg.DuplicateWindow),
		validator:  NewPhaseSequenceValidator(),
	}
}

// Start binds the data socket and runs the receive loop until ctx is
// cancelled. Failure to bind is fatal and returned immediately; everything
// after that is handled locally and never stops the loop.
func (l *Listener) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", l.cfg.Address)
	if err != nil {
		return fmt.Errorf("resolve data address %q: %w", l.cfg.Address, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("bind data socket %q: %w", l.cfg.Address, err)
	}
	defer conn.Close()

	if l.cfg.RcvBuf > 0 {
		if err := conn.SetReadBuffer(l.cfg.RcvBuf); err != nil {
			l.logger.Printf("ingest: could not set receive buffer to %d: %v", l.cfg.RcvBuf, err)
		}
	}
	l.logger.Printf("ingest: listening on %s", conn.LocalAddr())

	go l.statsLoop(ctx)

	buf := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_ = conn.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.stats.add(func(s *Stats) { s.ReadErrs++ })
			l.logger.Printf("ingest: read error: %v", err)
			continue
		}

		if !l.running.Load() {
			// Outside a session the datagram is drained and dropped.
			continue
		}

		l.stats.addPacket(n)
		l.ingest(buf[:n], time.Now())
	}
}

// ingest runs one raw line through decode, duplicate suppression, sequence
// validation, and the log append.
func (l *Listener) ingest(raw []byte, arrival time.Time) {
	l.pipeMu.Lock()
	defer l.pipeMu.Unlock()

	sample, err := wire.Decode(raw)
	if err != nil {
		l.stats.add(func(s *Stats) { s.DecodeErrs++ })
		return
	}

	if !l.suppressor.Admit(raw, arrival) {
		l.stats.add(func(s *Stats) { s.Duplicates++ })
		return
	}

	if !l.validator.Admit(sample.State) {
		l.stats.add(func(s *Stats) { s.OutOfOrder++ })
		return
	}

	sample.ReceivedAt = arrival
	if !l.lastAdmitted.IsZero() {
		if gap := arrival.Sub(l.lastAdmitted); gap > l.cfg.LongGap {
			l.stats.add(func(s *Stats) { s.LongGaps++ })
			l.logger.Printf("ingest: %s after a %.3fs gap, samples likely lost", sample.State, gap.Seconds())
		}
	}
	l.lastAdmitted = arrival

	sample.Seq = l.cfg.Log.Append(sample)
	l.stats.add(func(s *Stats) { s.Accepted++ })

	if l.cfg.OnSample != nil {
		l.cfg.OnSample(sample)
	}
}

// StartSession clears the pipeline state and event log for a fresh session
// generation and opens the gate for incoming datagrams.
func (l *Listener) StartSession() {
	l.pipeMu.Lock()
	l.suppressor.Reset()
	l.validator.Reset()
	l.lastAdmitted = time.Time{}
	l.cfg.Log.Reset()
	l.pipeMu.Unlock()
	l.running.Store(true)
}

// StopSession closes the gate; the log keeps its contents for inspection.
func (l *Listener) StopSession() {
	l.running.Store(false)
}

// Running reports whether a session is active.
func (l *Listener) Running() bool {
	return l.running.Load()
}

// Stats returns the lifetime pipeline counters.
func (l *Listener) Stats() Stats {
	return l.stats.Snapshot()
}

func (l *Listener) statsLoop(ctx context.Context) {
	t := time.NewTicker(l.cfg.StatsInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if l.running.Load() {
				l.stats.LogStats(l.logger)
			}
		}
	}
}
