package sched

import (
	"context"
	"errors"
	"io"
	"log"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xodbsdl/fueltrace/internal/wire"
)

// fakeClock drives the runner deterministically. Reading the clock advances
// it a few microseconds so the busy-poll terminates; sleeping advances it by
// the requested duration plus injected jitter, simulating an imprecise OS
// sleep.
type fakeClock struct {
	mu     sync.Mutex
	t      time.Time
	jitter func(time.Duration) time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(5 * time.Microsecond)
	return c.t
}

func (c *fakeClock) sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.jitter != nil {
		d += c.jitter(d)
	}
	c.t = c.t.Add(d)
}

type fakeTransport struct {
	mu     sync.Mutex
	sent   [][]byte
	resets int
	fail   bool
}

func (f *fakeTransport) Send(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("network unreachable")
	}
	f.sent = append(f.sent, append([]byte(nil), p...))
	return nil
}

func (f *fakeTransport) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

func (f *fakeTransport) Close() error { return nil }

func payloadFor(phase wire.Phase, cycle int) wire.Sample {
	return wire.Sample{State: phase, Fields: []wire.Field{{Name: "SOC", Value: "10"}}}
}

func newTestRunner(cfg Config, tr Transport, payload PayloadFunc) (*Runner, *fakeClock) {
	clock := newFakeClock()
	r := New(cfg, tr, payload, log.New(io.Discard, "", 0))
	r.now = clock.now
	r.sleep = clock.sleep
	return r, clock
}

// Firing error must stay bounded over many cycles even with sleep jitter:
// absolute-time scheduling means one late cycle does not push the next.
func TestNoCumulativeDrift(t *testing.T) {
	t.Parallel()

	const cycles = 500
	tr := &fakeTransport{}
	var r *Runner
	n := 0
	r, clock := newTestRunner(Config{
		Interval:       10 * time.Millisecond,
		PhaseDurations: [4]time.Duration{time.Hour, time.Hour, time.Hour, time.Hour},
	}, tr, func(phase wire.Phase, cycle int) wire.Sample {
		n++
		if n >= cycles {
			r.Stop()
		}
		return payloadFor(phase, cycle)
	})

	// Every sleep overshoots by up to 2ms.
	rng := rand.New(rand.NewPCG(1, 2))
	clock.jitter = func(time.Duration) time.Duration {
		return time.Duration(rng.Int64N(int64(2 * time.Millisecond)))
	}

	require.True(t, r.Start())
	r.Run(context.Background())

	st := r.Stats()
	assert.Equal(t, uint64(cycles), st.TimingSamples)
	assert.Less(t, st.MaxTimingError, 5*time.Millisecond,
		"firing error must stay bounded across %d jittered cycles", cycles)
	assert.Equal(t, uint64(cycles), st.PacketsSent)
}

func TestPhaseAdvanceByElapsedTime(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{}
	var r *Runner
	n := 0
	r, _ = newTestRunner(Config{
		Interval:       time.Millisecond,
		PhaseDurations: [4]time.Duration{5 * time.Millisecond, 5 * time.Millisecond, 5 * time.Millisecond, 5 * time.Millisecond},
	}, tr, func(phase wire.Phase, cycle int) wire.Sample {
		n++
		if n >= 30 {
			r.Stop()
		}
		return payloadFor(phase, cycle)
	})

	var transitions []wire.Phase
	r.OnPhaseChange = func(from, to wire.Phase) {
		transitions = append(transitions, to)
	}

	require.True(t, r.Start())
	r.Run(context.Background())

	// 30 cycles at 1ms through 5ms phases walk the full cycle and wrap back
	// to IDLE at least once.
	require.GreaterOrEqual(t, len(transitions), 4)
	assert.Equal(t, wire.PhaseStartup, transitions[0])
	assert.Equal(t, wire.PhaseMainFueling, transitions[1])
	assert.Equal(t, wire.PhaseShutdown, transitions[2])
	assert.Equal(t, wire.PhaseIdle, transitions[3], "completing SHUTDOWN wraps to IDLE")

	// The wire lines carry the phase progression.
	tr.mu.Lock()
	defer tr.mu.Unlock()
	first, err := wire.Decode(tr.sent[0])
	require.NoError(t, err)
	assert.Equal(t, wire.PhaseIdle, first.State)
}

func TestTransportErrorThresholdResets(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{fail: true}
	var r *Runner
	n := 0
	r, _ = newTestRunner(Config{
		Interval:       time.Millisecond,
		PhaseDurations: [4]time.Duration{time.Hour, time.Hour, time.Hour, time.Hour},
		ErrorThreshold: 3,
	}, tr, func(phase wire.Phase, cycle int) wire.Sample {
		n++
		if n >= 7 {
			r.Stop()
		}
		return payloadFor(phase, cycle)
	})

	require.True(t, r.Start())
	r.Run(context.Background())

	st := r.Stats()
	assert.Equal(t, uint64(7), st.SendErrors, "every cycle is attempted, none retried")
	assert.Equal(t, uint64(2), st.TransportResets, "reset fires at failures 3 and 6")

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Equal(t, 2, tr.resets)
}

func TestStartStopLifecycle(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{}
	r, _ := newTestRunner(Config{Interval: time.Millisecond}, tr, payloadFor)

	assert.False(t, r.Running())
	assert.True(t, r.Start())
	assert.False(t, r.Start(), "double start must be refused")
	assert.True(t, r.Running())

	r.Stop()
	r.Run(context.Background()) // already stopped: returns without sending
	assert.False(t, r.Running())

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Empty(t, tr.sent)
}

// A quick stop/start restart must never leave two send loops alive: the old
// loop can be parked in its coarse sleep when Stop is called, and a Start
// issued before it wakes has to wait for it to drain.
func TestRestartDoesNotOverlapLoops(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{}
	clock := newFakeClock()
	r := New(Config{
		Interval:       100 * time.Millisecond,
		PhaseDurations: [4]time.Duration{time.Hour, time.Hour, time.Hour, time.Hour},
	}, tr, payloadFor, log.New(io.Discard, "", 0))
	r.now = clock.now

	sleeping := make(chan struct{}, 1)
	release := make(chan struct{})
	r.sleep = func(d time.Duration) {
		select {
		case sleeping <- struct{}{}:
		default:
		}
		<-release
		clock.sleep(d)
	}

	require.True(t, r.Start())
	firstExited := make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(firstExited)
	}()

	// Cycle 0 fires immediately; the loop then parks inside the coarse
	// sleep toward cycle 1.
	<-sleeping
	r.Stop()

	started := make(chan bool, 1)
	go func() { started <- r.Start() }()

	select {
	case <-started:
		t.Fatal("Start returned while the previous loop was still draining")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-firstExited
	assert.True(t, <-started, "restart must succeed once the old loop has exited")

	// The drained loop sent only its pre-stop cycle, nothing after waking.
	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Len(t, tr.sent, 1)
}

func TestRunHonorsContextCancel(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{}
	r, _ := newTestRunner(Config{Interval: time.Millisecond}, tr, payloadFor)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.True(t, r.Start())
	r.Run(ctx)
	assert.False(t, r.Running())
}
