package ingest

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xodbsdl/fueltrace/internal/eventlog"
	"github.com/xodbsdl/fueltrace/internal/wire"
)

func newTestListener(t *testing.T) (*Listener, *eventlog.Log) {
	t.Helper()
	elog := eventlog.New(100, 20)
	l := New(Config{
		Address: "127.0.0.1:0",
		Log:     elog,
		Logger:  log.New(io.Discard, "", 0),
	})
	l.StartSession()
	return l, elog
}

// The reference scenario: two IDLE lines 120ms apart, then STARTUP,
// MAIN_FUELING, and an IDLE that skips SHUTDOWN. Expected admissions are
// IDLE, STARTUP, MAIN_FUELING, IDLE; the second IDLE line is a duplicate.
func TestPipelineScenario(t *testing.T) {
	t.Parallel()

	l, elog := newTestListener(t)
	base := time.Now()

	lines := []struct {
		raw   string
		after time.Duration
	}{
		{"IDLE|SOC:10", 0},
		{"IDLE|SOC:10", 120 * time.Millisecond},
		{"STARTUP|SOC:10", 1 * time.Second},
		{"MAIN_FUELING|SOC:12", 2 * time.Second},
		{"IDLE|SOC:95", 3 * time.Second},
	}
	for _, ln := range lines {
		l.ingest([]byte(ln.raw), base.Add(ln.after))
	}

	want := []wire.Phase{wire.PhaseIdle, wire.PhaseStartup, wire.PhaseMainFueling, wire.PhaseIdle}
	require.Equal(t, len(want), elog.Len())
	for i, phase := range want {
		s, ok := elog.At(i)
		require.True(t, ok)
		assert.Equal(t, phase, s.State, "entry %d", i)
	}

	st := l.Stats()
	assert.Equal(t, uint64(4), st.Accepted)
	assert.Equal(t, uint64(1), st.Duplicates)
	assert.Equal(t, uint64(0), st.OutOfOrder)
}

func TestPipelineCountsRejections(t *testing.T) {
	t.Parallel()

	l, elog := newTestListener(t)
	base := time.Now()

	l.ingest([]byte("IDLE|SOC:10"), base)
	l.ingest([]byte("SHUTDOWN|SOC:90"), base.Add(time.Second))     // out of order
	l.ingest([]byte(""), base.Add(2*time.Second))                  // undecodable
	l.ingest([]byte("STARTUP|SOC:11"), base.Add(3*time.Second))    // fine
	l.ingest([]byte("MAIN_FUELING|SOC:12"), base.Add(6*time.Second)) // fine, long gap

	st := l.Stats()
	assert.Equal(t, uint64(3), st.Accepted)
	assert.Equal(t, uint64(1), st.OutOfOrder)
	assert.Equal(t, uint64(1), st.DecodeErrs)
	assert.Equal(t, uint64(1), st.LongGaps)
	assert.Equal(t, 3, elog.Len())
}

func TestStartSessionResetsPipeline(t *testing.T) {
	t.Parallel()

	l, elog := newTestListener(t)
	base := time.Now()

	l.ingest([]byte("IDLE|SOC:10"), base)
	l.ingest([]byte("STARTUP|SOC:11"), base.Add(time.Second))
	require.Equal(t, 2, elog.Len())

	l.StopSession()
	assert.False(t, l.Running())

	l.StartSession()
	assert.True(t, l.Running())
	assert.Equal(t, 0, elog.Len(), "new session starts with an empty log")

	// The validator anchor is fresh: a mid-cycle phase is allowed again, and
	// the immediately repeated raw line is not a cross-session duplicate.
	l.ingest([]byte("STARTUP|SOC:11"), base.Add(1100*time.Millisecond))
	assert.Equal(t, 1, elog.Len())
}

func TestOnSampleHook(t *testing.T) {
	t.Parallel()

	elog := eventlog.New(10, 2)
	var seen []wire.Sample
	l := New(Config{
		Address:  "127.0.0.1:0",
		Log:      elog,
		Logger:   log.New(io.Discard, "", 0),
		OnSample: func(s wire.Sample) { seen = append(seen, s) },
	})
	l.StartSession()

	l.ingest([]byte("IDLE|SOC:10"), time.Now())
	require.Len(t, seen, 1)
	assert.Equal(t, wire.PhaseIdle, seen[0].State)
	assert.Equal(t, uint64(1), seen[0].Seq, "hook sees the assigned sequence ID")
}
