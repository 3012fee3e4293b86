// Package eventlog holds the bounded in-memory history of admitted telemetry
// samples. The log is append-only within a session, capacity limited, and
// safe for one writer plus any number of concurrent readers. Every entry gets
// a stable monotonic sequence ID at append time, so dashboard cursors survive
// eviction without silently pointing at the wrong element.
package eventlog

import (
	"sync"

	"github.com/xodbsdl/fueltrace/internal/wire"
)

const (
	// DefaultCapacity is one hour of samples at the 1 Hz send cadence.
	DefaultCapacity = 3600
	// DefaultTrim is how many of the oldest entries are dropped in a single
	// batch when the log is full: ten minutes' worth, so eviction runs once
	// per ten minutes instead of on every append.
	DefaultTrim = 600
)

// Log is the bounded sample history. The zero value is not usable; call New.
type Log struct {
	mu       sync.Mutex
	entries  []wire.Sample
	firstSeq uint64 // seq of entries[0]
	nextSeq  uint64
	capacity int
	trim     int

	evictions    uint64
	totalAppends uint64
}

// New creates an empty log. capacity <= 0 selects DefaultCapacity; trim <= 0
// or trim >= capacity selects DefaultTrim clamped to the capacity.
func New(capacity, trim int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if trim <= 0 || trim >= capacity {
		trim = DefaultTrim
		if trim >= capacity {
			trim = capacity / 2
		}
		if trim < 1 {
			trim = 1
		}
	}
	return &Log{
		entries:  make([]wire.Sample, 0, capacity),
		firstSeq: 1,
		nextSeq:  1,
		capacity: capacity,
		trim:     trim,
	}
}

// Append stores a sample and returns its stable sequence ID. When the log is
// at capacity, the oldest trim entries are evicted as one contiguous batch
// before the new entry is stored; len never exceeds the capacity.
func (l *Log) Append(s wire.Sample) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= l.capacity {
		drop := len(l.entries) - l.capacity + l.trim
		l.entries = append(l.entries[:0], l.entries[drop:]...)
		l.firstSeq += uint64(drop)
		l.evictions++
	}

	s.Seq = l.nextSeq
	l.nextSeq++
	l.totalAppends++
	l.entries = append(l.entries, s)
	return s.Seq
}

// Len returns the number of entries currently held.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// At returns the entry at the given logical index (0 = oldest retained).
// Logical indices renumber when a batch is evicted; hold a sequence ID from
// Append or Sample.Seq if the reference must survive eviction.
func (l *Log) At(i int) (wire.Sample, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.entries) {
		return wire.Sample{}, false
	}
	return l.entries[i], true
}

// BySeq returns the entry with the given stable sequence ID, if it is still
// retained.
func (l *Log) BySeq(seq uint64) (wire.Sample, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq < l.firstSeq || seq >= l.firstSeq+uint64(len(l.entries)) {
		return wire.Sample{}, false
	}
	return l.entries[seq-l.firstSeq], true
}

// Tail returns the most recent entry.
func (l *Log) Tail() (wire.Sample, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return wire.Sample{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// SnapshotTail copies the newest n entries, oldest first. n <= 0 or n larger
// than the log returns everything retained. The returned slice is owned by
// the caller.
func (l *Log) SnapshotTail(n int) []wire.Sample {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]wire.Sample, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// FirstSeq returns the sequence ID of the oldest retained entry.
func (l *Log) FirstSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.firstSeq
}

// Reset drops every entry and starts a new session generation. Sequence IDs
// keep counting upward so an ID can never be reused across sessions.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
	l.firstSeq = l.nextSeq
}

// Stats reports lifetime counters for observability.
type Stats struct {
	Len          int    `json:"len"`
	Capacity     int    `json:"capacity"`
	FirstSeq     uint64 `json:"first_seq"`
	NextSeq      uint64 `json:"next_seq"`
	Evictions    uint64 `json:"evictions"`
	TotalAppends uint64 `json:"total_appends"`
}

// Snapshot returns the current counters.
func (l *Log) Snapshot() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Len:          len(l.entries),
		Capacity:     l.capacity,
		FirstSeq:     l.firstSeq,
		NextSeq:      l.nextSeq,
		Evictions:    l.evictions,
		TotalAppends: l.totalAppends,
	}
}
