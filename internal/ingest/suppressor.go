// Package ingest implements the receive-side pipeline: UDP listen, wire
// decode, duplicate suppression, phase-sequence validation, and append into
// the bounded event log. Rejections are answers, not errors; everything the
// pipeline drops is counted and visible in the periodic stats summary.
package ingest

import (
	"bytes"
	"time"
)

// DefaultDuplicateWindow is how close together two byte-identical lines must
// arrive to be treated as a transport-level duplicate. Legitimate identical
// readings at the 1 Hz cadence are a full second apart and pass untouched.
const DefaultDuplicateWindow = 200 * time.Millisecond

// DuplicateSuppressor drops a datagram when it is byte-identical to the
// immediately preceding admitted one and arrived within the window.
type DuplicateSuppressor struct {
	window   time.Duration
	lastLine []byte
	lastAt   time.Time
}

// NewDuplicateSuppressor creates a suppressor; window <= 0 selects the
// default 200ms.
func NewDuplicateSuppressor(window time.Duration) *DuplicateSuppressor {
	if window <= 0 {
		window = DefaultDuplicateWindow
	}
	return &DuplicateSuppressor{window: window}
}

// Admit reports whether the raw line should continue down the pipeline, and
// remembers it as the new reference when admitted.
func (d *DuplicateSuppressor) Admit(raw []byte, arrival time.Time) bool {
	if d.lastLine != nil && bytes.Equal(raw, d.lastLine) && arrival.Sub(d.lastAt) < d.window {
		return false
	}
	d.lastLine = append(d.lastLine[:0], raw...)
	d.lastAt = arrival
	return true
}

// Reset forgets the remembered line, e.g. at the start of a new session.
func (d *DuplicateSuppressor) Reset() {
	d.lastLine = nil
	d.lastAt = time.Time{}
}
