// Package wire defines the telemetry sample model and the line codec used on
// the UDP data channel. The format is a single UTF-8 line with no trailing
// delimiter: `STATE|name1:value1,name2:value2,...`. The STATE token never
// appears in the field list body.
package wire

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Phase is one of the four ordered stages of the refueling cycle. It is a
// string type rather than an int enum so that unknown tokens coming off the
// wire stay representable; the sequence validator decides what to do with
// them.
type Phase string

const (
	PhaseIdle        Phase = "IDLE"
	PhaseStartup     Phase = "STARTUP"
	PhaseMainFueling Phase = "MAIN_FUELING"
	PhaseShutdown    Phase = "SHUTDOWN"
)

// Phases lists the known phases in cycle order. Index in this slice is the
// phase index used by the sequence validator.
var Phases = []Phase{PhaseIdle, PhaseStartup, PhaseMainFueling, PhaseShutdown}

// Index returns the position of p in the phase cycle and whether p is a
// known phase at all.
func (p Phase) Index() (int, bool) {
	for i, known := range Phases {
		if p == known {
			return i, true
		}
	}
	return -1, false
}

// Known reports whether p is one of the four cycle phases.
func (p Phase) Known() bool {
	_, ok := p.Index()
	return ok
}

// Field is a single named telemetry value. Values travel as strings on the
// wire; numeric interpretation is up to the consumer.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Sample is one telemetry observation. Fields preserve insertion order and
// have unique names within a sample, which keeps serialization and display
// deterministic. ReceivedAt is stamped by the ingestion path; Go time.Time
// carries both the monotonic reading (for interval math) and the wall clock
// (for display).
type Sample struct {
	State      Phase     `json:"state"`
	Fields     []Field   `json:"fields"`
	Seq        uint64    `json:"seq"`
	ReceivedAt time.Time `json:"received_at"`
}

// Get returns the value of the named field and whether it is present.
func (s Sample) Get(name string) (string, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

const (
	stateSep = "|"
	fieldSep = ","
	kvSep    = ":"
)

// ErrMalformed is returned by Decode when a line cannot be interpreted even
// under the legacy fallback.
var ErrMalformed = errors.New("wire: malformed line")

// Encode serializes a sample to its wire line. It fails only when a field
// name or value contains a reserved separator character, which is a
// construction error in the caller rather than a runtime condition.
func Encode(s Sample) ([]byte, error) {
	var b strings.Builder
	if strings.ContainsAny(string(s.State), stateSep+fieldSep+kvSep) {
		return nil, fmt.Errorf("wire: state %q contains separator", s.State)
	}
	b.WriteString(string(s.State))
	b.WriteString(stateSep)
	for i, f := range s.Fields {
		if strings.ContainsAny(f.Name, stateSep+fieldSep+kvSep) {
			return nil, fmt.Errorf("wire: field name %q contains separator", f.Name)
		}
		if strings.ContainsAny(f.Value, stateSep+fieldSep+kvSep) {
			return nil, fmt.Errorf("wire: field %s value %q contains separator", f.Name, f.Value)
		}
		if i > 0 {
			b.WriteString(fieldSep)
		}
		b.WriteString(f.Name)
		b.WriteString(kvSep)
		b.WriteString(f.Value)
	}
	return []byte(b.String()), nil
}

// Decode parses a wire line into a sample. Invalid UTF-8 byte sequences are
// replaced rather than rejected. A line without a `|` falls back to the
// legacy format: the whole line is treated as a bare state token with an
// empty field set. Field pairs missing a `:` are skipped, matching the
// tolerant parsing of the original monitor.
func Decode(line []byte) (Sample, error) {
	text := strings.TrimSpace(strings.ToValidUTF8(string(line), "�"))
	if text == "" {
		return Sample{}, ErrMalformed
	}

	state, body, found := strings.Cut(text, stateSep)
	if !found {
		// Legacy compatibility: comma-separated lines carried the state in
		// the first cell; a plain token is just a state on its own.
		token, _, _ := strings.Cut(text, fieldSep)
		if token == "" {
			return Sample{}, ErrMalformed
		}
		return Sample{State: Phase(token)}, nil
	}
	if state == "" {
		return Sample{}, ErrMalformed
	}

	s := Sample{State: Phase(state)}
	if body == "" {
		return s, nil
	}
	for _, pair := range strings.Split(body, fieldSep) {
		name, value, ok := strings.Cut(pair, kvSep)
		if !ok {
			continue
		}
		s.Fields = append(s.Fields, Field{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}
	return s, nil
}
