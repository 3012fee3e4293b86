package ingest

import "github.com/xodbsdl/fueltrace/internal/wire"

// PhaseSequenceValidator gates samples on the expected phase order. The
// four-phase cycle is strictly ordered with no skipping: a sample is admitted
// when it is the first one seen, an IDLE (which always resets the cycle), the
// next phase in order, or a repeat of the current phase. Anything else is an
// out-of-order arrival and is rejected.
type PhaseSequenceValidator struct {
	expected int // index of the phase currently in progress
	seenAny  bool
}

// NewPhaseSequenceValidator starts with nothing seen and IDLE expected.
func NewPhaseSequenceValidator() *PhaseSequenceValidator {
	return &PhaseSequenceValidator{}
}

// Admit applies the transition rules in priority order and reports whether
// the candidate phase may pass.
func (v *PhaseSequenceValidator) Admit(candidate wire.Phase) bool {
	idx, known := candidate.Index()

	// First sample ever anchors the sequence. A known phase sets the
	// expected index; an unknown token is admitted once without moving it.
	if !v.seenAny {
		v.seenAny = true
		if known {
			v.expected = idx
		}
		return true
	}

	if candidate == wire.PhaseIdle {
		v.expected = 0
		return true
	}

	if !known {
		return false
	}

	switch idx {
	case v.expected + 1:
		v.expected = idx
		return true
	case v.expected:
		return true
	default:
		return false
	}
}

// Expected returns the phase index the validator currently considers active.
func (v *PhaseSequenceValidator) Expected() int {
	return v.expected
}

// Reset returns to the unseen initial state, expecting IDLE.
func (v *PhaseSequenceValidator) Reset() {
	v.expected = 0
	v.seenAny = false
}
