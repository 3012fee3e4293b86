package ingest

import (
	"testing"

	"github.com/xodbsdl/fueltrace/internal/wire"
)

func TestValidatorStrictOrder(t *testing.T) {
	t.Parallel()

	v := NewPhaseSequenceValidator()

	steps := []struct {
		phase wire.Phase
		want  bool
	}{
		{wire.PhaseIdle, true},         // first sample
		{wire.PhaseIdle, true},         // repeat of current
		{wire.PhaseStartup, true},      // next in order
		{wire.PhaseShutdown, false},    // skipping MAIN_FUELING
		{wire.PhaseStartup, true},      // repeat
		{wire.PhaseMainFueling, true},  // next
		{wire.PhaseIdle, true},         // IDLE always resets
		{wire.PhaseMainFueling, false}, // after reset only STARTUP may follow
		{wire.PhaseStartup, true},
	}
	for i, step := range steps {
		if got := v.Admit(step.phase); got != step.want {
			t.Errorf("step %d: Admit(%s) = %v, want %v", i, step.phase, got, step.want)
		}
	}
}

func TestValidatorFirstSampleAnchors(t *testing.T) {
	t.Parallel()

	// A known mid-cycle phase anchors the expected index there.
	v := NewPhaseSequenceValidator()
	if !v.Admit(wire.PhaseMainFueling) {
		t.Fatal("first sample must be admitted unconditionally")
	}
	if got := v.Expected(); got != 2 {
		t.Fatalf("Expected() = %d, want 2", got)
	}
	if !v.Admit(wire.PhaseShutdown) {
		t.Error("SHUTDOWN after MAIN_FUELING anchor must pass")
	}

	// An unknown token is admitted once without moving the index.
	v = NewPhaseSequenceValidator()
	if !v.Admit(wire.Phase("BOOT")) {
		t.Fatal("unknown first token must be admitted as anchor")
	}
	if got := v.Expected(); got != 0 {
		t.Fatalf("Expected() = %d after unknown anchor, want 0", got)
	}
	if v.Admit(wire.Phase("BOOT")) {
		t.Error("unknown token must not be admitted twice")
	}
	if !v.Admit(wire.PhaseIdle) {
		t.Error("IDLE after unknown anchor must pass")
	}
}

func TestValidatorMonotonicity(t *testing.T) {
	t.Parallel()

	// Property: the admitted phase index sequence never decreases except
	// directly at an IDLE, which resets to 0.
	input := []wire.Phase{
		"IDLE", "STARTUP", "IDLE", "SHUTDOWN", "STARTUP", "STARTUP",
		"MAIN_FUELING", "SHUTDOWN", "MAIN_FUELING", "IDLE", "STARTUP",
	}
	v := NewPhaseSequenceValidator()
	var admitted []wire.Phase
	for _, p := range input {
		if v.Admit(p) {
			admitted = append(admitted, p)
		}
	}

	prev := -1
	for i, p := range admitted {
		idx, ok := p.Index()
		if !ok {
			t.Fatalf("admitted unknown phase %q", p)
		}
		if p == wire.PhaseIdle {
			prev = 0
			continue
		}
		if idx < prev {
			t.Errorf("admitted sequence regressed at %d: %v", i, admitted)
		}
		prev = idx
	}
}
