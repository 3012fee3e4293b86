package ingest

import (
	"testing"
	"time"
)

func TestDuplicateSuppressor(t *testing.T) {
	t.Parallel()

	base := time.Now()
	d := NewDuplicateSuppressor(200 * time.Millisecond)

	line := []byte("IDLE|SOC:10")
	if !d.Admit(line, base) {
		t.Fatal("first line must be admitted")
	}
	if d.Admit(line, base.Add(120*time.Millisecond)) {
		t.Error("identical line 120ms later must be suppressed")
	}
	if !d.Admit(line, base.Add(300*time.Millisecond)) {
		t.Error("identical line 300ms later must be admitted")
	}
	if !d.Admit([]byte("IDLE|SOC:11"), base.Add(310*time.Millisecond)) {
		t.Error("different line must always be admitted")
	}
}

func TestDuplicateSuppressorWindowIsFromAdmittedLine(t *testing.T) {
	t.Parallel()

	base := time.Now()
	d := NewDuplicateSuppressor(200 * time.Millisecond)
	line := []byte("STARTUP|SOC:20")

	d.Admit(line, base)
	// The suppressed arrival does not refresh the reference time, so a third
	// copy 250ms after the admitted one passes.
	d.Admit(line, base.Add(150*time.Millisecond))
	if !d.Admit(line, base.Add(250*time.Millisecond)) {
		t.Error("window must be measured from the admitted line, not the suppressed one")
	}
}

func TestDuplicateSuppressorReset(t *testing.T) {
	t.Parallel()

	base := time.Now()
	d := NewDuplicateSuppressor(0)
	line := []byte("IDLE|SOC:10")

	d.Admit(line, base)
	d.Reset()
	if !d.Admit(line, base.Add(time.Millisecond)) {
		t.Error("after Reset the first line must be admitted")
	}
}
