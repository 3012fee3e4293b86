package wire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	in := Sample{
		State: PhaseStartup,
		Fields: []Field{
			{Name: "comm_mode", Value: "AUTO"},
			{Name: "initial_pressure", Value: "5.2"},
			{Name: "APRR", Value: "2.1"},
			{Name: "SOC", Value: "76"},
		},
	}

	line, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got, want := string(line), "STARTUP|comm_mode:AUTO,initial_pressure:5.2,APRR:2.1,SOC:76"; got != want {
		t.Fatalf("Encode = %q, want %q", got, want)
	}

	out, err := Decode(line)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeRejectsSeparators(t *testing.T) {
	t.Parallel()

	cases := []Sample{
		{State: "IDLE|X"},
		{State: PhaseIdle, Fields: []Field{{Name: "a,b", Value: "1"}}},
		{State: PhaseIdle, Fields: []Field{{Name: "a", Value: "1:2"}}},
	}
	for _, s := range cases {
		if _, err := Encode(s); err == nil {
			t.Errorf("Encode(%+v) succeeded, want separator error", s)
		}
	}
}

func TestDecodeLegacyFallback(t *testing.T) {
	t.Parallel()

	s, err := Decode([]byte("SHUTDOWN"))
	if err != nil {
		t.Fatalf("Decode bare token: %v", err)
	}
	if s.State != PhaseShutdown || len(s.Fields) != 0 {
		t.Errorf("got %+v, want bare SHUTDOWN sample", s)
	}

	// Old comma format: state in the first cell, rest discarded.
	s, err = Decode([]byte("IDLE,20,45.2"))
	if err != nil {
		t.Fatalf("Decode legacy comma line: %v", err)
	}
	if s.State != PhaseIdle || len(s.Fields) != 0 {
		t.Errorf("got %+v, want bare IDLE sample", s)
	}
}

func TestDecodeTolerance(t *testing.T) {
	t.Parallel()

	// Invalid UTF-8 is replaced, never fatal.
	s, err := Decode([]byte("IDLE|SOC:10,bad\xff\xfe:x"))
	if err != nil {
		t.Fatalf("Decode with invalid UTF-8: %v", err)
	}
	if v, ok := s.Get("SOC"); !ok || v != "10" {
		t.Errorf("SOC = %q, %v; want 10, true", v, ok)
	}

	// Pairs without a colon are skipped.
	s, err = Decode([]byte("MAIN_FUELING|SOC:12,garbage,flow:45.2"))
	if err != nil {
		t.Fatalf("Decode with stray pair: %v", err)
	}
	if len(s.Fields) != 2 {
		t.Errorf("len(Fields) = %d, want 2", len(s.Fields))
	}

	if _, err := Decode([]byte("   ")); err == nil {
		t.Error("Decode of blank line succeeded, want error")
	}
}

func TestPhaseIndex(t *testing.T) {
	t.Parallel()

	for i, p := range Phases {
		idx, ok := p.Index()
		if !ok || idx != i {
			t.Errorf("%s.Index() = %d, %v; want %d, true", p, idx, ok, i)
		}
	}
	if _, ok := Phase("WARMUP").Index(); ok {
		t.Error("unknown phase reported a cycle index")
	}
}
