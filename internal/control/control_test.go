package control

import (
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want Command
		ok   bool
	}{
		{"ON", CmdOn, true},
		{"off", CmdOff, true},
		{"  On \n", CmdOn, true},
		{"START", "", false},
		{"", "", false},
		{"ONN", "", false},
	}
	for _, c := range cases {
		got, ok := Parse([]byte(c.raw))
		if got != c.want || ok != c.ok {
			t.Errorf("Parse(%q) = %q, %v; want %q, %v", c.raw, got, ok, c.want, c.ok)
		}
	}
}

func TestSenderRetarget(t *testing.T) {
	t.Parallel()

	s := NewSender("127.0.0.1:50001")
	if got := s.Target(); got != "127.0.0.1:50001" {
		t.Fatalf("Target() = %q", got)
	}
	s.Retarget("192.168.0.12:50001")
	if got := s.Target(); got != "192.168.0.12:50001" {
		t.Fatalf("Target() after Retarget = %q", got)
	}
}
