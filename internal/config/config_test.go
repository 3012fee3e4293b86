package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fueltrace.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[monitor]
data_listen = "0.0.0.0:23456"

[scheduler]
main_fueling_seconds = 120
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Monitor.DataListen != "0.0.0.0:23456" {
		t.Errorf("DataListen = %q", cfg.Monitor.DataListen)
	}
	// Untouched fields keep their defaults.
	if cfg.History.Capacity != 3600 || cfg.History.TrimBatch != 600 {
		t.Errorf("history defaults lost: %+v", cfg.History)
	}
	if cfg.Scheduler.IntervalMS != 1000 {
		t.Errorf("IntervalMS = %d, want default 1000", cfg.Scheduler.IntervalMS)
	}

	durations := cfg.Scheduler.PhaseDurations()
	if durations[2] != 120*time.Second {
		t.Errorf("MAIN_FUELING duration = %s, want 2m", durations[2])
	}
	if durations[0] != 10*time.Second {
		t.Errorf("IDLE duration = %s, want default 10s", durations[0])
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"zero capacity":    "[history]\ncapacity = 0\n",
		"trim >= capacity": "[history]\ncapacity = 100\ntrim_batch = 100\n",
		"zero interval":    "[scheduler]\ninterval_ms = 0\n",
		"zero phase":       "[scheduler]\nstartup_seconds = 0\n",
		"bad toml":         "monitor = [\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Errorf("%s: Load succeeded, want error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Load of missing file succeeded, want error")
	}
}

func TestDefaultValidates(t *testing.T) {
	t.Parallel()

	if err := validate(Default()); err != nil {
		t.Errorf("Default() does not validate: %v", err)
	}
}
