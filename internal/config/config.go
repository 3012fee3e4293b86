// Package config handles loading, defaulting, and validation of the
// fueltrace TOML configuration file. Every section maps to a typed struct so
// the rest of the codebase gets strong typing without manual key lookups.
// Both daemons read the same file: fueltraced uses [monitor] and [history],
// fuelsimd uses [dispenser] and [scheduler].
package config

import (
	"errors"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration, mirroring the TOML sections.
type Config struct {
	Logging   LoggingConfig   `toml:"logging"   json:"logging"`
	Monitor   MonitorConfig   `toml:"monitor"   json:"monitor"`
	History   HistoryConfig   `toml:"history"   json:"history"`
	Dispenser DispenserConfig `toml:"dispenser" json:"dispenser"`
	Scheduler SchedulerConfig `toml:"scheduler" json:"scheduler"`
}

type LoggingConfig struct {
	Level string `toml:"level" json:"level"`
}

// MonitorConfig covers the receive-side daemon: where it serves the
// dashboard API, where it listens for telemetry, and where it sends ON/OFF.
type MonitorConfig struct {
	Bind                 string `toml:"bind"                   json:"bind"`
	DataListen           string `toml:"data_listen"            json:"data_listen"`
	ControlTarget        string `toml:"control_target"         json:"control_target"`
	RcvBufBytes          int    `toml:"rcv_buf_bytes"          json:"rcv_buf_bytes"`
	StatsIntervalSeconds int    `toml:"stats_interval_seconds" json:"stats_interval_seconds"`
	DuplicateWindowMS    int    `toml:"duplicate_window_ms"    json:"duplicate_window_ms"`
	LongGapMS            int    `toml:"long_gap_ms"            json:"long_gap_ms"`
}

// HistoryConfig bounds the in-memory sample log.
type HistoryConfig struct {
	Capacity  int `toml:"capacity"   json:"capacity"`
	TrimBatch int `toml:"trim_batch" json:"trim_batch"`
}

// DispenserConfig covers the send-side daemon.
type DispenserConfig struct {
	DataTarget    string `toml:"data_target"    json:"data_target"`
	ControlListen string `toml:"control_listen" json:"control_listen"`
	SndBufBytes   int    `toml:"snd_buf_bytes"  json:"snd_buf_bytes"`
}

// SchedulerConfig tunes the precision send loop.
type SchedulerConfig struct {
	IntervalMS           int `toml:"interval_ms"            json:"interval_ms"`
	IdleSeconds          int `toml:"idle_seconds"           json:"idle_seconds"`
	StartupSeconds       int `toml:"startup_seconds"        json:"startup_seconds"`
	MainFuelingSeconds   int `toml:"main_fueling_seconds"   json:"main_fueling_seconds"`
	ShutdownSeconds      int `toml:"shutdown_seconds"       json:"shutdown_seconds"`
	ErrorThreshold       int `toml:"error_threshold"        json:"error_threshold"`
	StatsIntervalSeconds int `toml:"stats_interval_seconds" json:"stats_interval_seconds"`
}

// PhaseDurations returns the configured per-phase durations in cycle order.
func (s SchedulerConfig) PhaseDurations() [4]time.Duration {
	return [4]time.Duration{
		time.Duration(s.IdleSeconds) * time.Second,
		time.Duration(s.StartupSeconds) * time.Second,
		time.Duration(s.MainFuelingSeconds) * time.Second,
		time.Duration(s.ShutdownSeconds) * time.Second,
	}
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the TOML file omits a field.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Monitor: MonitorConfig{
			Bind:                 "0.0.0.0:8080",
			DataListen:           "0.0.0.0:12345",
			ControlTarget:        "192.168.0.11:50001",
			RcvBufBytes:          64 * 1024,
			StatsIntervalSeconds: 10,
			DuplicateWindowMS:    200,
			LongGapMS:            1500,
		},
		History: HistoryConfig{
			Capacity:  3600,
			TrimBatch: 600,
		},
		Dispenser: DispenserConfig{
			DataTarget:    "192.168.0.12:12345",
			ControlListen: "0.0.0.0:50001",
			SndBufBytes:   64 * 1024,
		},
		Scheduler: SchedulerConfig{
			IntervalMS:           1000,
			IdleSeconds:          10,
			StartupSeconds:       10,
			MainFuelingSeconds:   10,
			ShutdownSeconds:      10,
			ErrorThreshold:       10,
			StatsIntervalSeconds: 5,
		},
	}
}

// Load reads the TOML file at path, layers it on top of the defaults, and
// validates the result. An error is returned if the file can't be read,
// parsed, or if any constraint is violated.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Monitor.DataListen == "" {
		return errors.New("monitor.data_listen must not be empty")
	}
	if cfg.Monitor.ControlTarget == "" {
		return errors.New("monitor.control_target must not be empty")
	}
	if cfg.History.Capacity <= 0 {
		return errors.New("history.capacity must be > 0")
	}
	if cfg.History.TrimBatch <= 0 || cfg.History.TrimBatch >= cfg.History.Capacity {
		return errors.New("history.trim_batch must be between 1 and history.capacity-1")
	}
	if cfg.Dispenser.DataTarget == "" {
		return errors.New("dispenser.data_target must not be empty")
	}
	if cfg.Dispenser.ControlListen == "" {
		return errors.New("dispenser.control_listen must not be empty")
	}
	if cfg.Scheduler.IntervalMS <= 0 {
		return errors.New("scheduler.interval_ms must be > 0")
	}
	for _, sec := range []int{
		cfg.Scheduler.IdleSeconds,
		cfg.Scheduler.StartupSeconds,
		cfg.Scheduler.MainFuelingSeconds,
		cfg.Scheduler.ShutdownSeconds,
	} {
		if sec <= 0 {
			return errors.New("scheduler phase durations must be > 0 seconds")
		}
	}
	if cfg.Scheduler.ErrorThreshold <= 0 {
		return errors.New("scheduler.error_threshold must be > 0")
	}
	return nil
}
