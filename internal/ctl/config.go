package ctl

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Config fetches and displays the daemon's running configuration.
func Config(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	// Decode into a generic map to preserve all fields for both display modes.
	var raw json.RawMessage
	if err := getJSON(baseURL, "/api/config", &raw); err != nil {
		return err
	}

	if jsonOutput {
		var v any
		_ = json.Unmarshal(raw, &v)
		return printJSON(v)
	}

	// Decode into ordered sections for human-readable output.
	var cfg struct {
		Logging struct {
			Level string `json:"level"`
		} `json:"logging"`
		Monitor struct {
			Bind                 string `json:"bind"`
			DataListen           string `json:"data_listen"`
			ControlTarget        string `json:"control_target"`
			RcvBufBytes          int    `json:"rcv_buf_bytes"`
			StatsIntervalSeconds int    `json:"stats_interval_seconds"`
			DuplicateWindowMS    int    `json:"duplicate_window_ms"`
			LongGapMS            int    `json:"long_gap_ms"`
		} `json:"monitor"`
		History struct {
			Capacity  int `json:"capacity"`
			TrimBatch int `json:"trim_batch"`
		} `json:"history"`
		Dispenser struct {
			DataTarget    string `json:"data_target"`
			ControlListen string `json:"control_listen"`
			SndBufBytes   int    `json:"snd_buf_bytes"`
		} `json:"dispenser"`
		Scheduler struct {
			IntervalMS           int `json:"interval_ms"`
			IdleSeconds          int `json:"idle_seconds"`
			StartupSeconds       int `json:"startup_seconds"`
			MainFuelingSeconds   int `json:"main_fueling_seconds"`
			ShutdownSeconds      int `json:"shutdown_seconds"`
			ErrorThreshold       int `json:"error_threshold"`
			StatsIntervalSeconds int `json:"stats_interval_seconds"`
		} `json:"scheduler"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(header("  DAEMON CONFIGURATION"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 50)))

	section := func(name string) {
		fmt.Printf("\n  %s\n", colorize(bold, "["+name+"]"))
	}
	field := func(key string, val any) {
		fmt.Printf("    %-24s %v\n", colorize(dim, key+":"), val)
	}

	section("logging")
	field("level", cfg.Logging.Level)

	section("monitor")
	field("bind", cfg.Monitor.Bind)
	field("data_listen", cfg.Monitor.DataListen)
	field("control_target", cfg.Monitor.ControlTarget)
	field("rcv_buf_bytes", cfg.Monitor.RcvBufBytes)
	field("stats_interval_seconds", cfg.Monitor.StatsIntervalSeconds)
	field("duplicate_window_ms", cfg.Monitor.DuplicateWindowMS)
	field("long_gap_ms", cfg.Monitor.LongGapMS)

	section("history")
	field("capacity", cfg.History.Capacity)
	field("trim_batch", cfg.History.TrimBatch)

	section("dispenser")
	field("data_target", cfg.Dispenser.DataTarget)
	field("control_listen", cfg.Dispenser.ControlListen)
	field("snd_buf_bytes", cfg.Dispenser.SndBufBytes)

	section("scheduler")
	field("interval_ms", cfg.Scheduler.IntervalMS)
	field("idle_seconds", cfg.Scheduler.IdleSeconds)
	field("startup_seconds", cfg.Scheduler.StartupSeconds)
	field("main_fueling_seconds", cfg.Scheduler.MainFuelingSeconds)
	field("shutdown_seconds", cfg.Scheduler.ShutdownSeconds)
	field("error_threshold", cfg.Scheduler.ErrorThreshold)
	field("stats_interval_seconds", cfg.Scheduler.StatsIntervalSeconds)

	fmt.Println()

	return nil
}
