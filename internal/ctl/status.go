package ctl

import (
	"fmt"
	"strings"
	"time"
)

// StatusResponse mirrors the JSON returned by GET /api/status.
type StatusResponse struct {
	Name           string `json:"name"`
	State          string `json:"state"`
	Phase          string `json:"phase"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	DataListen     string `json:"data_listen"`
	ControlTarget  string `json:"control_target"`
	LogLen         int    `json:"log_len"`
	WSClients      int64  `json:"ws_clients"`
	LastSeq        uint64 `json:"last_seq"`
	LastReceivedAt string `json:"last_received_at"`
}

// Status fetches the daemon status and prints a formatted summary.
func Status(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var s StatusResponse
	if err := getJSON(baseURL, "/api/status", &s); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(s)
	}

	uptime := formatDuration(time.Duration(s.UptimeSeconds) * time.Second)
	stateStr := colorize(stateColor(s.State), s.State)

	fmt.Println()
	fmt.Println(header("  FUELTRACE STATUS"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 38)))
	fmt.Printf("  %-12s %s\n", colorize(dim, "Daemon:"), s.Name)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Session:"), stateStr)
	if s.Phase != "" {
		fmt.Printf("  %-12s %s\n", colorize(dim, "Phase:"), colorize(stateColor(s.Phase), s.Phase))
	}
	fmt.Printf("  %-12s %s\n", colorize(dim, "Uptime:"), uptime)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Data in:"), s.DataListen)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Control:"), s.ControlTarget)
	fmt.Printf("  %-12s %d entries\n", colorize(dim, "History:"), s.LogLen)
	if s.LastReceivedAt != "" {
		fmt.Printf("  %-12s seq %d at %s\n", colorize(dim, "Last:"), s.LastSeq, s.LastReceivedAt)
	}
	fmt.Printf("  %-12s %s\n", colorize(dim, "Host:"), baseURL)
	fmt.Println()

	return nil
}
