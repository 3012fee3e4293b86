package ctl

import (
	"fmt"
	"strings"
	"time"
)

// Stats shows the ingestion pipeline counters and history occupancy.
func Stats(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var resp struct {
		Ingest struct {
			Packets    uint64 `json:"packets"`
			Bytes      uint64 `json:"bytes"`
			Accepted   uint64 `json:"accepted"`
			Duplicates uint64 `json:"duplicates"`
			OutOfOrder uint64 `json:"out_of_order"`
			DecodeErrs uint64 `json:"decode_errors"`
			ReadErrs   uint64 `json:"read_errors"`
			LongGaps   uint64 `json:"long_gaps"`
		} `json:"ingest"`
		History struct {
			Len          int    `json:"len"`
			Capacity     int    `json:"capacity"`
			FirstSeq     uint64 `json:"first_seq"`
			NextSeq      uint64 `json:"next_seq"`
			Evictions    uint64 `json:"evictions"`
			TotalAppends uint64 `json:"total_appends"`
		} `json:"history"`
		UptimeSeconds int64 `json:"uptime_seconds"`
	}
	if err := getJSON(baseURL, "/api/stats", &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("  INGEST STATISTICS"))
	fmt.Println("  " + strings.Repeat("─", 42))
	fmt.Printf("  Uptime:          %s\n", formatDuration(time.Duration(resp.UptimeSeconds)*time.Second))
	fmt.Printf("  Packets:         %d (%s)\n", resp.Ingest.Packets, formatBytes(int64(resp.Ingest.Bytes)))
	fmt.Printf("  Accepted:        %d\n", resp.Ingest.Accepted)
	fmt.Printf("  Duplicates:      %d\n", resp.Ingest.Duplicates)
	fmt.Printf("  Out of order:    %d\n", resp.Ingest.OutOfOrder)
	fmt.Printf("  Decode errors:   %d\n", resp.Ingest.DecodeErrs)
	fmt.Printf("  Read errors:     %d\n", resp.Ingest.ReadErrs)
	fmt.Printf("  Long gaps:       %d\n", resp.Ingest.LongGaps)

	fmt.Println()
	fmt.Println(header("  HISTORY"))
	t := newTable("  ", "Entries", "Capacity", "First seq", "Next seq", "Evictions", "Appends")
	for col := 0; col < 6; col++ {
		t.alignRight(col)
	}
	t.row(
		fmt.Sprintf("%d", resp.History.Len),
		fmt.Sprintf("%d", resp.History.Capacity),
		fmt.Sprintf("%d", resp.History.FirstSeq),
		fmt.Sprintf("%d", resp.History.NextSeq),
		fmt.Sprintf("%d", resp.History.Evictions),
		fmt.Sprintf("%d", resp.History.TotalAppends),
	)
	t.flush()

	fmt.Println()
	return nil
}
