package ctl

import (
	"fmt"
	"strings"
	"time"
)

// sampleJSON mirrors the wire.Sample JSON emitted by the daemon.
type sampleJSON struct {
	State  string `json:"state"`
	Fields []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"fields"`
	Seq        uint64    `json:"seq"`
	ReceivedAt time.Time `json:"received_at"`
}

// Tail fetches the newest n history entries and prints them oldest first.
func Tail(baseURL string, n int, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var resp struct {
		Samples  []sampleJSON `json:"samples"`
		FirstSeq uint64       `json:"first_seq"`
		LogLen   int          `json:"log_len"`
	}
	if err := getJSON(baseURL, fmt.Sprintf("/api/samples/tail?n=%d", n), &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header(fmt.Sprintf("  LAST %d OF %d SAMPLES", len(resp.Samples), resp.LogLen)))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 50)))
	if len(resp.Samples) == 0 {
		fmt.Println(colorize(dim, "  history is empty"))
		fmt.Println()
		return nil
	}
	for _, s := range resp.Samples {
		printSample(s)
	}
	fmt.Println()

	return nil
}

// At fetches a single history entry, by logical index or by stable sequence
// ID. Exactly one of index/id must be set; the other is passed as -1.
func At(baseURL string, index int64, id int64, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var path string
	switch {
	case index >= 0 && id >= 0:
		return fmt.Errorf("pass either --index or --id, not both")
	case index >= 0:
		path = fmt.Sprintf("/api/samples/at?index=%d", index)
	case id >= 0:
		path = fmt.Sprintf("/api/samples/at?id=%d", id)
	default:
		return fmt.Errorf("one of --index or --id is required")
	}

	var resp struct {
		Sample sampleJSON `json:"sample"`
	}
	if err := getJSON(baseURL, path, &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp.Sample)
	}

	fmt.Println()
	printSample(resp.Sample)
	fmt.Println()

	return nil
}

// printSample renders one sample as a timestamped line plus its fields.
func printSample(s sampleJSON) {
	ts := s.ReceivedAt.Local().Format("15:04:05.000")
	fmt.Printf("  %s  %s %s\n",
		colorize(dim, ts),
		colorize(dim, fmt.Sprintf("#%d", s.Seq)),
		colorize(stateColor(s.State), padRight(s.State, 12)),
	)
	if len(s.Fields) == 0 {
		return
	}
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = f.Name + "=" + f.Value
	}
	fmt.Printf("    %s\n", colorize(dim, strings.Join(parts, " ")))
}
