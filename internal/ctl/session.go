package ctl

import (
	"fmt"
	"strings"
)

// commandResponse is the shape returned by the session control endpoints.
type commandResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Start begins a new fueling session: the daemon resets its history and
// commands the dispenser ON.
func Start(baseURL string, jsonOutput bool) error {
	return postSimple(baseURL, "/api/session/start", jsonOutput)
}

// Stop commands the dispenser OFF and closes the ingestion gate.
func Stop(baseURL string, jsonOutput bool) error {
	return postSimple(baseURL, "/api/session/stop", jsonOutput)
}

func postSimple(baseURL, path string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var resp commandResponse
	if err := postJSON(baseURL, path, nil, &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	if resp.OK {
		fmt.Printf("  %s  %s\n", colorize(green, "OK"), resp.Message)
	} else {
		fmt.Printf("  %s  %s\n", colorize(red, "FAILED"), resp.Error)
	}
	fmt.Println()

	return nil
}

// SetTarget repoints the daemon's dispenser control channel at a new
// host:port.
func SetTarget(baseURL, target string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var resp struct {
		OK     bool   `json:"ok"`
		Target string `json:"target"`
		Error  string `json:"error"`
	}
	if err := postJSON(baseURL, "/api/target", map[string]string{"target": target}, &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	if resp.OK {
		fmt.Printf("  %s  control target is now %s\n", colorize(green, "OK"), colorize(bold, resp.Target))
	} else {
		fmt.Printf("  %s  %s\n", colorize(red, "FAILED"), resp.Error)
	}
	fmt.Println()

	return nil
}
