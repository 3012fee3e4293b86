package ctl

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// healthResponse is the JSON detail form of GET /healthz.
type healthResponse struct {
	Healthy   bool `json:"healthy"`
	Running   bool `json:"running"`
	WSClients int  `json:"ws_clients"`
}

// Health checks daemon liveness via GET /healthz. It asks for the JSON detail
// form so the report can show session and client state, not just reachability.
func Health(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	req, err := http.NewRequest(http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		if jsonOutput {
			return printJSON(map[string]any{"healthy": false, "url": baseURL, "error": err.Error()})
		}
		return err
	}
	defer resp.Body.Close()

	var h healthResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
			return fmt.Errorf("decoding /healthz response: %w", err)
		}
	}

	if jsonOutput {
		return printJSON(map[string]any{
			"healthy":    h.Healthy,
			"running":    h.Running,
			"ws_clients": h.WSClients,
			"url":        baseURL,
		})
	}

	fmt.Println()
	if h.Healthy {
		session := colorize(dim, "no active session")
		if h.Running {
			session = colorize(green, "session running")
		}
		fmt.Printf("  %s  fueltraced at %s\n", colorize(green, "HEALTHY"), colorize(dim, baseURL))
		fmt.Printf("           %s, %d websocket client(s)\n", session, h.WSClients)
	} else {
		fmt.Printf("  %s  fueltraced returned HTTP %d at %s\n",
			colorize(red, "UNHEALTHY"), resp.StatusCode, colorize(dim, baseURL))
	}
	fmt.Println()

	return nil
}
