package ctl

import (
	"fmt"
	"strings"
)

// Build-time variables set via -ldflags.
var (
	Version   = "dev"
	GoVersion = "unknown"
	BuiltAt   = "unknown"
)

// VersionInfo fetches daemon version via GET /api/version and displays it
// alongside the CLI's own build information.
func VersionInfo(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var daemon struct {
		Version   string `json:"version"`
		GoVersion string `json:"go_version"`
		BuiltAt   string `json:"built_at"`
	}
	daemonErr := getJSON(baseURL, "/api/version", &daemon)

	if jsonOutput {
		resp := map[string]any{
			"cli": map[string]any{
				"version":    Version,
				"go_version": GoVersion,
				"built_at":   BuiltAt,
			},
		}
		if daemonErr == nil {
			resp["daemon"] = daemon
		} else {
			resp["daemon_error"] = daemonErr.Error()
		}
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("  FUELTRACE VERSION"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 38)))
	fmt.Printf("  %s %s (%s, built %s)\n", colorize(dim, padRight("fuelctl", 12)), Version, GoVersion, BuiltAt)
	if daemonErr != nil {
		fmt.Printf("  %s %s\n", colorize(dim, padRight("fueltraced", 12)), colorize(red, "unreachable: "+daemonErr.Error()))
	} else {
		fmt.Printf("  %s %s (%s, built %s)\n", colorize(dim, padRight("fueltraced", 12)), daemon.Version, daemon.GoVersion, daemon.BuiltAt)
	}
	fmt.Println()

	return nil
}
