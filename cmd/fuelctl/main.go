// Fuelctl is the command-line client for monitoring and controlling a running
// fueltraced instance. It connects over HTTP and WebSocket to query status,
// inspect the sample history, and drive fueling sessions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/xodbsdl/fueltrace/internal/ctl"
)

func main() {
	var (
		host    = pflag.StringP("host", "H", "http://127.0.0.1:8080", "Fueltrace daemon URL (e.g. http://192.168.0.10:8080)")
		jsonOut = pflag.Bool("json", false, "Output raw JSON instead of formatted text")
		filter  = pflag.StringSlice("filter", nil, "Event types to show in watch (e.g. --filter state,sample)")
	)

	// Stop parsing global flags at the first non-flag argument (the command
	// name), so subcommand-specific flags like --index are not rejected.
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if pflag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd := pflag.Arg(0)
	subArgs := pflag.Args()[1:]

	var err error
	switch cmd {
	// ── Query commands ────────────────────────────────────────────
	case "status":
		err = ctl.Status(*host, *jsonOut)

	case "health":
		err = ctl.Health(*host, *jsonOut)

	case "version":
		err = ctl.VersionInfo(*host, *jsonOut)

	case "config":
		err = ctl.Config(*host, *jsonOut)

	case "stats":
		err = ctl.Stats(*host, *jsonOut)

	case "tail":
		n := 10
		tailFlags := pflag.NewFlagSet("tail", pflag.ContinueOnError)
		tailFlags.IntVarP(&n, "count", "n", 10, "Number of newest samples to show")
		_ = tailFlags.Parse(subArgs)
		err = ctl.Tail(*host, n, *jsonOut)

	case "at":
		var index, id int64
		atFlags := pflag.NewFlagSet("at", pflag.ContinueOnError)
		atFlags.Int64Var(&index, "index", -1, "Logical index into the history (0 = oldest retained)")
		atFlags.Int64Var(&id, "id", -1, "Stable sequence ID of the entry")
		_ = atFlags.Parse(subArgs)
		err = ctl.At(*host, index, id, *jsonOut)

	// ── Control commands ──────────────────────────────────────────
	case "start":
		err = ctl.Start(*host, *jsonOut)

	case "stop":
		err = ctl.Stop(*host, *jsonOut)

	case "set-target":
		if len(subArgs) < 1 {
			err = fmt.Errorf("set-target requires a host:port argument")
			break
		}
		err = ctl.SetTarget(*host, subArgs[0], *jsonOut)

	// ── Live streaming ────────────────────────────────────────────
	case "watch":
		err = ctl.Watch(*host, ctl.WatchOptions{
			Filter: *filter,
			JSON:   *jsonOut,
		})

	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Print(`
  fuelctl — fueltrace control CLI

  USAGE
    fuelctl [flags] <command> [command-flags]

  COMMANDS (query)
    status          Show session state, current phase, and history size
    health          Check daemon liveness
    version         Show CLI and daemon version information
    config          Show the daemon's running configuration
    stats           Show ingestion counters and history occupancy
    tail            Show the newest samples in the history
    at              Show one history entry by index or sequence ID

  COMMANDS (control)
    start           Start a fueling session (resets history, sends ON)
    stop            Stop the session (sends OFF, keeps history)
    set-target      Repoint the dispenser control channel

  COMMANDS (live)
    watch           Stream live events from the daemon (Ctrl-C to stop)

  GLOBAL FLAGS
    -H, --host URL      Daemon base URL (default: http://127.0.0.1:8080)
        --json          Output raw JSON instead of formatted text
        --filter TYPE   Event types to show in watch (comma-separated)

  COMMAND FLAGS
    tail:
        -n, --count N   Number of newest samples to show (default: 10)

    at:
        --index N       Logical index (0 = oldest retained; renumbers on eviction)
        --id N          Stable sequence ID (survives eviction)

  EXAMPLES
    fuelctl status
    fuelctl --json status
    fuelctl --host http://192.168.0.10:8080 watch
    fuelctl tail -n 20
    fuelctl at --id 1042
    fuelctl start
    fuelctl stop
    fuelctl set-target 192.168.0.11:50001
    fuelctl watch --filter state,sample

`)
}
