// Fuelsimd is the dispenser simulator of the fueltrace telemetry system.
//
// It binds the UDP control socket and waits for ON/OFF commands from the
// monitor. ON starts the precision send loop, which walks the four-phase
// refueling cycle and fires one telemetry sample per interval at the
// monitor's data port; OFF stops it. Shutdown is handled gracefully on
// SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/xodbsdl/fueltrace/internal/config"
	"github.com/xodbsdl/fueltrace/internal/control"
	"github.com/xodbsdl/fueltrace/internal/sched"
	"github.com/xodbsdl/fueltrace/internal/simdata"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "/etc/fueltrace/fueltrace.toml", "Path to config TOML")
		target     = pflag.String("target", "", "Monitor data address (overrides config)")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *target != "" {
		cfg.Dispenser.DataTarget = *target
	}

	logger := log.New(os.Stdout, "fuelsimd ", log.LstdFlags|log.Lmicroseconds)

	transport, err := sched.DialUDP(cfg.Dispenser.DataTarget, cfg.Dispenser.SndBufBytes)
	if err != nil {
		logger.Fatalf("dial data target: %v", err)
	}
	defer transport.Close()

	gen := simdata.New()
	runner := sched.New(sched.Config{
		Interval:       time.Duration(cfg.Scheduler.IntervalMS) * time.Millisecond,
		PhaseDurations: cfg.Scheduler.PhaseDurations(),
		ErrorThreshold: cfg.Scheduler.ErrorThreshold,
		StatsInterval:  time.Duration(cfg.Scheduler.StatsIntervalSeconds) * time.Second,
	}, transport, gen.Sample, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener := control.NewListener(cfg.Dispenser.ControlListen, logger, func(cmd control.Command) {
		switch cmd {
		case control.CmdOn:
			if runner.Start() {
				go runner.Run(ctx)
			} else {
				logger.Print("control: already running, ON ignored")
			}
		case control.CmdOff:
			runner.Stop()
		}
	})

	logger.Printf("sending telemetry to %s", cfg.Dispenser.DataTarget)
	if err := listener.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("fuelsimd failed: %v", err)
	}

	runner.Stop()
	// Brief pause so in-flight log writes can flush before exit.
	time.Sleep(50 * time.Millisecond)
}
