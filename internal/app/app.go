// Package app wires together the HTTP server, WebSocket hub, ingestion
// pipeline, and the control channel to the dispenser. It owns the monitor
// daemon's lifecycle and is the single place session state is mutated.
package app

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/xodbsdl/fueltrace/internal/config"
	"github.com/xodbsdl/fueltrace/internal/control"
	"github.com/xodbsdl/fueltrace/internal/eventlog"
	"github.com/xodbsdl/fueltrace/internal/ingest"
	"github.com/xodbsdl/fueltrace/internal/telemetry"
	"github.com/xodbsdl/fueltrace/internal/wire"
	"github.com/xodbsdl/fueltrace/internal/ws"
)

// Options holds everything the App needs from the caller.
type Options struct {
	Logger     *log.Logger
	Cfg        config.Config
	Bind       string
	ConfigPath string
}

// App is the monitor daemon. It manages the HTTP server, the WebSocket
// event hub, the bounded sample history, the ingestion listener, and the
// UDP control channel to the dispenser.
type App struct {
	log        *log.Logger
	cfg        config.Config
	bind       string
	configPath string
	server     *http.Server

	startedAt time.Time

	history  *eventlog.Log
	listener *ingest.Listener
	ctrl     *control.Sender
	wsHub    *ws.Hub

	// sessionMu serializes start/stop/set-target against each other; the
	// data path itself is guarded inside the listener and the log.
	sessionMu sync.Mutex

	// lastPhase tracks the most recent admitted phase for transition events.
	phaseMu   sync.Mutex
	lastPhase wire.Phase
}

// New creates an App with a stopped session. Call Run to start serving.
func New(opts Options) *App {
	a := &App{
		log:        opts.Logger,
		cfg:        opts.Cfg,
		bind:       opts.Bind,
		configPath: opts.ConfigPath,
		startedAt:  time.Now(),
		wsHub:      ws.NewHub(),
		ctrl:       control.NewSender(opts.Cfg.Monitor.ControlTarget),
	}
	a.history = eventlog.New(opts.Cfg.History.Capacity, opts.Cfg.History.TrimBatch)
	a.listener = ingest.New(ingest.Config{
		Address:         opts.Cfg.Monitor.DataListen,
		RcvBuf:          opts.Cfg.Monitor.RcvBufBytes,
		DuplicateWindow: time.Duration(opts.Cfg.Monitor.DuplicateWindowMS) * time.Millisecond,
		StatsInterval:   time.Duration(opts.Cfg.Monitor.StatsIntervalSeconds) * time.Second,
		LongGap:         time.Duration(opts.Cfg.Monitor.LongGapMS) * time.Millisecond,
		Log:             a.history,
		Logger:          opts.Logger,
		OnSample:        a.onSample,
	})
	return a
}

// Run starts the HTTP server, WebSocket hub, heartbeat ticker, and the
// ingestion listener. It blocks until the context is cancelled or a fatal
// startup error occurs. A data-socket bind failure is fatal and returned
// immediately; everything after startup is absorbed inside the loops.
func (a *App) Run(ctx context.Context) error {
	bind := a.bind
	if bind == "" && a.cfg.Monitor.Bind != "" {
		bind = a.cfg.Monitor.Bind
	}
	if bind == "" {
		bind = "0.0.0.0:8080"
	}

	mux := http.NewServeMux()
	a.routes(mux)

	a.server = &http.Server{
		Addr:              bind,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}

	a.log.Printf("listening on http://%s", bind)

	go a.wsHub.Run(ctx)
	go a.heartbeatLoop(ctx)
	go a.statsLoop(ctx)

	ingestErr := make(chan error, 1)
	go func() {
		if err := a.listener.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			ingestErr <- err
		}
	}()

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.server.Serve(ln) }()

	select {
	case <-ctx.Done():
		a.log.Printf("shutdown requested")
		_ = a.server.Shutdown(context.Background())
		<-serveErr
		return nil
	case err := <-ingestErr:
		_ = a.server.Shutdown(context.Background())
		<-serveErr
		return err
	case err := <-serveErr:
		return err
	}
}

// StartSession begins a new session generation: the history and pipeline
// state are reset, ingestion opens, and ON is sent to the dispenser.
func (a *App) StartSession() error {
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()

	a.listener.StartSession()
	a.phaseMu.Lock()
	a.lastPhase = ""
	a.phaseMu.Unlock()

	if err := a.ctrl.Send(control.CmdOn); err != nil {
		// Ingestion stays open: the dispenser may already be sending, or the
		// operator can retarget and retry.
		a.log.Printf("session: ON not delivered to %s: %v", a.ctrl.Target(), err)
		a.emitLog("warn", "ON command not delivered: "+err.Error())
	}

	a.log.Printf("session: started, commanding dispenser at %s", a.ctrl.Target())
	a.emitState("STOPPED", "RUNNING")
	return nil
}

// StopSession sends OFF to the dispenser and closes the ingestion gate. The
// history keeps its contents for post-session inspection.
func (a *App) StopSession() error {
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()

	if err := a.ctrl.Send(control.CmdOff); err != nil {
		a.log.Printf("session: OFF not delivered to %s: %v", a.ctrl.Target(), err)
		a.emitLog("warn", "OFF command not delivered: "+err.Error())
	}
	a.listener.StopSession()

	a.log.Print("session: stopped")
	a.emitState("RUNNING", "STOPPED")
	return nil
}

// SetTarget repoints the dispenser control channel.
func (a *App) SetTarget(target string) error {
	if _, err := net.ResolveUDPAddr("udp", target); err != nil {
		return err
	}
	a.sessionMu.Lock()
	a.ctrl.Retarget(target)
	a.sessionMu.Unlock()
	a.log.Printf("session: control target is now %s", target)
	return nil
}

// onSample runs on the ingestion goroutine for every admitted sample: the
// sample is broadcast to WebSocket clients, and a phase change emits a state
// transition event.
func (a *App) onSample(s wire.Sample) {
	a.wsHub.BroadcastJSON(telemetry.SampleEvent{
		Event:  telemetry.NewEvent(telemetry.EventSample, "ingest"),
		Sample: s,
	})

	a.phaseMu.Lock()
	prev := a.lastPhase
	a.lastPhase = s.State
	a.phaseMu.Unlock()
	if prev != s.State {
		a.emitState(string(prev), string(s.State))
	}
}

// currentPhase returns the phase of the latest admitted sample, if any.
func (a *App) currentPhase() wire.Phase {
	a.phaseMu.Lock()
	defer a.phaseMu.Unlock()
	return a.lastPhase
}

// heartbeatLoop sends a periodic heartbeat event so clients can detect
// connectivity and track uptime without polling.
func (a *App) heartbeatLoop(ctx context.Context) {
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.wsHub.BroadcastJSON(telemetry.Heartbeat{
				Event:         telemetry.NewEvent(telemetry.EventHeartbeat, "fueltraced"),
				Running:       a.listener.Running(),
				UptimeSeconds: int64(time.Since(a.startedAt).Seconds()),
				LogLen:        a.history.Len(),
				State:         string(a.currentPhase()),
			})
		}
	}
}

// statsLoop broadcasts the periodic counters summary while a session runs.
func (a *App) statsLoop(ctx context.Context) {
	interval := time.Duration(a.cfg.Monitor.StatsIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !a.listener.Running() {
				continue
			}
			a.wsHub.BroadcastJSON(telemetry.StatsReport{
				Event:  telemetry.NewEvent(telemetry.EventStats, "ingest"),
				Ingest: a.listener.Stats(),
				Log:    a.history.Snapshot(),
			})
		}
	}
}

func (a *App) emitState(from, to string) {
	a.wsHub.BroadcastJSON(telemetry.StateTransition{
		Event: telemetry.NewEvent(telemetry.EventState, "fueltraced"),
		From:  from,
		To:    to,
	})
}

func (a *App) emitLog(level, message string) {
	a.wsHub.BroadcastJSON(telemetry.LogLine{
		Event:   telemetry.NewEvent(telemetry.EventLog, "fueltraced"),
		Level:   level,
		Message: message,
	})
}
