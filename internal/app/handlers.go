package app

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// routes registers every HTTP endpoint on the mux.
func (a *App) routes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/version", a.handleVersion)
	mux.HandleFunc("/api/config", a.handleConfig)
	mux.HandleFunc("/api/stats", a.handleStats)
	mux.HandleFunc("/api/samples/tail", a.handleSamplesTail)
	mux.HandleFunc("/api/samples/at", a.handleSamplesAt)
	mux.HandleFunc("/api/session/start", a.handleSessionStart)
	mux.HandleFunc("/api/session/stop", a.handleSessionStop)
	mux.HandleFunc("/api/target", a.handleTarget)
	mux.Handle("/ws", a.wsHub.Handler())
}

// ---------------------------------------------------------------------------
// Read endpoints
// ---------------------------------------------------------------------------

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	// If the client asks for JSON, return component-level detail.
	if r.Header.Get("Accept") == "application/json" {
		writeJSON(w, http.StatusOK, map[string]any{
			"healthy":    true,
			"running":    a.listener.Running(),
			"ws_clients": a.wsHub.ClientCount(),
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (a *App) handleStatus(w http.ResponseWriter, _ *http.Request) {
	state := "STOPPED"
	if a.listener.Running() {
		state = "RUNNING"
	}

	resp := map[string]any{
		"name":           "fueltrace",
		"state":          state,
		"phase":          string(a.currentPhase()),
		"uptime_seconds": int64(time.Since(a.startedAt).Seconds()),
		"data_listen":    a.cfg.Monitor.DataListen,
		"control_target": a.ctrl.Target(),
		"log_len":        a.history.Len(),
		"ws_clients":     a.wsHub.ClientCount(),
	}
	if last, ok := a.history.Tail(); ok {
		resp["last_seq"] = last.Seq
		resp["last_received_at"] = last.ReceivedAt.UTC().Format(time.RFC3339Nano)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    Version,
		"go_version": GoVersion,
		"built_at":   BuiltAt,
	})
}

func (a *App) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.cfg)
}

func (a *App) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ingest":         a.listener.Stats(),
		"history":        a.history.Snapshot(),
		"uptime_seconds": int64(time.Since(a.startedAt).Seconds()),
	})
}

func (a *App) handleSamplesTail(w http.ResponseWriter, r *http.Request) {
	n := 1
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			jsonError(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = v
	}

	samples := a.history.SnapshotTail(n)
	writeJSON(w, http.StatusOK, map[string]any{
		"samples":   samples,
		"first_seq": a.history.FirstSeq(),
		"log_len":   a.history.Len(),
	})
}

// handleSamplesAt looks up a single entry either by logical index (0 =
// oldest retained, renumbers on eviction) or by stable sequence ID.
func (a *App) handleSamplesAt(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	idxStr, idStr := q.Get("index"), q.Get("id")

	switch {
	case idxStr != "" && idStr != "":
		jsonError(w, "pass either index or id, not both", http.StatusBadRequest)
	case idxStr != "":
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			jsonError(w, "index must be an integer", http.StatusBadRequest)
			return
		}
		sample, ok := a.history.At(idx)
		if !ok {
			jsonError(w, "index out of range", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sample": sample})
	case idStr != "":
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			jsonError(w, "id must be an unsigned integer", http.StatusBadRequest)
			return
		}
		sample, ok := a.history.BySeq(id)
		if !ok {
			jsonError(w, "no retained entry with that id", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sample": sample})
	default:
		jsonError(w, "index or id parameter required", http.StatusBadRequest)
	}
}

// ---------------------------------------------------------------------------
// Session control
// ---------------------------------------------------------------------------

func (a *App) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if a.listener.Running() {
		jsonError(w, "session already running", http.StatusConflict)
		return
	}
	if err := a.StartSession(); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "session started"})
}

func (a *App) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !a.listener.Running() {
		jsonError(w, "no session running", http.StatusConflict)
		return
	}
	if err := a.StopSession(); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "session stopped"})
}

func (a *App) handleTarget(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"target": a.ctrl.Target()})
	case http.MethodPost:
		var req struct {
			Target string `json:"target"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.Target == "" {
			jsonError(w, "target is required", http.StatusBadRequest)
			return
		}
		if err := a.SetTarget(req.Target); err != nil {
			jsonError(w, "invalid target: "+err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "target": req.Target})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]any{
		"ok":    false,
		"error": msg,
	})
}
