package ctl

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSONDecodesResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"fueltrace","state":"RUNNING"}`))
	}))
	defer srv.Close()

	var dst struct {
		Name  string `json:"name"`
		State string `json:"state"`
	}
	require.NoError(t, getJSON(srv.URL, "/api/status", &dst))
	assert.Equal(t, "fueltrace", dst.Name)
	assert.Equal(t, "RUNNING", dst.State)
}

func TestHTTPErrorPrefersStructuredBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"session already running"}`))
	}))
	defer srv.Close()

	err := getJSON(srv.URL, "/api/session/start", &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session already running")
	assert.NotContains(t, err.Error(), `{"error"`, "structured message must replace the raw body")
}

func TestHTTPErrorFallsBackToBodyText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "route not found", http.StatusNotFound)
	}))
	defer srv.Close()

	err := getJSON(srv.URL, "/api/nope", &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "route not found")
}

func TestHTTPErrorEmptyBodyNamesPath(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := getJSON(srv.URL, "/api/stats", &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/api/stats")
}

func TestHealthRequestsJSONDetail(t *testing.T) {
	var gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"healthy":true,"running":true,"ws_clients":2}`))
	}))
	defer srv.Close()

	require.NoError(t, Health(srv.URL, true))
	assert.Equal(t, "application/json", gotAccept, "health check must ask for the detail form")
}

func TestPostJSONReportsStructuredError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid target address"}`))
	}))
	defer srv.Close()

	err := postJSON(srv.URL, "/api/target", map[string]string{"target": "bogus"}, &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid target address")
}
