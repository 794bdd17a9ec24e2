package app

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishstat/internal/config"
	"fishstat/internal/shared/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tmp := t.TempDir()

	cfg := config.Default()
	cfg.DataDir = filepath.Join(tmp, "data")
	cfg.OutputDir = filepath.Join(tmp, "output")
	cfg.InputFile = "capture.csv"
	cfg.Export.PlotFormat = "svg"
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Server.RateLimit.Enabled = false

	require.NoError(t, os.MkdirAll(cfg.DataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, "capture.csv"), []byte(testutil.CaptureCSV), 0644))
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	a, err := New(cfg, logger, WithPrometheusRegistry(promclient.NewRegistry()))
	require.NoError(t, err)
	return a
}

func get(t *testing.T, a *Application, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestApplication_Routes(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	require.NoError(t, a.Load(context.Background(), ""))

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		wantContent string
		wantBody    string
	}{
		{name: "health", path: "/health", wantStatus: http.StatusOK, wantBody: `"status":"ok"`},
		{name: "ready", path: "/health/ready", wantStatus: http.StatusOK, wantBody: `"status":"ready"`},
		{name: "dataset", path: "/api/v1/dataset", wantStatus: http.StatusOK, wantBody: `"records":9`},
		{name: "groups", path: "/api/v1/groups", wantStatus: http.StatusOK, wantBody: `"count":2`},
		{name: "series", path: "/api/v1/series/FCY", wantStatus: http.StatusOK, wantBody: `"group":"FCY"`},
		{name: "chart", path: "/api/v1/series/FCY/chart", wantStatus: http.StatusOK, wantContent: "image/svg+xml", wantBody: "Population Trends for FCY"},
		{name: "unknown group", path: "/api/v1/series/COD", wantStatus: http.StatusNotFound, wantBody: `"type":"/errors/not-found"`},
		{name: "bad mode", path: "/api/v1/series/FCY?mode=median", wantStatus: http.StatusBadRequest, wantBody: `"type":"/errors/validation"`},
		{name: "unknown route", path: "/nope", wantStatus: http.StatusNotFound, wantBody: `"status":404`},
		{name: "metrics", path: "/metrics", wantStatus: http.StatusOK, wantBody: "fishstat_runs_total"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, a, tt.path)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			if tt.wantContent != "" {
				assert.Equal(t, tt.wantContent, rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestApplication_NotReadyBeforeLoad(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	rec := get(t, a, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, a, "/api/v1/groups")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_ProblemCarriesRequestID(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	require.NoError(t, a.Load(context.Background(), ""))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/series/COD", nil)
	req.Header.Set("X-Request-ID", "req-123")
	a.Router.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "req-123", body["trace_id"])
	assert.Equal(t, "NOT_FOUND", body["error_code"])
}

func TestApplication_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.RPS = 0.001
	cfg.Server.RateLimit.Burst = 1
	a := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, get(t, a, "/health").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, a, "/health").Code)
}

func TestApplication_ServeAndShutdown(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	require.NoError(t, a.Load(context.Background(), ""))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, listener) }()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + listener.Addr().String() + "/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
