package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtindex/internal/config"
	"dtindex/internal/middleware"
	"dtindex/internal/shared/testutil"
	"dtindex/pkg/contracts/events"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	testutil.WritePanelCSV(t, dir, "panel.csv")

	cfg := config.Default()
	cfg.Dataset.DataDir = dir
	cfg.Dataset.Files = []string{"panel.csv"}
	cfg.Security.RateLimit.Enabled = false
	cfg.Security.AllowedOrigins = nil
	cfg.Security.ReloadAPIKey = "reload-key"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		a.WebSocketHub.Stop()
		a.Scheduler.Stop(context.Background())
		_ = a.OTelProviders.Shutdown(context.Background())
	})
	return a
}

func do(t *testing.T, h http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewWiresServices(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	assert.NotNil(t, a.Router)
	assert.NotNil(t, a.Server)
	assert.Equal(t, ":8080", a.Server.Addr)
	assert.NotNil(t, a.Services.Dataset)
	assert.NotNil(t, a.Services.Lookup)
	assert.NotNil(t, a.Services.Explorer)
	assert.NotNil(t, a.Services.Health)
	assert.False(t, a.QueryCache.Enabled())
	assert.Nil(t, a.Scheduler, "no reload schedule configured")
}

func TestReadinessFollowsFirstLoad(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	rec := do(t, a.Router, http.MethodGet, "/api/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	_, err := a.Services.Dataset.Snapshot(context.Background())
	require.NoError(t, err)

	rec = do(t, a.Router, http.MethodGet, "/api/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRoutes(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	tests := []struct {
		name       string
		method     string
		path       string
		header     http.Header
		wantStatus int
		wantBody   string
	}{
		{name: "health", method: http.MethodGet, path: "/api/health", wantStatus: http.StatusOK, wantBody: `"status":"ok"`},
		{name: "liveness", method: http.MethodGet, path: "/api/health/live", wantStatus: http.StatusOK},
		{name: "version", method: http.MethodGet, path: "/api/version", wantStatus: http.StatusOK, wantBody: `"api_version":"v1"`},
		{name: "dataset overview", method: http.MethodGet, path: "/api/dataset", wantStatus: http.StatusOK, wantBody: `"rows":4`},
		{name: "dataset columns", method: http.MethodGet, path: "/api/dataset/columns", wantStatus: http.StatusOK, wantBody: "数字化转型指数"},
		{name: "lookup stocks", method: http.MethodGet, path: "/api/lookup/stocks", wantStatus: http.StatusOK, wantBody: `"000002"`},
		{name: "lookup report", method: http.MethodGet, path: "/api/lookup/stocks/1?year=2019", wantStatus: http.StatusOK, wantBody: `"stock":"000001"`},
		{name: "lookup unknown stock", method: http.MethodGet, path: "/api/lookup/stocks/999999", wantStatus: http.StatusNotFound},
		{name: "explorer options", method: http.MethodGet, path: "/api/explorer/options", wantStatus: http.StatusOK, wantBody: "金融"},
		{name: "explorer trend", method: http.MethodGet, path: "/api/explorer/trend?industries=%E5%9C%B0%E4%BA%A7", wantStatus: http.StatusOK, wantBody: `"mean":30`},
		{name: "explorer export", method: http.MethodGet, path: "/api/explorer/records/export", wantStatus: http.StatusOK, wantBody: "数字化转型指数"},
		{name: "reload without key", method: http.MethodPost, path: "/api/dataset/reload", wantStatus: http.StatusUnauthorized},
		{
			name: "reload with key", method: http.MethodPost, path: "/api/dataset/reload",
			header:     http.Header{middleware.APIKeyHeader: {"reload-key"}},
			wantStatus: http.StatusOK, wantBody: `"generation":`,
		},
		{name: "unknown route", method: http.MethodGet, path: "/api/nope", wantStatus: http.StatusNotFound, wantBody: `"type"`},
		{name: "wrong method", method: http.MethodDelete, path: "/api/health", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, a.Router, tt.method, tt.path, tt.header)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	do(t, a.Router, http.MethodGet, "/api/lookup/stocks", nil)
	rec := do(t, a.Router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dashboard_queries_total")
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Observability.EnableMetrics = false
	a := newTestApp(t, cfg)

	assert.Nil(t, a.Metrics)
	rec := do(t, a.Router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, a.Router, http.MethodGet, "/api/lookup/stocks", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScheduledReloadConfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dataset.ReloadSchedule = "0 3 * * *"
	a := newTestApp(t, cfg)

	require.NotNil(t, a.Scheduler)
	a.Scheduler.Start()
	assert.False(t, a.Scheduler.Next().IsZero())

	rec := do(t, a.Router, http.MethodPost, "/api/dataset/reload",
		http.Header{middleware.APIKeyHeader: {"reload-key"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"next_reload"`)
}

func TestReloadBroadcastsOverWebSocket(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() events.WebSocketMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg events.WebSocketMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}
	assert.Equal(t, events.MessageTypeConnection, read().Type)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/dataset/reload", nil)
	require.NoError(t, err)
	req.Header.Set(middleware.APIKeyHeader, "reload-key")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	msg := read()
	assert.Equal(t, events.MessageTypeDatasetReloaded, msg.Type)
	assert.Equal(t, events.ActionReloaded, msg.Action)
}

func TestStartAndStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 2 * time.Second
	a := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx, cancel))

	require.Eventually(t, func() bool { return a.Services.Dataset.Current() != nil },
		3*time.Second, 20*time.Millisecond, "dataset warmed on start")

	assert.NoError(t, a.Stop(context.Background()))
	assert.Equal(t, 0, a.WebSocketHub.ClientCount())
}
