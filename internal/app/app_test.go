package app

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statedash/internal/config"
	"statedash/internal/shared/testutil"
	ws "statedash/internal/websocket"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApplication(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	app, err := New(cfg, logger)
	require.NoError(t, err)
	return app
}

func getJSON(t *testing.T, client *http.Client, url string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestNew_WiresComponents(t *testing.T) {
	app := newTestApplication(t, testConfig())

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.WebSocketHub)
	assert.NotNil(t, app.DashboardService)
	assert.NotNil(t, app.HealthService)
	assert.NotNil(t, app.OTelProviders.PrometheusHTTP)
	assert.Equal(t, "127.0.0.1:0", app.Addr())
}

func TestRouter_Endpoints(t *testing.T) {
	app := newTestApplication(t, testConfig())
	srv := httptest.NewServer(app.Router)
	defer srv.Close()
	client := srv.Client()

	t.Run("health", func(t *testing.T) {
		code, body := getJSON(t, client, srv.URL+"/api/health")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("not ready before a load", func(t *testing.T) {
		code, body := getJSON(t, client, srv.URL+"/api/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not_ready", body["status"])
	})

	t.Run("dashboard before a load", func(t *testing.T) {
		code, body := getJSON(t, client, srv.URL+"/api/dashboard")
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "NO_DATASET", body["error_code"])
	})

	t.Run("unknown route", func(t *testing.T) {
		code, body := getJSON(t, client, srv.URL+"/api/nope")
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "/errors/not-found", body["type"])
	})

	t.Run("page", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		html, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(html), "Load a CSV URL, upload a file, or use the sample dataset.")
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})

	t.Run("load sample then query", func(t *testing.T) {
		resp, err := client.Post(srv.URL+"/api/dashboard/load/sample", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		code, body := getJSON(t, client, srv.URL+"/api/dashboard/summary")
		require.Equal(t, http.StatusOK, code)
		summary := body["data"].(map[string]interface{})
		assert.EqualValues(t, 12, summary["rows"])
		assert.EqualValues(t, 6, summary["states"])

		code, body = getJSON(t, client, srv.URL+"/api/dashboard/groups/year")
		require.Equal(t, http.StatusOK, code)
		assert.EqualValues(t, 2, body["count"])

		code, _ = getJSON(t, client, srv.URL+"/api/health/ready")
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		text, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(text), "go_goroutines")
	})

	t.Run("version", func(t *testing.T) {
		code, body := getJSON(t, client, srv.URL+"/api/version")
		assert.Equal(t, http.StatusOK, code)
		assert.NotEmpty(t, body["version"])
	})
}

func TestApplication_StartStop(t *testing.T) {
	app := newTestApplication(t, testConfig())

	require.NoError(t, app.Start(context.Background()))
	base := "http://" + app.Addr()

	require.Eventually(t, func() bool {
		return app.DashboardService.Status().Loaded
	}, 2*time.Second, 10*time.Millisecond)

	code, body := getJSON(t, http.DefaultClient, base+"/api/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+app.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	var welcome ws.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, ws.TypeConnection, welcome.Type)

	require.NoError(t, app.Stop(context.Background()))
	require.NoError(t, app.Stop(context.Background()))

	_, err = http.Get(base + "/api/health")
	assert.Error(t, err)
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	app := newTestApplication(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		return !strings.HasSuffix(app.Addr(), ":0")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApplication_StartFailsOnBusyPort(t *testing.T) {
	first := newTestApplication(t, testConfig())
	require.NoError(t, first.Start(context.Background()))
	defer first.Stop(context.Background())

	_, port, _ := strings.Cut(first.Addr(), ":")
	second := newTestApplication(t, testConfig())
	second.Server.Addr = "127.0.0.1:" + port

	assert.Error(t, second.Start(context.Background()))
}

func TestBrowserAddr(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{addr: "0.0.0.0:8080", want: "localhost:8080"},
		{addr: "[::]:8080", want: "localhost:8080"},
		{addr: "127.0.0.1:9000", want: "127.0.0.1:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			addr, err := net.ResolveTCPAddr("tcp", tt.addr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, browserAddr(addr))
		})
	}
}
