package statushttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorul/tradingbot/internal/bridge"
	"github.com/sorul/tradingbot/internal/config"
	"github.com/sorul/tradingbot/internal/instruments"
)

type stubSource struct {
	br *bridge.Bridge
}

func (s *stubSource) LiveBridge() *bridge.Bridge { return s.br }

func testBridge(t *testing.T) *bridge.Bridge {
	t.Helper()
	cfg := &config.Config{}
	cfg.Terminal.FilesDir = t.TempDir()
	cfg.Bridge.CommandSlots = 8
	cfg.Bridge.CommandRetrySeconds = 1
	cfg.Bridge.SleepDelayMS = 1
	cfg.Bridge.PollIntervalMS = 5
	cfg.History.Timeframe = "M5"
	cfg.History.LookbackDays = 30
	cfg.History.TradesLookbackDays = 30
	br, err := bridge.New(cfg, bridge.SymbolList{"EURUSD"}, nil)
	require.NoError(t, err)
	return br
}

func testEngine(source BridgeSource, registry *instruments.Registry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewRouter(source, registry).Register(engine.Group("/api/v1"))
	return engine
}

func get(engine http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestStatusIdle(t *testing.T) {
	engine := testEngine(&stubSource{}, nil)

	w := get(engine, "/api/v1/status")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state": "idle"}`, w.Body.String())
}

func TestEndpointsRequireLiveBridge(t *testing.T) {
	engine := testEngine(&stubSource{}, nil)

	for _, path := range []string{
		"/api/v1/account",
		"/api/v1/orders",
		"/api/v1/market",
		"/api/v1/bars",
		"/api/v1/backfill",
		"/api/v1/messages",
	} {
		w := get(engine, path)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestStatusReflectsBridgeState(t *testing.T) {
	br := testBridge(t)
	engine := testEngine(&stubSource{br: br}, nil)

	// 未 Start 的 bridge 算暂停。
	w := get(engine, "/api/v1/status")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "paused", body["state"])
	assert.Equal(t, float64(0), body["command_sequence"])
	assert.Equal(t, float64(1), body["remaining_symbols"])
	assert.Equal(t, float64(0), body["successful_symbols"])

	br.Deactivate()
	w = get(engine, "/api/v1/status")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "stopped", body["state"])
}

func TestOrdersAndBackfillEmpty(t *testing.T) {
	br := testBridge(t)
	engine := testEngine(&stubSource{br: br}, nil)

	w := get(engine, "/api/v1/orders")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"orders": [], "count": 0}`, w.Body.String())

	w = get(engine, "/api/v1/backfill")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"remaining": ["EURUSD"], "successful": []}`, w.Body.String())
}

func TestInstrumentsEndpoint(t *testing.T) {
	engine := testEngine(&stubSource{}, nil)
	w := get(engine, "/api/v1/instruments")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	path := filepath.Join(t.TempDir(), "instruments.yaml")
	require.NoError(t, os.WriteFile(path, []byte("instruments:\n  EURUSD:\n    pip: 0.0001\n    digits: 5\n"), 0o644))
	registry, err := instruments.New(path)
	require.NoError(t, err)

	engine = testEngine(&stubSource{}, registry)
	w = get(engine, "/api/v1/instruments")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "EURUSD")
}

func TestNewServerWiring(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)

	srv, err := NewServer(ServerConfig{Source: &stubSource{}})
	require.NoError(t, err)
	assert.Equal(t, ":9920", srv.Addr())

	w := get(srv.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())

	w = get(srv.Handler(), "/api/v1/status")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServerStopsOnContextCancel(t *testing.T) {
	srv, err := NewServer(ServerConfig{Addr: "127.0.0.1:0", Source: &stubSource{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
