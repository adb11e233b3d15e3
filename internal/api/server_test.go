package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/firewatch/internal/clock"
	"grimm.is/firewatch/internal/hub"
	"grimm.is/firewatch/internal/logging"
	"grimm.is/firewatch/internal/model"
)

type stubScanner struct {
	entries []model.AlertRequest
	err     error
}

func (s *stubScanner) ScanAll(ctx context.Context) ([]model.AlertRequest, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

func newTestServer(t *testing.T, scanner Scanner) (*httptest.Server, *hub.Hub) {
	t.Helper()
	h := hub.New(logging.Default())
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	commands := NewCommandHandler(h, scanner, clk, logging.Default(), time.Millisecond)
	srv := NewServer(ServerOptions{Hub: h, Commands: commands})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, h
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var env struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&env))
	return env.Type, env.Data
}

func waitForClients(t *testing.T, h *hub.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d clients, have %d", n, h.ClientCount())
}

func TestApplyFix_BroadcastToAllClients(t *testing.T) {
	ts, h := newTestServer(t, &stubScanner{})
	requester := dial(t, ts)
	observer := dial(t, ts)
	waitForClients(t, h, 2)

	err := requester.WriteJSON(map[string]any{
		"type": "apply_fix",
		"data": map[string]any{"request_index": 5, "firewall_id": "FW-A"},
	})
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{requester, observer} {
		msgType, data := readEnvelope(t, conn)
		assert.Equal(t, "fix_applied", msgType)
		assert.Equal(t, float64(5), data["request_index"])
		assert.Equal(t, "FW-A", data["firewall_id"])
		assert.Equal(t, "2025-06-01T12:00:00Z", data["applied_at"])
	}
}

func TestApplyFix_BadIndexYieldsFixError(t *testing.T) {
	ts, h := newTestServer(t, &stubScanner{})
	conn := dial(t, ts)
	waitForClients(t, h, 1)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "apply_fix",
		"data": map[string]any{"request_index": 0, "firewall_id": "FW-A"},
	}))

	msgType, data := readEnvelope(t, conn)
	assert.Equal(t, "fix_error", msgType)
	assert.Contains(t, data["error"], "request_index")
}

func TestGetAllLogs_EmptyFile(t *testing.T) {
	ts, h := newTestServer(t, &stubScanner{entries: []model.AlertRequest{}})
	requester := dial(t, ts)
	observer := dial(t, ts)
	waitForClients(t, h, 2)

	require.NoError(t, requester.WriteJSON(map[string]any{"type": "get_all_logs"}))

	msgType, data := readEnvelope(t, requester)
	assert.Equal(t, "all_logs_response", msgType)
	assert.Equal(t, float64(0), data["total"])
	logs, ok := data["logs"].([]any)
	require.True(t, ok)
	assert.Empty(t, logs)

	// Only the requester hears the response.
	observer.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := observer.ReadMessage()
	assert.Error(t, err)
}

func TestGetAllLogs_ReturnsEntries(t *testing.T) {
	entries := []model.AlertRequest{
		{Index: 2, FirewallID: "FW-B", BugType: model.BugSQLInjection, Severity: model.SeverityHigh, Type: model.CategorySecurity},
	}
	ts, h := newTestServer(t, &stubScanner{entries: entries})
	conn := dial(t, ts)
	waitForClients(t, h, 1)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "get_all_logs"}))

	msgType, data := readEnvelope(t, conn)
	assert.Equal(t, "all_logs_response", msgType)
	assert.Equal(t, float64(1), data["total"])

	logs := data["logs"].([]any)
	first := logs[0].(map[string]any)
	assert.Equal(t, float64(2), first["index"])
	assert.Equal(t, "FW-B", first["firewall_id"])
	assert.Equal(t, "sql_injection", first["bug_type"])
	assert.Nil(t, first["explanation"])
	assert.Nil(t, first["fix_proposal"])
}

func TestGetAllLogs_ScanErrorYieldsAllLogsError(t *testing.T) {
	ts, h := newTestServer(t, &stubScanner{err: errors.New("disk gone")})
	conn := dial(t, ts)
	waitForClients(t, h, 1)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "get_all_logs"}))

	msgType, data := readEnvelope(t, conn)
	assert.Equal(t, "all_logs_error", msgType)
	assert.Contains(t, data["error"], "disk gone")
}

func TestUnknownAndMalformedMessagesKeepConnectionOpen(t *testing.T) {
	ts, h := newTestServer(t, &stubScanner{})
	conn := dial(t, ts)
	waitForClients(t, h, 1)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "mystery"}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json at all")))

	// The connection still serves commands afterwards.
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "get_all_logs"}))
	msgType, _ := readEnvelope(t, conn)
	assert.Equal(t, "all_logs_response", msgType)
}

func TestClientDisconnectUnregisters(t *testing.T) {
	ts, h := newTestServer(t, &stubScanner{})
	conn := dial(t, ts)
	waitForClients(t, h, 1)

	conn.Close()
	waitForClients(t, h, 0)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, &stubScanner{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsRouteServed(t *testing.T) {
	ts, _ := newTestServer(t, &stubScanner{})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
