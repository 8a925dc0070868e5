package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-confluence/src/calendar"
	"market-confluence/src/config"
	"market-confluence/src/interfaces"
	"market-confluence/src/logger"
	"market-confluence/src/metrics"
	"market-confluence/src/models"
	"market-confluence/src/snapshot"
	"market-confluence/src/storage"
)

func newTestServer(t *testing.T, store interfaces.IEventStore) *FastAPIServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	s := NewFastAPIServer(cfg.MConfig, logger.NewLogger(nil, "test"), snapshot.NewEngine(calendar.Default()), store, metrics.NewRecorder())
	s.now = func() time.Time { return time.Date(2025, time.December, 31, 15, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { s.Stop() })
	return s
}

func get(t *testing.T, s *FastAPIServer, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

// -----------------------------------------------------------------------------

func TestSnapshotEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := get(t, s, "/api/snapshot?at=2025-12-31T15:30:00Z")
	require.Equal(t, http.StatusOK, rec.Code)
	clk := body["clock"].(map[string]interface{})
	assert.Equal(t, "regular", clk["session_phase"])
	assert.Equal(t, "maximum", body["today_macro"].(map[string]interface{})["impact_level"])
	assert.Equal(t, 5.0, body["tolerance_minutes"])

	// no at: the server clock, which is the same instant
	_, now := get(t, s, "/api/snapshot")
	assert.Equal(t, body["clock"], now["clock"])

	rec, body = get(t, s, "/api/snapshot?at=2025-12-31T15:30:00Z&tolerance=2.5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.5, body["tolerance_minutes"])
}

func TestSnapshotAcceptsUnixSeconds(t *testing.T) {
	s := newTestServer(t, nil)
	weekend := time.Date(2025, time.December, 27, 17, 0, 0, 0, time.UTC)

	rec, body := get(t, s, "/api/snapshot?at="+strconv.FormatInt(weekend.Unix(), 10))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "closed", body["clock"].(map[string]interface{})["session_phase"])
	assert.Nil(t, body["next_major_intraday_event"])
}

func TestSnapshotRejectsBadInput(t *testing.T) {
	s := newTestServer(t, nil)

	cases := map[string]string{
		"garbage instant":   "/api/snapshot?at=yesterday",
		"out of range year": "/api/snapshot?at=2300-01-01T00:00:00Z",
		"tolerance too big": "/api/snapshot?tolerance=500",
		"tolerance not num": "/api/snapshot?tolerance=abc",
		"horizon too long":  "/api/macro/next?horizon_days=5000",
		"clock bad instant": "/api/clock?at=12:00",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			rec, body := get(t, s, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}

	_, body := get(t, s, "/api/snapshot?tolerance=500")
	details := body["details"].([]interface{})
	require.Len(t, details, 1)
	assert.Equal(t, "ERR_LTE", details[0].(map[string]interface{})["code"])
	assert.Equal(t, "Tolerance", details[0].(map[string]interface{})["field"])
}

func TestClockEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := get(t, s, "/api/clock?at=2025-12-24T17:50:00Z")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "regular", body["session_phase"])
	day := body["day"].(map[string]interface{})
	assert.Equal(t, true, day["is_half_day"])
	assert.Equal(t, 10.0, body["minutes_to_close"])
}

func TestMacroEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := get(t, s, "/api/macro/next?at=2025-12-27T17:00:00Z")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["found"])
	assert.Equal(t, 2.0, body["days_until"])
	assert.Equal(t, "2025-12-29", body["confluence"].(map[string]interface{})["date_key"])

	// through Wednesday 12-31; Tuesday 12-30 closes only 1D and 3D
	rec, body = get(t, s, "/api/macro/outlook?at=2025-12-27T17:00:00Z&horizon_days=4")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4.0, body["horizon_days"])
	days := body["days"].([]interface{})
	require.Len(t, days, 2)
	assert.Equal(t, "2025-12-29", days[0].(map[string]interface{})["date_key"])
	last := days[1].(map[string]interface{})
	assert.Equal(t, "2025-12-31", last["date_key"])
	assert.Equal(t, "maximum", last["impact_level"])
}

// -----------------------------------------------------------------------------

func TestEventsEndpoint(t *testing.T) {
	disabled := newTestServer(t, nil)
	rec, _ := get(t, disabled, "/api/events")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	cfg := &models.MConfig{}
	cfg.Storage.DBType = "sqlite"
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "events.db")
	cfg.Storage.RetentionDays = 30
	store, err := storage.NewSQLiteEventStore(cfg, logger.NewLogger(nil, "test"))
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { store.Close() })

	base := time.Date(2025, time.December, 31, 15, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveEvents([]models.MConfluenceEvent{
		{Kind: models.EventPhaseChange, OccurredAt: base, DateKey: "2025-12-31", Message: "pre -> regular"},
		{Kind: models.EventMacroClose, OccurredAt: base.Add(time.Minute), DateKey: "2025-12-31", Timeframes: []string{"1Y"}},
	}))

	s := newTestServer(t, store)

	rec, body := get(t, s, "/api/events")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, body["count"])

	rec, body = get(t, s, "/api/events?limit=1&kind=phase_change")
	require.Equal(t, http.StatusOK, rec.Code)
	events := body["events"].([]interface{})
	require.Len(t, events, 1)
	assert.Equal(t, "phase_change", events[0].(map[string]interface{})["kind"])

	rec, _ = get(t, s, "/api/events?kind=bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = get(t, s, "/api/events?limit=5000")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthConfigAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := get(t, s, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 0.0, body["connections"])
	assert.Equal(t, false, body["journal"])

	_, body = get(t, s, "/api/config")
	assert.Equal(t, "America/New_York", body["timezone"])
	assert.Equal(t, "2024-01-01", body["epoch"])
	assert.Contains(t, body["macro_cycles"], "1Y")
	assert.Len(t, body["execution_windows"], len(snapshot.ExecutionWindows()))

	rec, _ = get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `confluence_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/snapshot", nil)
	req.Header.Set("Origin", "http://127.0.0.1:5173")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://127.0.0.1:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

// -----------------------------------------------------------------------------

func readMessage(t *testing.T, conn *websocket.Conn) models.MStreamMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg models.MStreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketHub(t *testing.T) {
	s := newTestServer(t, nil)
	s.startHub()

	snap, err := s.Engine.Build(s.now(), s.Params)
	require.NoError(t, err)
	s.UpdateLatest(snap)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	initial := readMessage(t, conn)
	assert.Equal(t, models.StreamInitial, initial.Type)
	require.NotNil(t, initial.Snapshot)
	assert.Equal(t, snap.Clock.Local.DateKey, initial.Snapshot.Clock.Local.DateKey)

	// events only; the on-demand reply proves the subscription was applied
	require.NoError(t, conn.WriteJSON(models.MSubscribeCommand{Command: "subscribe", Topics: []string{models.TopicEvents}}))
	require.NoError(t, conn.WriteJSON(models.MSubscribeCommand{Command: "snapshot", At: "2025-12-27T17:00:00Z"}))
	reply := readMessage(t, conn)
	assert.Equal(t, models.StreamSnapshot, reply.Type)
	assert.Equal(t, models.PhaseClosed, reply.Snapshot.Clock.Phase)

	s.Broadcast(snap)
	s.Broadcast([]models.MConfluenceEvent{{Kind: models.EventMacroClose, DateKey: "2025-12-31"}})
	pushed := readMessage(t, conn)
	assert.Equal(t, models.StreamEvents, pushed.Type)
	require.Len(t, pushed.Events, 1)
	assert.Equal(t, models.EventMacroClose, pushed.Events[0].Kind)

	require.NoError(t, conn.WriteJSON(models.MSubscribeCommand{Command: "snapshot", At: "not-a-time"}))
	failed := readMessage(t, conn)
	assert.Equal(t, models.StreamError, failed.Type)
	assert.NotEmpty(t, failed.Error)

	_, health := get(t, s, "/api/health")
	assert.Equal(t, 1.0, health["connections"])
}

func TestClientSendAfterClose(t *testing.T) {
	s := newTestServer(t, nil)
	c := &Client{hub: s, send: make(chan *models.MStreamMessage, 1)}

	c.trySend(&models.MStreamMessage{Type: models.StreamSnapshot})
	c.trySend(&models.MStreamMessage{Type: models.StreamEvents}) // full, dropped
	assert.Len(t, c.send, 1)

	c.close()
	c.close()
	assert.NotPanics(t, func() { c.trySend(&models.MStreamMessage{Type: models.StreamError}) })

	first, ok := <-c.send
	require.True(t, ok)
	assert.Equal(t, models.StreamSnapshot, first.Type)
	_, ok = <-c.send
	assert.False(t, ok)
}

// -----------------------------------------------------------------------------

func TestStreamMessage(t *testing.T) {
	now := time.Unix(100, 0)

	_, ok := streamMessage("text", now)
	assert.False(t, ok)
	_, ok = streamMessage([]models.MConfluenceEvent{}, now)
	assert.False(t, ok)
	_, ok = streamMessage((*models.MConfluenceSnapshot)(nil), now)
	assert.False(t, ok)

	msg, ok := streamMessage([]models.MConfluenceEvent{{Kind: models.EventPhaseChange}}, now)
	require.True(t, ok)
	assert.Equal(t, models.TopicEvents, msg.Topic())
	assert.Equal(t, int64(100000), msg.Timestamp)

	snap := &models.MConfluenceSnapshot{Clock: models.MMarketClock{Instant: time.Unix(50, 0)}}
	msg, ok = streamMessage(snap, now)
	require.True(t, ok)
	assert.Equal(t, models.TopicSnapshot, msg.Topic())
	assert.Equal(t, int64(50000), msg.Timestamp)
}
