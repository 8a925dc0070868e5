package grpc_control

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"market-confluence/src/calendar"
	"market-confluence/src/interfaces"
	"market-confluence/src/logger"
	"market-confluence/src/models"
	"market-confluence/src/snapshot"
	"market-confluence/src/storage"
)

func startControl(t *testing.T, store interfaces.IEventStore) *ControlClient {
	t.Helper()

	svc := NewControlService(snapshot.NewEngine(calendar.Default()), store, snapshot.DefaultParams(), logger.NewLogger(nil, "test"))
	svc.now = func() time.Time { return time.Date(2025, time.December, 27, 17, 0, 0, 0, time.UTC) }
	srv := NewServer(&models.MConfig{}, logger.NewLogger(nil, "test"), svc)

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewControlClient(conn)
}

func callCtx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

// -----------------------------------------------------------------------------

func TestGetSnapshot(t *testing.T) {
	client := startControl(t, nil)

	at := time.Date(2025, time.December, 31, 15, 30, 0, 0, time.UTC)
	resp, err := client.GetSnapshot(callCtx(t), at.Unix())
	require.NoError(t, err)

	m := resp.AsMap()
	assert.Equal(t, "regular", m["clock"].(map[string]interface{})["session_phase"])
	assert.Equal(t, "maximum", m["today_macro"].(map[string]interface{})["impact_level"])

	// zero asks for the server's now: Saturday
	resp, err = client.GetSnapshot(callCtx(t), 0)
	require.NoError(t, err)
	assert.Equal(t, "closed", resp.AsMap()["clock"].(map[string]interface{})["session_phase"])
}

func TestGetSnapshotRejectsOutOfRange(t *testing.T) {
	client := startControl(t, nil)

	_, err := client.GetSnapshot(callCtx(t), time.Date(2300, time.January, 1, 0, 0, 0, 0, time.UTC).Unix())
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetMacroOutlook(t *testing.T) {
	client := startControl(t, nil)

	resp, err := client.GetMacroOutlook(callCtx(t), 0)
	require.NoError(t, err)
	m := resp.AsMap()
	assert.Equal(t, float64(snapshot.DefaultParams().MacroHorizonDays), m["horizon_days"])

	days := m["days"].([]interface{})
	require.NotEmpty(t, days)
	assert.Equal(t, "2025-12-29", days[0].(map[string]interface{})["date_key"])
}

func TestGetRecentEvents(t *testing.T) {
	disabled := startControl(t, nil)
	_, err := disabled.GetRecentEvents(callCtx(t), 10)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	cfg := &models.MConfig{}
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "events.db")
	cfg.Storage.RetentionDays = 30
	store, err := storage.NewSQLiteEventStore(cfg, logger.NewLogger(nil, "test"))
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.SaveEvents([]models.MConfluenceEvent{
		{Kind: models.EventMacroClose, OccurredAt: time.Date(2025, time.December, 31, 14, 30, 0, 0, time.UTC), DateKey: "2025-12-31", Timeframes: []string{"1Y", "6M"}},
	}))

	client := startControl(t, store)
	resp, err := client.GetRecentEvents(callCtx(t), 10)
	require.NoError(t, err)
	m := resp.AsMap()
	assert.Equal(t, 1.0, m["count"])
	ev := m["events"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "macro_confluence", ev["kind"])
	assert.Equal(t, []interface{}{"1Y", "6M"}, ev["timeframes"])
}
