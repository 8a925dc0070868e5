package utils

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-confluence/src/config"
	"market-confluence/src/logger"
	"market-confluence/src/metrics"
	"market-confluence/src/models"
	"market-confluence/src/storage"
)

type recordingExchange struct {
	mu       sync.Mutex
	payloads []interface{}
}

func (r *recordingExchange) Broadcast(payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload)
}

func (r *recordingExchange) UpdateLatest(payload interface{}) {}
func (r *recordingExchange) Start() error                     { return nil }
func (r *recordingExchange) Stop() error                      { return nil }

func (r *recordingExchange) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

// -----------------------------------------------------------------------------

func newScheduler(t *testing.T, withStore bool) (*MarketScheduler, *recordingExchange, *storage.SQLiteEventStore) {
	t.Helper()
	cfg := config.Default().MConfig
	log := logger.NewLogger(nil, "test")

	var store *storage.SQLiteEventStore
	ex := &recordingExchange{}
	ms := NewMarketScheduler(cfg, testEngine, nil, ex, metrics.NewRecorder(), log)

	if withStore {
		storeCfg := &models.MConfig{}
		storeCfg.Storage.DBPath = filepath.Join(t.TempDir(), "events.db")
		storeCfg.Storage.RetentionDays = 30
		var err error
		store, err = storage.NewSQLiteEventStore(storeCfg, log)
		require.NoError(t, err)
		require.NoError(t, store.Initialize())
		t.Cleanup(func() { store.Close() })
		ms.Store = store
	}
	return ms, ex, store
}

func clockAt(instants ...time.Time) func() time.Time {
	var mu sync.Mutex
	i := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := instants[i]
		if i < len(instants)-1 {
			i++
		}
		return t
	}
}

// -----------------------------------------------------------------------------

func TestSchedulerTickPublishesAndJournals(t *testing.T) {
	ms, ex, store := newScheduler(t, true)
	loc := testEngine.Calendar().Location()
	ms.now = clockAt(
		time.Date(2025, time.December, 31, 15, 59, 0, 0, loc),
		time.Date(2025, time.December, 31, 16, 0, 0, 0, loc),
	)

	first, err := ms.Tick()
	require.NoError(t, err)
	assert.Empty(t, first)
	assert.Equal(t, 1, ex.count())
	require.NotNil(t, ms.Latest())
	assert.Equal(t, models.PhaseRegular, ms.Latest().Clock.Phase)

	second, err := ms.Tick()
	require.NoError(t, err)
	assert.Len(t, ofKind(second, models.EventPhaseChange), 1)
	assert.Len(t, ofKind(second, models.EventMacroClose), 1)
	assert.Equal(t, models.PhaseAfter, ms.Latest().Clock.Phase)

	// snapshot, snapshot, event batch
	require.Equal(t, 3, ex.count())
	assert.IsType(t, &models.MConfluenceSnapshot{}, ex.payloads[1])
	assert.Equal(t, second, ex.payloads[2])

	stored, err := store.RecentEvents(50, "")
	require.NoError(t, err)
	assert.Len(t, stored, len(second))

	macroRows, err := store.RecentEvents(50, models.EventMacroClose)
	require.NoError(t, err)
	require.Len(t, macroRows, 1)
	assert.Equal(t, "2025-12-31", macroRows[0].DateKey)
}

func TestSchedulerWithoutStore(t *testing.T) {
	ms, ex, _ := newScheduler(t, false)
	loc := testEngine.Calendar().Location()
	ms.now = clockAt(
		time.Date(2025, time.December, 31, 9, 29, 0, 0, loc),
		time.Date(2025, time.December, 31, 9, 30, 0, 0, loc),
	)

	_, err := ms.Tick()
	require.NoError(t, err)
	events, err := ms.Tick()
	require.NoError(t, err)
	assert.NotEmpty(t, ofKind(events, models.EventPhaseChange))
	assert.Equal(t, 3, ex.count())
}

func TestSchedulerTickRejectsOutOfRange(t *testing.T) {
	ms, ex, _ := newScheduler(t, false)
	ms.now = clockAt(time.Date(2300, time.January, 1, 0, 0, 0, 0, time.UTC))

	_, err := ms.Tick()
	assert.Error(t, err)
	assert.Nil(t, ms.Latest())
	assert.Zero(t, ex.count())
}

func TestSchedulerCleanupThrottled(t *testing.T) {
	ms, _, _ := newScheduler(t, true)
	base := time.Date(2025, time.December, 27, 12, 0, 0, 0, time.UTC)
	ms.CleanupInterval = time.Hour

	ms.cleanup(base)
	assert.Equal(t, base, ms.lastCleanup)
	ms.cleanup(base.Add(30 * time.Minute))
	assert.Equal(t, base, ms.lastCleanup)
	ms.cleanup(base.Add(time.Hour))
	assert.Equal(t, base.Add(time.Hour), ms.lastCleanup)
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	ms, ex, _ := newScheduler(t, false)
	ms.Interval = 5 * time.Millisecond
	ms.now = clockAt(time.Date(2025, time.December, 31, 15, 30, 0, 0, time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ms.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return ex.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
