package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-confluence/src/logger"
	"market-confluence/src/models"
)

func newMemory(t *testing.T, capacity int) *MemoryEventStore {
	t.Helper()
	cfg := &models.MConfig{Name: "test"}
	cfg.Storage.DBType = "memory"
	cfg.Storage.MemoryCapacity = capacity
	cfg.Storage.RetentionDays = 30

	store := NewMemoryEventStore(cfg, logger.NewLogger(nil, "test"))
	require.NoError(t, store.Initialize())
	return store
}

func TestRingBufferWrapsAround(t *testing.T) {
	rb := NewRingBuffer(3)
	base := time.Date(2025, time.December, 31, 15, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rb.Append(models.MConfluenceEvent{ID: int64(i + 1), OccurredAt: base.Add(time.Duration(i) * time.Minute)})
	}

	assert.True(t, rb.IsFull())
	assert.Equal(t, 3, rb.Size())

	var ids []int64
	for _, e := range rb.GetAll() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int64{3, 4, 5}, ids)

	latest := rb.GetLatest(2)
	require.Len(t, latest, 2)
	assert.Equal(t, int64(5), latest[0].ID)
	assert.Equal(t, int64(4), latest[1].ID)
	assert.Len(t, rb.GetLatest(10), 3)

	dropped := rb.Retain(func(e models.MConfluenceEvent) bool { return e.ID != 4 })
	assert.Equal(t, 1, dropped)
	assert.Equal(t, int64(5), rb.GetLatest(1)[0].ID)
	assert.Equal(t, 2, rb.Size())

	rb.Clear()
	assert.Empty(t, rb.GetAll())
	assert.Equal(t, defaultRingCapacity, NewRingBuffer(0).Capacity())
}

func TestMemorySaveAndRecent(t *testing.T) {
	store := newMemory(t, 10)
	base := time.Date(2025, time.December, 31, 15, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveEvents([]models.MConfluenceEvent{
		event(models.EventPhaseChange, base),
		event(models.EventIntradayClose, base.Add(time.Minute), "1H", "30m"),
		event(models.EventMacroClose, base.Add(2*time.Minute), "1Y"),
	}))

	all, err := store.RecentEvents(10, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, models.EventMacroClose, all[0].Kind)
	assert.Equal(t, int64(3), all[0].ID)
	assert.Equal(t, []string{}, all[2].Timeframes)

	only, err := store.RecentEvents(10, models.EventIntradayClose)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, []string{"1H", "30m"}, only[0].Timeframes)
}

func TestMemoryOverwritesOldest(t *testing.T) {
	store := newMemory(t, 2)
	base := time.Date(2025, time.December, 31, 15, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		ev := event(models.EventIntradayClose, base.Add(time.Duration(i)*time.Minute))
		ev.Message = fmt.Sprintf("close %d", i)
		require.NoError(t, store.SaveEvents([]models.MConfluenceEvent{ev}))
	}

	events, err := store.RecentEvents(0, "")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "close 3", events[0].Message)
	assert.Equal(t, "close 2", events[1].Message)
}

func TestMemoryCleanup(t *testing.T) {
	store := newMemory(t, 10)
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.SaveEvents([]models.MConfluenceEvent{
		event(models.EventMacroClose, now.AddDate(0, 0, -45)),
		event(models.EventMacroClose, now.AddDate(0, 0, -5)),
	}))
	require.NoError(t, store.CleanupOldData())

	left, err := store.RecentEvents(0, "")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, now.AddDate(0, 0, -5), left[0].OccurredAt)
	assert.NoError(t, store.Close())
}
