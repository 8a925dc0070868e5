package storage

import (
	"sync"
	"time"

	"market-confluence/src/logger"
	"market-confluence/src/models"
)

// -----------------------------------------------------------------------------

// MemoryEventStore journals events in a ring buffer. Nothing survives a
// restart; the oldest events are overwritten once the buffer is full.
type MemoryEventStore struct {
	Config *models.MConfig
	Logger *logger.Logger
	now    func() time.Time

	mu     sync.RWMutex
	buffer *RingBuffer
	nextID int64
}

// -----------------------------------------------------------------------------

func NewMemoryEventStore(cfg *models.MConfig, log *logger.Logger) *MemoryEventStore {
	return &MemoryEventStore{
		Config: cfg,
		Logger: log,
		now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

func (m *MemoryEventStore) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buffer == nil {
		m.buffer = NewRingBuffer(m.Config.Storage.MemoryCapacity)
		m.Logger.Info("In-memory journal keeps the last %d events", m.buffer.Capacity())
	}
	return nil
}

// -----------------------------------------------------------------------------

func (m *MemoryEventStore) SaveEvents(events []models.MConfluenceEvent) error {
	if len(events) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range events {
		m.nextID++
		e.ID = m.nextID
		e.OccurredAt = e.OccurredAt.UTC()
		tfs := make([]string, len(e.Timeframes))
		copy(tfs, e.Timeframes)
		e.Timeframes = tfs
		m.buffer.Append(e)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (m *MemoryEventStore) RecentEvents(limit int, kind models.EventKind) ([]models.MConfluenceEvent, error) {
	limit = clampLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if kind == "" {
		return m.buffer.GetLatest(limit), nil
	}

	out := make([]models.MConfluenceEvent, 0, limit)
	for _, e := range m.buffer.GetLatest(m.buffer.Size()) {
		if e.Kind != kind {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (m *MemoryEventStore) CleanupOldData() error {
	retentionDays := m.Config.Storage.RetentionDays
	cutoff := m.now().UTC().AddDate(0, 0, -retentionDays)

	m.mu.Lock()
	n := m.buffer.Retain(func(e models.MConfluenceEvent) bool { return !e.OccurredAt.Before(cutoff) })
	m.mu.Unlock()

	if n > 0 {
		m.Logger.Info("Cleanup removed %d events older than %d days", n, retentionDays)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (m *MemoryEventStore) Close() error {
	return nil
}
