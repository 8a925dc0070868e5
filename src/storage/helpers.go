package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"market-confluence/src/helpers"
	"market-confluence/src/interfaces"
	"market-confluence/src/logger"
	"market-confluence/src/models"
)

const (
	defaultRecentLimit = 100
	maxRecentLimit     = 1000
)

// -----------------------------------------------------------------------------

// NewEventStore picks the journal backend from the storage config. The
// "none" type returns a nil store and no error.
func NewEventStore(cfg *models.MConfig, log *logger.Logger) (interfaces.IEventStore, error) {
	switch cfg.Storage.DBType {
	case "none":
		return nil, nil
	case "memory":
		return NewMemoryEventStore(cfg, log), nil
	case "postgres":
		store, err := NewPostgresEventStore(cfg, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite", "":
		store, err := NewSQLiteEventStore(cfg, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, helpers.NewConfigurationError("event store", fmt.Errorf("unknown db_type %q", cfg.Storage.DBType))
}

// -----------------------------------------------------------------------------

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return maxRecentLimit
	}
	return limit
}

func joinTimeframes(tfs []string) string { return strings.Join(tfs, ",") }

func splitTimeframes(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

// scanEvents reads rows shaped (id, kind, occurred_at ms, date_key, impact,
// score, timeframes, message).
func scanEvents(rows *sql.Rows) ([]models.MConfluenceEvent, error) {
	out := []models.MConfluenceEvent{}
	for rows.Next() {
		var (
			e          models.MConfluenceEvent
			kind       string
			occurredMs int64
			impact     sql.NullString
			score      sql.NullFloat64
			tfs        sql.NullString
			message    sql.NullString
		)
		if err := rows.Scan(&e.ID, &kind, &occurredMs, &e.DateKey, &impact, &score, &tfs, &message); err != nil {
			return nil, helpers.NewDatabaseError("scan event", err)
		}
		e.Kind = models.EventKind(kind)
		e.OccurredAt = time.UnixMilli(occurredMs).UTC()
		e.Impact = impact.String
		e.Score = score.Float64
		e.Timeframes = splitTimeframes(tfs.String)
		e.Message = message.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("iterate events", err)
	}
	return out, nil
}
