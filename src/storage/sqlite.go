package storage

import (
	"database/sql"
	"fmt"
	"time"

	"market-confluence/src/helpers"
	"market-confluence/src/logger"
	"market-confluence/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteEventStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
	now    func() time.Time
}

// -----------------------------------------------------------------------------

func NewSQLiteEventStore(cfg *models.MConfig, log *logger.Logger) (*SQLiteEventStore, error) {
	if cfg.Storage.DBPath == "" {
		return nil, helpers.NewConfigurationError("sqlite event store", fmt.Errorf("db_path is empty"))
	}
	return &SQLiteEventStore{
		Config: cfg,
		Logger: log,
		now:    time.Now,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteEventStore) Initialize() error {
	db, err := sql.Open("sqlite", d.Config.Storage.DBPath)
	if err != nil {
		return helpers.NewDatabaseError("open sqlite", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping sqlite", err)
	}
	// a single writer avoids SQLITE_BUSY between the scheduler and HTTP reads
	db.SetMaxOpenConns(1)
	d.DB = db

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteEventStore) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS confluence_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			occurred_at INTEGER NOT NULL,
			date_key TEXT NOT NULL,
			impact TEXT,
			score REAL,
			timeframes TEXT,
			message TEXT
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("create confluence_events", err)
	}
	if _, err := d.DB.Exec(`CREATE INDEX IF NOT EXISTS idx_confluence_events_occurred ON confluence_events (occurred_at)`); err != nil {
		return helpers.NewDatabaseError("create occurred_at index", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteEventStore) SaveEvents(events []models.MConfluenceEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("begin save events", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO confluence_events (kind, occurred_at, date_key, impact, score, timeframes, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return helpers.NewDatabaseError("prepare save events", err)
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.Exec(string(e.Kind), e.OccurredAt.UTC().UnixMilli(), e.DateKey, e.Impact, e.Score, joinTimeframes(e.Timeframes), e.Message)
		if err != nil {
			return helpers.NewDatabaseError("insert event", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewDatabaseError("commit save events", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteEventStore) RecentEvents(limit int, kind models.EventKind) ([]models.MConfluenceEvent, error) {
	limit = clampLimit(limit)

	var (
		rows *sql.Rows
		err  error
	)
	if kind == "" {
		rows, err = d.DB.Query(`
			SELECT id, kind, occurred_at, date_key, impact, score, timeframes, message
			FROM confluence_events ORDER BY occurred_at DESC, id DESC LIMIT ?`, limit)
	} else {
		rows, err = d.DB.Query(`
			SELECT id, kind, occurred_at, date_key, impact, score, timeframes, message
			FROM confluence_events WHERE kind = ? ORDER BY occurred_at DESC, id DESC LIMIT ?`, string(kind), limit)
	}
	if err != nil {
		return nil, helpers.NewDatabaseError("query events", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteEventStore) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	cutoff := d.now().UTC().AddDate(0, 0, -retentionDays).UnixMilli()

	res, err := d.DB.Exec("DELETE FROM confluence_events WHERE occurred_at < ?", cutoff)
	if err != nil {
		d.Logger.Error("Cleanup confluence_events error: %v", err)
		return helpers.NewDatabaseError("cleanup events", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		d.Logger.Info("Cleanup removed %d events older than %d days", n, retentionDays)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteEventStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
