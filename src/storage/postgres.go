package storage

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"market-confluence/src/helpers"
	"market-confluence/src/logger"
	"market-confluence/src/models"

	_ "github.com/lib/pq"
)

var unsafeSchemaChars = regexp.MustCompile(`[^a-z0-9_]+`)

// -----------------------------------------------------------------------------

type PostgresEventStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
	now    func() time.Time
}

// -----------------------------------------------------------------------------

// NewPostgresEventStore keeps the journal in a schema named after the
// application.
func NewPostgresEventStore(cfg *models.MConfig, log *logger.Logger) (*PostgresEventStore, error) {
	if cfg.Storage.DBConnectionString == "" {
		return nil, helpers.NewConfigurationError("postgres event store", fmt.Errorf("db_connection_string is empty"))
	}
	return &PostgresEventStore{
		Config: cfg,
		Schema: SchemaName(cfg.Name),
		Logger: log,
		now:    time.Now,
	}, nil
}

// SchemaName lowercases name and replaces anything outside [a-z0-9_].
func SchemaName(name string) string {
	s := unsafeSchemaChars.ReplaceAllString(strings.ToLower(name), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "confluence"
	}
	return s
}

// -----------------------------------------------------------------------------

func (d *PostgresEventStore) Initialize() error {
	db, err := sql.Open("postgres", d.Config.Storage.DBConnectionString)
	if err != nil {
		return helpers.NewDatabaseError("open postgres", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping postgres", err)
	}
	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("create schema %s", d.Schema), err)
	}
	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresEventStore initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresEventStore) table() string {
	return fmt.Sprintf(`"%s"."confluence_events"`, d.Schema)
}

func (d *PostgresEventStore) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			kind TEXT NOT NULL,
			occurred_at BIGINT NOT NULL,
			date_key TEXT NOT NULL,
			impact TEXT,
			score DOUBLE PRECISION,
			timeframes TEXT,
			message TEXT
		);
	`, d.table())
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("create confluence_events", err)
	}

	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS confluence_events_occurred_idx ON %s (occurred_at)`, d.table())
	if _, err := d.DB.Exec(index); err != nil {
		return helpers.NewDatabaseError("create occurred_at index", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresEventStore) SaveEvents(events []models.MConfluenceEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("begin save events", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (kind, occurred_at, date_key, impact, score, timeframes, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.table())
	stmt, err := tx.Prepare(query)
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

func (d *PostgresEventStore) RecentEvents(limit int, kind models.EventKind) ([]models.MConfluenceEvent, error) {
	limit = clampLimit(limit)
	columns := "id, kind, occurred_at, date_key, impact, score, timeframes, message"

	var (
		rows *sql.Rows
		err  error
	)
	if kind == "" {
		rows, err = d.DB.Query(fmt.Sprintf(
			`SELECT %s FROM %s ORDER BY occurred_at DESC, id DESC LIMIT $1`, columns, d.table()), limit)
	} else {
		rows, err = d.DB.Query(fmt.Sprintf(
			`SELECT %s FROM %s WHERE kind = $1 ORDER BY occurred_at DESC, id DESC LIMIT $2`, columns, d.table()), string(kind), limit)
	}
	if err != nil {
		return nil, helpers.NewDatabaseError("query events", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresEventStore) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	cutoff := d.now().UTC().AddDate(0, 0, -retentionDays).UnixMilli()

	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM %s WHERE occurred_at < $1`, d.table()), cutoff); err != nil {
		d.Logger.Error("Cleanup confluence_events error: %v", err)
		return helpers.NewDatabaseError("cleanup events", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresEventStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
