package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS records (
	kind          TEXT NOT NULL,
	id            TEXT NOT NULL,
	attributes    TEXT NOT NULL,
	relationships TEXT NOT NULL,
	fetched_at    TEXT NOT NULL,
	PRIMARY KEY (kind, id)
)`

const upsertRecord = `
INSERT INTO records (kind, id, attributes, relationships, fetched_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (kind, id) DO UPDATE SET
	attributes = excluded.attributes,
	relationships = excluded.relationships,
	fetched_at = excluded.fetched_at`

// SQLiteSink upserts objects into a records table keyed by (kind, id).
type SQLiteSink struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewSQLiteSink opens (or creates) the database at path.
func NewSQLiteSink(ctx context.Context, path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.ExecContext(ctx, createRecordsTable); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("creating records table: %w", err)
	}

	return &SQLiteSink{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file.
func (s *SQLiteSink) Path() string {
	return s.path
}

// Write upserts obj.
func (s *SQLiteSink) Write(ctx context.Context, obj *pco.Object) error {
	entry := NewEntry(obj, s.now())

	attrs, err := marshalColumn(entry.Attributes)
	if err != nil {
		return err
	}

	rels, err := marshalColumn(entry.Relationships)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, upsertRecord,
		entry.Kind, entry.ID, attrs, rels, entry.FetchedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing %s %s: %w", entry.Kind, entry.ID, err)
	}

	return nil
}

// Count returns the number of stored records of kind.
func (s *SQLiteSink) Count(ctx context.Context, kind string) (int, error) {
	var n int

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE kind = ?", kind).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s records: %w", kind, err)
	}

	return n, nil
}

// Attributes returns the stored attribute JSON of one record.
func (s *SQLiteSink) Attributes(ctx context.Context, kind, id string) (string, error) {
	var attrs string

	err := s.db.QueryRowContext(ctx,
		"SELECT attributes FROM records WHERE kind = ? AND id = ?", kind, id).Scan(&attrs)
	if err != nil {
		return "", fmt.Errorf("reading %s %s: %w", kind, id, err)
	}

	return attrs, nil
}

// Close closes the database connection.
func (s *SQLiteSink) Close() error {
	if s.db == nil {
		return nil
	}

	return s.db.Close()
}

func marshalColumn(value interface{}) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal column: %w", err)
	}

	return string(data), nil
}
