// Package history provides SQLite-backed persistence for session history.
//
// The core only produces candidate entries; everything that reads them back
// (the CLI history listing) goes through this adapter.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/unhype/unhype/internal/domain/model"
	"github.com/unhype/unhype/pkg/metrics"
)

const schemaV1 = `
CREATE TABLE IF NOT EXISTS entries (
	id          TEXT PRIMARY KEY,
	action_type TEXT NOT NULL,
	input_text  TEXT NOT NULL,
	output_text TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);
`

// Store persists history entries in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and runs the schema
// migration.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	// WAL allows concurrent reads but SQLite still has a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schemaV1); err != nil {
		db.Close() //nolint:errcheck,gosec // already failing
		return nil, fmt.Errorf("migrate history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Append persists one entry. A missing ID or CreatedAt is filled in, matching
// the append-only contract: entries handed over are stored verbatim and never
// mutated afterwards.
func (s *Store) Append(ctx context.Context, entry model.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const q = `INSERT INTO entries (id, action_type, input_text, output_text, created_at)
VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		entry.ID,
		string(entry.ActionType),
		entry.InputText,
		entry.OutputText,
		entry.CreatedAt.Unix(),
	)
	if err != nil {
		metrics.RecordHistoryError()
		return fmt.Errorf("append history entry: %w", err)
	}
	metrics.RecordHistoryAppend()
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	const q = `SELECT id, action_type, input_text, output_text, created_at
FROM entries
ORDER BY created_at DESC, id
LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var action string
		var createdUnix int64
		if err := rows.Scan(&e.ID, &action, &e.InputText, &e.OutputText, &createdUnix); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.ActionType = model.Action(action)
		e.CreatedAt = time.Unix(createdUnix, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
