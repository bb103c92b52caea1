package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/FranksOps/domaincheck/internal/bootstrapstore"
	"github.com/FranksOps/domaincheck/internal/core"
)

var _ bootstrapstore.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS bootstrap_entries (
	tld TEXT PRIMARY KEY,
	url_template TEXT NOT NULL,
	source TEXT NOT NULL,
	fetched_at DATETIME NOT NULL,
	expires_at DATETIME
);
`

// New opens a SQLite database at dsn and ensures the bootstrap cache table
// exists. dsn can be a file path or ":memory:" for tests.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("context: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) LoadAll(ctx context.Context) ([]core.EndpointEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tld, url_template, source, fetched_at, expires_at FROM bootstrap_entries`)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	defer rows.Close()

	var entries []core.EndpointEntry
	for rows.Next() {
		var e core.EndpointEntry
		var sourceStr string
		var expiresAt sql.NullTime
		if err := rows.Scan(&e.TLD, &e.URLTemplate, &sourceStr, &e.FetchedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("context: %w", err)
		}
		e.Source = core.EndpointSource(sourceStr)
		if expiresAt.Valid {
			e.ExpiresAt = expiresAt.Time
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	return entries, nil
}

func (s *Store) SaveAll(ctx context.Context, entries []core.EndpointEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("context: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bootstrap_entries (tld, url_template, source, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (tld) DO UPDATE SET
			url_template = excluded.url_template,
			source = excluded.source,
			fetched_at = excluded.fetched_at,
			expires_at = excluded.expires_at
	`)
	if err != nil {
		return fmt.Errorf("context: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.TLD, e.URLTemplate, string(e.Source), e.FetchedAt, nullableTime(e.ExpiresAt)); err != nil {
			return fmt.Errorf("context: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
