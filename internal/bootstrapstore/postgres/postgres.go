package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FranksOps/domaincheck/internal/bootstrapstore"
	"github.com/FranksOps/domaincheck/internal/core"
)

var _ bootstrapstore.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS bootstrap_entries (
	tld TEXT PRIMARY KEY,
	url_template TEXT NOT NULL,
	source TEXT NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ
);
`

// New connects to a Postgres database at dsn and ensures the bootstrap
// cache table exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("context: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) LoadAll(ctx context.Context) ([]core.EndpointEntry, error) {
	rows, err := s.pool.Query(ctx, `SELECT tld, url_template, source, fetched_at, expires_at FROM bootstrap_entries`)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	defer rows.Close()

	var entries []core.EndpointEntry
	for rows.Next() {
		var e core.EndpointEntry
		var sourceStr string
		var expiresAt *time.Time
		if err := rows.Scan(&e.TLD, &e.URLTemplate, &sourceStr, &e.FetchedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("context: %w", err)
		}
		e.Source = core.EndpointSource(sourceStr)
		if expiresAt != nil {
			e.ExpiresAt = *expiresAt
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	return entries, nil
}

func (s *Store) SaveAll(ctx context.Context, entries []core.EndpointEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("context: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO bootstrap_entries (tld, url_template, source, fetched_at, expires_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tld) DO UPDATE SET
				url_template = EXCLUDED.url_template,
				source = EXCLUDED.source,
				fetched_at = EXCLUDED.fetched_at,
				expires_at = EXCLUDED.expires_at
		`, e.TLD, e.URLTemplate, string(e.Source), e.FetchedAt, nullableTime(e.ExpiresAt))

		if err != nil {
			return fmt.Errorf("context: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
