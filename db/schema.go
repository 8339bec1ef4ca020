package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// EnsureSchema creates one match table per collection if it is missing.
func EnsureSchema(ctx context.Context, db *sql.DB, collections []string) error {
	for _, c := range collections {
		table := pq.QuoteIdentifier(c)
		statusIndex := pq.QuoteIdentifier(c + "_status_idx")
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS ` + table + ` (
				id         TEXT PRIMARY KEY,
				status     TEXT NOT NULL,
				version    BIGINT NOT NULL DEFAULT 1,
				scorers    TEXT[] NOT NULL DEFAULT '{}',
				document   JSONB NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS ` + statusIndex + ` ON ` + table + ` (status)`,
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to ensure schema for %s: %w", c, err)
			}
		}
	}
	return nil
}
