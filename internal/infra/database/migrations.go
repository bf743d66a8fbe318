package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS owners (
		telegram_id   BIGINT PRIMARY KEY,
		username      TEXT NOT NULL DEFAULT '',
		premium_until TIMESTAMPTZ NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS tracked_items (
		id                   UUID PRIMARY KEY,
		owner_id             BIGINT NOT NULL REFERENCES owners (telegram_id) ON DELETE CASCADE,
		display_name         TEXT NOT NULL,
		category             TEXT NOT NULL DEFAULT '',
		purchase_date        DATE NOT NULL,
		expiration_date      DATE NOT NULL CHECK (expiration_date >= purchase_date),
		notified_thresholds  INTEGER[] NOT NULL DEFAULT '{}',
		attempted_thresholds INTEGER[] NOT NULL DEFAULT '{}',
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`ALTER TABLE tracked_items ADD COLUMN IF NOT EXISTS attempted_thresholds INTEGER[] NOT NULL DEFAULT '{}'`,
	`CREATE INDEX IF NOT EXISTS tracked_items_owner_expiration_idx ON tracked_items (owner_id, expiration_date)`,
	`CREATE INDEX IF NOT EXISTS tracked_items_expiration_idx ON tracked_items (expiration_date)`,
}

// EnsureSchema creates the tables and indexes if they do not exist yet and adds
// columns introduced after the first release.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
