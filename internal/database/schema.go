package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent; it runs on every API start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id                TEXT PRIMARY KEY,
		email             TEXT NOT NULL,
		password_hash     BYTEA NOT NULL,
		name              TEXT NOT NULL,
		organization_name TEXT NOT NULL DEFAULT '',
		phone_number      TEXT NOT NULL DEFAULT '',
		address           TEXT NOT NULL DEFAULT '',
		description       TEXT NOT NULL DEFAULT '',
		avatar_key        TEXT,
		role              TEXT NOT NULL,
		status            TEXT NOT NULL,
		reviewed_by       TEXT,
		reviewed_at       TIMESTAMPTZ,
		rejection_reason  TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_key ON accounts (email)`,
	`CREATE INDEX IF NOT EXISTS accounts_role_status_idx ON accounts (role, status)`,
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
