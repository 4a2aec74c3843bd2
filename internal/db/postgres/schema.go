package postgres

import (
	"context"
	"fmt"
)

// schema creates the tables when they are missing. On Supabase the tables
// already exist and every statement is a no-op.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS user_profiles (
		id                 TEXT PRIMARY KEY,
		email              TEXT NOT NULL DEFAULT '',
		plan               TEXT NOT NULL DEFAULT 'FREE',
		credits            INTEGER NOT NULL DEFAULT 5 CHECK (credits >= 0),
		last_credit_reset  TIMESTAMPTZ,
		stripe_customer_id TEXT,
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS user_profiles_email_idx ON user_profiles (lower(email))`,
	`CREATE INDEX IF NOT EXISTS user_profiles_customer_idx ON user_profiles (stripe_customer_id)`,
	`CREATE TABLE IF NOT EXISTS stripe_events (
		event_id   TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		user_id    TEXT,
		status     TEXT NOT NULL,
		payload    JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, q Querier) error {
	for i, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
