package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jobxpress/creditgate/internal/db/postgres"
	domevent "github.com/jobxpress/creditgate/internal/domain/event"
)

const (
	querySelectEvent = `
		SELECT event_id, event_type, COALESCE(user_id, ''), status, created_at
		FROM stripe_events
		WHERE event_id = $1`

	queryUpsertEvent = `
		INSERT INTO stripe_events (event_id, event_type, user_id, status, payload, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		ON CONFLICT (event_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			status = EXCLUDED.status,
			payload = EXCLUDED.payload`
)

// PostgresRepo implements usecase/webhook.EventLog on the stripe_events table.
type PostgresRepo struct {
	db postgres.Querier
}

// NewPostgres creates a Postgres-backed event log.
func NewPostgres(q postgres.Querier) *PostgresRepo {
	return &PostgresRepo{db: q}
}

// Get returns the stored record for an event id. The payload is not loaded.
func (r *PostgresRepo) Get(ctx context.Context, eventID string) (domevent.Record, bool, error) {
	var (
		rec    domevent.Record
		status string
	)
	err := r.db.QueryRow(ctx, querySelectEvent, eventID).Scan(
		&rec.ID,
		&rec.Type,
		&rec.UserID,
		&status,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domevent.Record{}, false, nil
		}
		return domevent.Record{}, false, fmt.Errorf("get event %s: %w", eventID, err)
	}
	rec.Status = domevent.Status(status)
	return rec, true, nil
}

// Record stores the outcome of an event, replacing a previous failed attempt.
func (r *PostgresRepo) Record(ctx context.Context, rec domevent.Record) error {
	var payload []byte
	if len(rec.Payload) > 0 {
		payload = rec.Payload
	}
	_, err := r.db.Exec(ctx, queryUpsertEvent,
		rec.ID, rec.Type, rec.UserID, string(rec.Status), payload, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("record event %s: %w", rec.ID, err)
	}
	return nil
}
