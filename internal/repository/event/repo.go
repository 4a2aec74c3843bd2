// Package event stores the Stripe webhook event log used for idempotence.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jobxpress/creditgate/internal/db"
	domevent "github.com/jobxpress/creditgate/internal/domain/event"
)

// store is the consumer interface for the event log (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo implements usecase/webhook.EventLog with JSON values under expiring keys.
// Stripe stops retrying after three days, so the TTL only needs to outlive that.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates an event log repository.
func New(s store, prefix string, ttl time.Duration) *Repo {
	return &Repo{store: s, prefix: prefix, ttl: ttl}
}

// Get returns the stored record for an event id.
func (r *Repo) Get(ctx context.Context, eventID string) (domevent.Record, bool, error) {
	data, err := r.store.Get(ctx, r.key(eventID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domevent.Record{}, false, nil
		}
		return domevent.Record{}, false, fmt.Errorf("get event %s: %w", eventID, err)
	}
	var rec domevent.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return domevent.Record{}, false, fmt.Errorf("decode event %s: %w", eventID, err)
	}
	return rec, true, nil
}

// Record stores the outcome of an event, replacing a previous failed attempt.
func (r *Repo) Record(ctx context.Context, rec domevent.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", rec.ID, err)
	}
	if err := r.store.SetWithTTL(ctx, r.key(rec.ID), data, r.ttl); err != nil {
		return fmt.Errorf("record event %s: %w", rec.ID, err)
	}
	return nil
}

func (r *Repo) key(eventID string) string {
	return r.prefix + "stripe:event:" + eventID
}
