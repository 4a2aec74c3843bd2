// Package event describes processed Stripe webhook events.
package event

import (
	"encoding/json"
	"time"
)

// Status is the outcome stored for a webhook event.
type Status string

// Status values.
const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Record is an entry of the webhook event log.
type Record struct {
	ID        string          `json:"event_id"`
	Type      string          `json:"event_type"`
	UserID    string          `json:"user_id,omitempty"`
	Status    Status          `json:"status"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Final reports whether the event must not be processed again.
// Failed events stay retryable so Stripe's redelivery can fix them.
func (r Record) Final() bool {
	return r.Status == StatusProcessed || r.Status == StatusSkipped
}
