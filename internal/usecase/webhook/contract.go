package webhook

import (
	"context"

	"github.com/jobxpress/creditgate/internal/domain/account"
	"github.com/jobxpress/creditgate/internal/domain/event"
	"github.com/jobxpress/creditgate/internal/domain/plan"
)

// Accounts is the billing surface the webhook drives.
type Accounts interface {
	FindUserByEmail(ctx context.Context, email string) (string, error)
	FindUserByCustomer(ctx context.Context, customerID string) (string, error)
	ChangePlan(ctx context.Context, userID string, p plan.Plan, customerID string) (account.Account, error)
	Downgrade(ctx context.Context, userID string) (account.Account, error)
	Refill(ctx context.Context, userID string) (account.Account, error)
}

// EventLog remembers which events were handled.
type EventLog interface {
	Get(ctx context.Context, eventID string) (event.Record, bool, error)
	Record(ctx context.Context, rec event.Record) error
}
