package gate

import (
	"context"

	"github.com/jobxpress/creditgate/internal/domain/credits"
)

// CreditsSource provides the credit snapshot of a user.
type CreditsSource interface {
	Snapshot(ctx context.Context, userID string) (credits.Snapshot, error)
}
