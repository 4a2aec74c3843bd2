package advice

import (
	"context"

	"github.com/jobxpress/creditgate/internal/domain"
)

// Ledger is the billing subset advice generation needs.
type Ledger interface {
	CanSpend(ctx context.Context, userID string, cost int) (bool, int, error)
	DebitAdvice(ctx context.Context, userID string) (int, error)
}

// Advisor generates the advice text.
type Advisor interface {
	Advise(ctx context.Context, req domain.AdviceRequest) (domain.AdviceResult, error)
}
