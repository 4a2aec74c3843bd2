package billing

import (
	"context"

	"github.com/jobxpress/creditgate/internal/domain/account"
)

// Repository persists the credit ledger.
type Repository interface {
	Get(ctx context.Context, userID string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	// SetEmail writes the email alone, leaving the balance as stored.
	SetEmail(ctx context.Context, userID, email string) error
	// Debit atomically subtracts cost. It never leaves a negative balance.
	Debit(ctx context.Context, userID string, cost int) (int, error)
	FindByEmail(ctx context.Context, email string) (string, error)
	FindByCustomer(ctx context.Context, customerID string) (string, error)
}
