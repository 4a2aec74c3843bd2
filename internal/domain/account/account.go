// Package account holds the per-user credit ledger entry.
package account

import (
	"time"

	"github.com/jobxpress/creditgate/internal/domain/credits"
	"github.com/jobxpress/creditgate/internal/domain/plan"
)

// Account is a user's plan and remaining credits.
type Account struct {
	UserID           string
	Email            string
	Plan             plan.Plan
	Credits          int
	LastReset        time.Time
	StripeCustomerID string
	UpdatedAt        time.Time
}

// NewFree provisions a free account with a full allotment.
func NewFree(userID, email string, now time.Time) Account {
	return Account{
		UserID:    userID,
		Email:     email,
		Plan:      plan.Free,
		Credits:   plan.Lookup(plan.Free).Credits,
		LastReset: now,
		UpdatedAt: now,
	}
}

// NextResetAt returns LastReset plus the plan's reset period. Zero if LastReset is unknown.
func (a Account) NextResetAt() time.Time {
	if a.LastReset.IsZero() {
		return time.Time{}
	}
	return a.LastReset.AddDate(0, 0, plan.Lookup(a.Plan).ResetDays)
}

// DueForReset reports whether the lazy weekly refill applies.
// Only the free plan refills lazily; paid plans refill on invoice payment.
func (a Account) DueForReset(now time.Time) bool {
	if a.Plan != plan.Free || a.LastReset.IsZero() {
		return false
	}
	return !now.Before(a.NextResetAt())
}

// Refill restores the plan allotment and restarts the period at now.
func (a Account) Refill(now time.Time) Account {
	a.Credits = plan.Lookup(a.Plan).Credits
	a.LastReset = now
	a.UpdatedAt = now
	return a
}

// SwitchPlan moves the account to p and refills it.
func (a Account) SwitchPlan(p plan.Plan, now time.Time) Account {
	a.Plan = p
	return a.Refill(now)
}

// Snapshot converts the account into the gate's read-only view.
// Negative balances from a corrupted store are clamped to zero.
func (a Account) Snapshot() credits.Snapshot {
	n := a.Credits
	if n < 0 {
		n = 0
	}
	s, _ := credits.New(a.Plan, n, a.NextResetAt())
	return s
}
