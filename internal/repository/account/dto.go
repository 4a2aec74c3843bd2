package account

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jobxpress/creditgate/internal/domain/account"
	"github.com/jobxpress/creditgate/internal/domain/plan"
)

// accountToHash converts an Account to a map for HSET. Timestamps are unix milliseconds.
func accountToHash(a account.Account) map[string]string {
	return map[string]string{
		"user_id":            a.UserID,
		"email":              a.Email,
		"plan":               string(a.Plan),
		"credits":            strconv.Itoa(a.Credits),
		"last_reset":         formatMillis(a.LastReset),
		"stripe_customer_id": a.StripeCustomerID,
		"updated_at":         formatMillis(a.UpdatedAt),
	}
}

// accountFromHash hydrates an Account from an HGETALL result map.
func accountFromHash(m map[string]string) (account.Account, error) {
	credits, err := strconv.Atoi(m["credits"])
	if err != nil {
		return account.Account{}, fmt.Errorf("invalid credits: %w", err)
	}
	lastReset, err := parseMillis(m["last_reset"])
	if err != nil {
		return account.Account{}, fmt.Errorf("invalid last_reset: %w", err)
	}
	updatedAt, err := parseMillis(m["updated_at"])
	if err != nil {
		return account.Account{}, fmt.Errorf("invalid updated_at: %w", err)
	}

	p := plan.Plan(m["plan"])
	if !p.IsValid() {
		p = plan.Free
	}

	return account.Account{
		UserID:           m["user_id"],
		Email:            m["email"],
		Plan:             p,
		Credits:          credits,
		LastReset:        lastReset,
		StripeCustomerID: m["stripe_customer_id"],
		UpdatedAt:        updatedAt,
	}, nil
}

func formatMillis(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseMillis(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
