// Package account stores the credit ledger in Redis/Valkey hashes or in Postgres.
package account

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jobxpress/creditgate/internal/db"
	"github.com/jobxpress/creditgate/internal/domain"
	"github.com/jobxpress/creditgate/internal/domain/account"
)

// store is the consumer interface for accounts (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	RunScript(ctx context.Context, src string, keys, args []string) (int64, error)
}

// debitScript subtracts ARGV[1] credits when the balance allows it.
// Reply: the remaining balance, -1 when the account is missing,
// or -2-available when the balance is too low.
const debitScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
local credits = tonumber(redis.call('HGET', KEYS[1], 'credits') or '0')
local cost = tonumber(ARGV[1])
if credits < cost then
  return -2 - credits
end
redis.call('HSET', KEYS[1], 'credits', credits - cost, 'updated_at', ARGV[2])
return credits - cost
`

// Repo implements usecase/billing.Repository on a hash store.
type Repo struct {
	store  store
	prefix string
	now    func() time.Time
}

// New creates an account repository. prefix namespaces every key, e.g. "creditgate:".
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix, now: time.Now}
}

// Get loads an account.
func (r *Repo) Get(ctx context.Context, userID string) (account.Account, error) {
	m, err := r.store.HGetAll(ctx, r.accountKey(userID))
	if err != nil {
		return account.Account{}, fmt.Errorf("get account %s: %w", userID, err)
	}
	if len(m) == 0 {
		return account.Account{}, domain.ErrNotFound
	}
	a, err := accountFromHash(m)
	if err != nil {
		return account.Account{}, fmt.Errorf("decode account %s: %w", userID, err)
	}
	if a.UserID == "" {
		a.UserID = userID
	}
	return a, nil
}

// Save writes the whole account and refreshes the email/customer lookup keys.
func (r *Repo) Save(ctx context.Context, a account.Account) error {
	if err := r.store.HSet(ctx, r.accountKey(a.UserID), accountToHash(a)); err != nil {
		return fmt.Errorf("save account %s: %w", a.UserID, err)
	}
	if a.Email != "" {
		if err := r.store.Set(ctx, r.emailKey(a.Email), []byte(a.UserID)); err != nil {
			return fmt.Errorf("index email: %w", err)
		}
	}
	if a.StripeCustomerID != "" {
		if err := r.store.Set(ctx, r.customerKey(a.StripeCustomerID), []byte(a.UserID)); err != nil {
			return fmt.Errorf("index customer: %w", err)
		}
	}
	return nil
}

// SetEmail writes only the email field and its lookup key. Concurrent debits are untouched.
func (r *Repo) SetEmail(ctx context.Context, userID, email string) error {
	fields := map[string]string{
		"email":      email,
		"updated_at": formatMillis(r.now()),
	}
	if err := r.store.HSet(ctx, r.accountKey(userID), fields); err != nil {
		return fmt.Errorf("set email %s: %w", userID, err)
	}
	if err := r.store.Set(ctx, r.emailKey(email), []byte(userID)); err != nil {
		return fmt.Errorf("index email: %w", err)
	}
	return nil
}

// Debit atomically subtracts cost and returns the remaining balance.
func (r *Repo) Debit(ctx context.Context, userID string, cost int) (int, error) {
	n, err := r.store.RunScript(ctx, debitScript,
		[]string{r.accountKey(userID)},
		[]string{strconv.Itoa(cost), strconv.FormatInt(r.now().UnixMilli(), 10)},
	)
	if err != nil {
		return 0, fmt.Errorf("debit %s: %w", userID, err)
	}
	switch {
	case n == -1:
		return 0, domain.ErrNotFound
	case n < -1:
		return 0, domain.NewInsufficientCredits(cost, int(-2-n))
	}
	return int(n), nil
}

// FindByEmail resolves a user id from an email address (case-insensitive).
func (r *Repo) FindByEmail(ctx context.Context, email string) (string, error) {
	return r.lookup(ctx, r.emailKey(email))
}

// FindByCustomer resolves a user id from a Stripe customer id.
func (r *Repo) FindByCustomer(ctx context.Context, customerID string) (string, error) {
	return r.lookup(ctx, r.customerKey(customerID))
}

func (r *Repo) lookup(ctx context.Context, key string) (string, error) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("lookup %s: %w", key, err)
	}
	return string(data), nil
}

func (r *Repo) accountKey(userID string) string {
	return r.prefix + "account:" + userID
}

func (r *Repo) emailKey(email string) string {
	return r.prefix + "account:email:" + strings.ToLower(strings.TrimSpace(email))
}

func (r *Repo) customerKey(customerID string) string {
	return r.prefix + "account:customer:" + customerID
}
