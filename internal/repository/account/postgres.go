package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jobxpress/creditgate/internal/db/postgres"
	"github.com/jobxpress/creditgate/internal/domain"
	"github.com/jobxpress/creditgate/internal/domain/account"
	"github.com/jobxpress/creditgate/internal/domain/plan"
)

const (
	querySelectAccount = `
		SELECT id, email, plan, credits, last_credit_reset, stripe_customer_id, updated_at
		FROM user_profiles
		WHERE id = $1`

	queryUpsertAccount = `
		INSERT INTO user_profiles (id, email, plan, credits, last_credit_reset, stripe_customer_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			plan = EXCLUDED.plan,
			credits = EXCLUDED.credits,
			last_credit_reset = EXCLUDED.last_credit_reset,
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			updated_at = EXCLUDED.updated_at`

	queryDebit = `
		UPDATE user_profiles
		SET credits = credits - $2, updated_at = now()
		WHERE id = $1 AND credits >= $2
		RETURNING credits`

	queryUpdateEmail = `UPDATE user_profiles SET email = $2, updated_at = now() WHERE id = $1`

	querySelectCredits = `SELECT credits FROM user_profiles WHERE id = $1`

	queryFindByEmail = `SELECT id FROM user_profiles WHERE lower(email) = lower($1) LIMIT 1`

	queryFindByCustomer = `SELECT id FROM user_profiles WHERE stripe_customer_id = $1 LIMIT 1`
)

// PostgresRepo implements usecase/billing.Repository on the user_profiles table.
type PostgresRepo struct {
	db postgres.Querier
}

// NewPostgres creates a Postgres-backed account repository.
func NewPostgres(q postgres.Querier) *PostgresRepo {
	return &PostgresRepo{db: q}
}

// Get loads an account.
func (r *PostgresRepo) Get(ctx context.Context, userID string) (account.Account, error) {
	var (
		a          account.Account
		email      *string
		p          string
		lastReset  *time.Time
		customerID *string
	)
	err := r.db.QueryRow(ctx, querySelectAccount, userID).Scan(
		&a.UserID,
		&email,
		&p,
		&a.Credits,
		&lastReset,
		&customerID,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, domain.ErrNotFound
		}
		return account.Account{}, fmt.Errorf("get account %s: %w", userID, err)
	}

	if email != nil {
		a.Email = *email
	}
	a.Plan = plan.Plan(p)
	if !a.Plan.IsValid() {
		a.Plan = plan.Free
	}
	if lastReset != nil {
		a.LastReset = lastReset.UTC()
	}
	if customerID != nil {
		a.StripeCustomerID = *customerID
	}
	return a, nil
}

// Save upserts the whole account.
func (r *PostgresRepo) Save(ctx context.Context, a account.Account) error {
	var lastReset *time.Time
	if !a.LastReset.IsZero() {
		lastReset = &a.LastReset
	}
	var customerID *string
	if a.StripeCustomerID != "" {
		customerID = &a.StripeCustomerID
	}
	updatedAt := a.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, queryUpsertAccount,
		a.UserID, a.Email, string(a.Plan), a.Credits, lastReset, customerID, updatedAt)
	if err != nil {
		return fmt.Errorf("save account %s: %w", a.UserID, err)
	}
	return nil
}

// SetEmail updates only the email column.
func (r *PostgresRepo) SetEmail(ctx context.Context, userID, email string) error {
	tag, err := r.db.Exec(ctx, queryUpdateEmail, userID, email)
	if err != nil {
		return fmt.Errorf("set email %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Debit atomically subtracts cost and returns the remaining balance.
func (r *PostgresRepo) Debit(ctx context.Context, userID string, cost int) (int, error) {
	var remaining int
	err := r.db.QueryRow(ctx, queryDebit, userID, cost).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("debit %s: %w", userID, err)
	}

	// No row updated: either the account is missing or the balance is too low.
	var available int
	if err := r.db.QueryRow(ctx, querySelectCredits, userID).Scan(&available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("debit %s: %w", userID, err)
	}
	return 0, domain.NewInsufficientCredits(cost, available)
}

// FindByEmail resolves a user id from an email address (case-insensitive).
func (r *PostgresRepo) FindByEmail(ctx context.Context, email string) (string, error) {
	return r.findID(ctx, queryFindByEmail, email)
}

// FindByCustomer resolves a user id from a Stripe customer id.
func (r *PostgresRepo) FindByCustomer(ctx context.Context, customerID string) (string, error) {
	return r.findID(ctx, queryFindByCustomer, customerID)
}

func (r *PostgresRepo) findID(ctx context.Context, query, arg string) (string, error) {
	var id string
	if err := r.db.QueryRow(ctx, query, arg).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("find account: %w", err)
	}
	return id, nil
}
