// Package billing owns the credit ledger: balances, debits and plan changes.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jobxpress/creditgate/internal/domain"
	"github.com/jobxpress/creditgate/internal/domain/account"
	"github.com/jobxpress/creditgate/internal/domain/credits"
	"github.com/jobxpress/creditgate/internal/domain/plan"
	"github.com/jobxpress/creditgate/internal/metrics"
)

// Debit reasons, used as metric labels.
const (
	ReasonSearch = "search"
	ReasonAdvice = "advice"
)

// Service implements billing operations.
type Service struct {
	repo      Repository
	logger    *zap.Logger
	lazyReset bool
	now       func() time.Time
}

// New creates a billing service with the lazy free-plan reset enabled.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		logger:    logger,
		lazyReset: true,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithLazyReset toggles the weekly free-plan refill on read.
func (s *Service) WithLazyReset(enabled bool) *Service {
	s.lazyReset = enabled
	return s
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Provision loads the account, creating a free one when missing.
// A non-empty email is stored when the account has none yet.
func (s *Service) Provision(ctx context.Context, userID, email string) (account.Account, error) {
	a, err := s.load(ctx, userID)
	if err != nil {
		return account.Account{}, err
	}
	if email != "" && a.Email == "" {
		if err := s.repo.SetEmail(ctx, userID, email); err != nil {
			return account.Account{}, fmt.Errorf("save email: %w", err)
		}
		a.Email = email
	}
	return a, nil
}

// Account returns the current account.
func (s *Service) Account(ctx context.Context, userID string) (account.Account, error) {
	return s.load(ctx, userID)
}

// Lookup returns a stored account without provisioning or resetting it.
// A missing account is domain.ErrNotFound.
func (s *Service) Lookup(ctx context.Context, userID string) (account.Account, error) {
	a, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return account.Account{}, err
		}
		return account.Account{}, fmt.Errorf("load account: %w", err)
	}
	return a, nil
}

// Credits returns the dashboard view of the account.
func (s *Service) Credits(ctx context.Context, userID string) (account.View, error) {
	a, err := s.load(ctx, userID)
	if err != nil {
		return account.View{}, err
	}
	return account.NewView(a, s.now()), nil
}

// Snapshot returns the read-only credit snapshot the gate consumes.
func (s *Service) Snapshot(ctx context.Context, userID string) (credits.Snapshot, error) {
	a, err := s.load(ctx, userID)
	if err != nil {
		return credits.Snapshot{}, err
	}
	return a.Snapshot(), nil
}

// CanSpend reports whether the balance covers cost, and the current balance.
func (s *Service) CanSpend(ctx context.Context, userID string, cost int) (bool, int, error) {
	a, err := s.load(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	if a.Credits >= cost {
		metrics.CreditChecksTotal.WithLabelValues("allowed").Inc()
		return true, a.Credits, nil
	}

	metrics.CreditChecksTotal.WithLabelValues("refused").Inc()
	s.logger.Warn("Insufficient credits",
		zap.String("user_id", userID),
		zap.String("plan", string(a.Plan)),
		zap.Int("credits", a.Credits),
		zap.Int("cost", cost),
	)
	return false, a.Credits, nil
}

// DebitSearch charges a search. Searches without results are free.
func (s *Service) DebitSearch(ctx context.Context, userID string, results int) (int, error) {
	if results <= 0 {
		a, err := s.load(ctx, userID)
		if err != nil {
			return 0, err
		}
		domain.SpendFromContext(ctx).Record(0, a.Credits)
		return a.Credits, nil
	}
	return s.debit(ctx, userID, plan.SearchCost, ReasonSearch)
}

// DebitAdvice charges an interview advice generation.
func (s *Service) DebitAdvice(ctx context.Context, userID string) (int, error) {
	return s.debit(ctx, userID, plan.AdviceCost, ReasonAdvice)
}

func (s *Service) debit(ctx context.Context, userID string, cost int, reason string) (int, error) {
	// Loading first provisions missing accounts and applies a due reset.
	if _, err := s.load(ctx, userID); err != nil {
		return 0, err
	}

	remaining, err := s.repo.Debit(ctx, userID, cost)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			s.logger.Warn("Debit refused",
				zap.String("user_id", userID),
				zap.String("reason", reason),
				zap.Error(err),
			)
			return 0, err
		}
		return 0, fmt.Errorf("debit %s: %w", reason, err)
	}

	metrics.CreditsDebitedTotal.WithLabelValues(reason).Add(float64(cost))
	domain.SpendFromContext(ctx).Record(cost, remaining)
	s.logger.Info("Credits debited",
		zap.String("user_id", userID),
		zap.String("reason", reason),
		zap.Int("cost", cost),
		zap.Int("remaining", remaining),
	)
	return remaining, nil
}

// ChangePlan moves the user to p, refills the allotment and restarts the period.
// A non-empty customerID replaces the stored Stripe customer.
func (s *Service) ChangePlan(ctx context.Context, userID string, p plan.Plan, customerID string) (account.Account, error) {
	if !p.IsValid() {
		return account.Account{}, fmt.Errorf("%w: %q", domain.ErrUnknownPlan, p)
	}
	a, err := s.load(ctx, userID)
	if err != nil {
		return account.Account{}, err
	}

	previous := a.Plan
	a = a.SwitchPlan(p, s.now())
	if customerID != "" {
		a.StripeCustomerID = customerID
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return account.Account{}, fmt.Errorf("save plan change: %w", err)
	}

	metrics.PlanChangesTotal.WithLabelValues(string(p)).Inc()
	s.logger.Info("Plan changed",
		zap.String("user_id", userID),
		zap.String("from", string(previous)),
		zap.String("to", string(p)),
		zap.Int("credits", a.Credits),
	)
	return a, nil
}

// Downgrade moves the user back to the free plan.
func (s *Service) Downgrade(ctx context.Context, userID string) (account.Account, error) {
	return s.ChangePlan(ctx, userID, plan.Free, "")
}

// Refill restores the allotment of the current plan.
func (s *Service) Refill(ctx context.Context, userID string) (account.Account, error) {
	a, err := s.load(ctx, userID)
	if err != nil {
		return account.Account{}, err
	}
	a = a.Refill(s.now())
	if err := s.repo.Save(ctx, a); err != nil {
		return account.Account{}, fmt.Errorf("save refill: %w", err)
	}
	s.logger.Info("Credits refilled",
		zap.String("user_id", userID),
		zap.String("plan", string(a.Plan)),
		zap.Int("credits", a.Credits),
	)
	return a, nil
}

// FindUserByEmail resolves a user id from an email address.
func (s *Service) FindUserByEmail(ctx context.Context, email string) (string, error) {
	return s.repo.FindByEmail(ctx, email)
}

// FindUserByCustomer resolves a user id from a Stripe customer id.
func (s *Service) FindUserByCustomer(ctx context.Context, customerID string) (string, error) {
	return s.repo.FindByCustomer(ctx, customerID)
}

// Features returns the catalog entry of a plan.
func (s *Service) Features(p plan.Plan) plan.Features {
	return plan.Lookup(p)
}

// AssistantLimit returns the assistant limits of a plan.
func (s *Service) AssistantLimit(p plan.Plan) plan.AssistantLimit {
	return plan.Assistant(p)
}

// load fetches the account, provisions a free one when missing
// and applies the lazy free-plan reset.
func (s *Service) load(ctx context.Context, userID string) (account.Account, error) {
	now := s.now()

	a, err := s.repo.Get(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a = account.NewFree(userID, "", now)
		if err := s.repo.Save(ctx, a); err != nil {
			return account.Account{}, fmt.Errorf("provision account: %w", err)
		}
		s.logger.Info("Account provisioned", zap.String("user_id", userID))
		return a, nil
	case err != nil:
		return account.Account{}, fmt.Errorf("load account: %w", err)
	}

	if s.lazyReset && a.DueForReset(now) {
		a = a.Refill(now)
		if err := s.repo.Save(ctx, a); err != nil {
			return account.Account{}, fmt.Errorf("save reset: %w", err)
		}
		s.logger.Info("Free credits reset",
			zap.String("user_id", userID),
			zap.Int("credits", a.Credits),
		)
	}
	return a, nil
}
