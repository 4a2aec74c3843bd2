// Package advice generates credit-gated interview advice.
package advice

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jobxpress/creditgate/internal/domain"
	"github.com/jobxpress/creditgate/internal/domain/plan"
)

// Result is the generated advice with the balance left after the debit.
type Result struct {
	Advice           string
	CreditsRemaining int
}

// Service implements advice generation.
type Service struct {
	ledger  Ledger
	advisor Advisor
	logger  *zap.Logger
}

// New creates an advice service. advisor can be nil when no LLM is configured.
func New(ledger Ledger, advisor Advisor, logger *zap.Logger) *Service {
	return &Service{ledger: ledger, advisor: advisor, logger: logger}
}

// Generate checks the balance, calls the advisor and debits only on success.
func (s *Service) Generate(ctx context.Context, userID string, req domain.AdviceRequest) (Result, error) {
	if s.advisor == nil {
		return Result{}, fmt.Errorf("advice: %w", domain.ErrNotImplemented)
	}
	req.JobTitle = strings.TrimSpace(req.JobTitle)
	if req.JobTitle == "" {
		return Result{}, fmt.Errorf("%w: job_title is required", domain.ErrInvalidPayload)
	}

	ok, balance, err := s.ledger.CanSpend(ctx, userID, plan.AdviceCost)
	if err != nil {
		return Result{}, fmt.Errorf("check credits: %w", err)
	}
	if !ok {
		return Result{}, domain.NewInsufficientCredits(plan.AdviceCost, balance)
	}

	out, err := s.advisor.Advise(ctx, req)
	if err != nil {
		return Result{}, err
	}

	remaining, err := s.ledger.DebitAdvice(ctx, userID)
	if err != nil {
		// The balance moved between check and debit; the advice is not returned.
		s.logger.Warn("Advice debit failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return Result{}, err
	}

	return Result{Advice: out.Text, CreditsRemaining: remaining}, nil
}
