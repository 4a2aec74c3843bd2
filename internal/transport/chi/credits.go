package chi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/jobxpress/creditgate/internal/domain"
	"github.com/jobxpress/creditgate/internal/domain/plan"
	billinguc "github.com/jobxpress/creditgate/internal/usecase/billing"
)

// ListPlans handles GET /v1/plans.
func (s *Server) ListPlans(w http.ResponseWriter, _ *http.Request) {
	all := plan.All()
	items := make([]PlanResponse, len(all))
	for i, f := range all {
		items[i] = planToResponse(f)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// GetPlan handles GET /v1/plans/{plan}.
func (s *Server) GetPlan(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "plan")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	p, err := plan.Parse(name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, planToResponse(s.billing.Features(p)))
}

// GetCredits handles GET /v1/credits. The first call provisions a free account.
func (s *Server) GetCredits(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	if _, err := s.billing.Provision(r.Context(), user.ID, user.Email); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	view, err := s.billing.Credits(r.Context(), user.ID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("X-Credits-Remaining", strconv.Itoa(view.Account.Credits))
	writeJSON(w, http.StatusOK, viewToResponse(view))
}

// GetCountdown handles GET /v1/credits/countdown.
func (s *Server) GetCountdown(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	view, err := s.billing.Credits(r.Context(), user.ID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan":          string(view.Account.Plan),
		"next_reset_at": timePtr(view.Account.NextResetAt()),
		"countdown":     countdownToResponse(view.Countdown),
	})
}

// CheckCredits handles GET /v1/credits/check?cost=N.
func (s *Server) CheckCredits(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	cost, err := queryInt(r, "cost", 1)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if cost < 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "cost must be non-negative")
		return
	}

	allowed, balance, err := s.billing.CanSpend(r.Context(), user.ID, cost)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"allowed":   allowed,
		"available": balance,
		"cost":      cost,
	})
}

// DebitCredits handles POST /v1/credits/debit.
func (s *Server) DebitCredits(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req DebitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, spend := domain.NewContextWithSpend(r.Context())

	var (
		remaining int
		err       error
	)
	switch req.Reason {
	case billinguc.ReasonSearch:
		remaining, err = s.billing.DebitSearch(ctx, user.ID, req.Results)
	case billinguc.ReasonAdvice:
		remaining, err = s.billing.DebitAdvice(ctx, user.ID)
	default:
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("reason must be %q or %q", billinguc.ReasonSearch, billinguc.ReasonAdvice))
		return
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setSpendHeaders(w, spend)
	writeJSON(w, http.StatusOK, DebitResponse{
		Reason:           req.Reason,
		Debited:          spend.Debited,
		CreditsRemaining: remaining,
	})
}

// GetAccount handles GET /v1/admin/accounts/{user}. Unknown users are 404, nothing is provisioned.
func (s *Server) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := pathParam(r, "user")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	a, err := s.billing.Lookup(r.Context(), userID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountToResponse(a))
}

// SetPlan handles PUT /v1/admin/accounts/{user}/plan.
func (s *Server) SetPlan(w http.ResponseWriter, r *http.Request) {
	userID, err := pathParam(r, "user")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var req SetPlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := plan.Parse(req.Plan)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	a, err := s.billing.ChangePlan(r.Context(), userID, p, req.CustomerID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountToResponse(a))
}

// RefillAccount handles POST /v1/admin/accounts/{user}/refill.
func (s *Server) RefillAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := pathParam(r, "user")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	a, err := s.billing.Refill(r.Context(), userID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountToResponse(a))
}
