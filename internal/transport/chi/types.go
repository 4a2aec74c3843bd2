package chi

import (
	"time"

	"github.com/jobxpress/creditgate/internal/domain/account"
	"github.com/jobxpress/creditgate/internal/domain/credits"
	"github.com/jobxpress/creditgate/internal/domain/plan"
	gateuc "github.com/jobxpress/creditgate/internal/usecase/gate"
)

// ErrorCode is the machine-readable error kind in ErrorResponse.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeValidationFailed    ErrorCode = "validation_failed"
	CodeNotFound            ErrorCode = "not_found"
	CodeSessionNotFound     ErrorCode = "session_not_found"
	CodeUnknownPlan         ErrorCode = "unknown_plan"
	CodeInsufficientCredits ErrorCode = "insufficient_credits"
	CodeUnauthorized        ErrorCode = "unauthorized"
	CodeInvalidSignature    ErrorCode = "invalid_signature"
	CodeRateLimited         ErrorCode = "rate_limited"
	CodeLLMProviderError    ErrorCode = "llm_provider_error"
	CodeNotImplemented      ErrorCode = "not_implemented"
	CodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Required  *int      `json:"required,omitempty"`
	Available *int      `json:"available,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// AssistantResponse describes the chat assistant limits of a plan.
type AssistantResponse struct {
	MaxMessages   int  `json:"max_messages"`
	IsDailyLimit  bool `json:"is_daily_limit"`
	CustomContext bool `json:"custom_context"`
}

// PlanResponse describes one catalog entry.
type PlanResponse struct {
	Plan      string            `json:"plan"`
	Name      string            `json:"name"`
	Credits   int               `json:"credits"`
	ResetDays int               `json:"reset_days"`
	Price     string            `json:"price"`
	Currency  string            `json:"currency"`
	Assistant AssistantResponse `json:"assistant"`
}

// CountdownResponse is the time left until the next refill.
type CountdownResponse struct {
	Kind  string `json:"kind"`
	Days  int    `json:"days"`
	Label string `json:"label"`
}

// CreditsResponse is the dashboard view of an account.
type CreditsResponse struct {
	UserID      string            `json:"user_id"`
	Plan        string            `json:"plan"`
	PlanName    string            `json:"plan_name"`
	Credits     int               `json:"credits"`
	MaxCredits  int               `json:"max_credits"`
	ResetDays   int               `json:"reset_days"`
	LastReset   *time.Time        `json:"last_reset,omitempty"`
	NextResetAt *time.Time        `json:"next_reset_at,omitempty"`
	Countdown   CountdownResponse `json:"countdown"`
	Price       string            `json:"price"`
	Assistant   AssistantResponse `json:"assistant"`
}

// AccountResponse is the admin view of an account.
type AccountResponse struct {
	UserID           string     `json:"user_id"`
	Email            string     `json:"email,omitempty"`
	Plan             string     `json:"plan"`
	Credits          int        `json:"credits"`
	LastReset        *time.Time `json:"last_reset,omitempty"`
	StripeCustomerID string     `json:"stripe_customer_id,omitempty"`
}

// DebitRequest is the body of POST /v1/credits/debit.
type DebitRequest struct {
	Reason  string `json:"reason"`
	Results int    `json:"results"`
}

// DebitResponse reports the balance after a debit.
type DebitResponse struct {
	Reason           string `json:"reason"`
	Debited          int    `json:"debited"`
	CreditsRemaining int    `json:"credits_remaining"`
}

// AdviceRequest is the body of POST /v1/advice.
type AdviceRequest struct {
	JobTitle    string `json:"job_title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

// AdviceResponse carries the generated advice.
type AdviceResponse struct {
	Advice           string `json:"advice"`
	CreditsRemaining int    `json:"credits_remaining"`
}

// SetPlanRequest is the body of PUT /v1/admin/accounts/{user}/plan.
type SetPlanRequest struct {
	Plan       string `json:"plan"`
	CustomerID string `json:"customer_id"`
}

// SnapshotResponse is the credit snapshot stored in a gate session.
type SnapshotResponse struct {
	Plan        string     `json:"plan"`
	Credits     int        `json:"credits"`
	NextResetAt *time.Time `json:"next_reset_at,omitempty"`
}

// SnapshotRequest lets a client open a session with a snapshot it already holds.
type SnapshotRequest struct {
	Plan        string     `json:"plan"`
	Credits     int        `json:"credits"`
	NextResetAt *time.Time `json:"next_reset_at,omitempty"`
}

// GateResponse is the state of a gate session.
type GateResponse struct {
	SessionID      string            `json:"session_id"`
	IsOpen         bool              `json:"is_open"`
	Credits        *SnapshotResponse `json:"credits,omitempty"`
	Countdown      CountdownResponse `json:"countdown"`
	PaymentLinkURL string            `json:"payment_link_url,omitempty"`
	Gated          *bool             `json:"gated,omitempty"`
}

// WebhookHealthResponse is the body of GET /webhooks/stripe/health.
type WebhookHealthResponse struct {
	Status           string   `json:"status"`
	SecretConfigured bool     `json:"webhook_secret_configured"`
	SupportedEvents  []string `json:"supported_events"`
}

func planToResponse(f plan.Features) PlanResponse {
	return PlanResponse{
		Plan:      string(f.Plan),
		Name:      f.Name,
		Credits:   f.Credits,
		ResetDays: f.ResetDays,
		Price:     f.Price(),
		Currency:  "EUR",
		Assistant: assistantToResponse(f.Assistant),
	}
}

func assistantToResponse(a plan.AssistantLimit) AssistantResponse {
	return AssistantResponse{
		MaxMessages:   a.MaxMessages,
		IsDailyLimit:  a.IsDailyLimit,
		CustomContext: a.CustomContext,
	}
}

func countdownToResponse(c credits.Countdown) CountdownResponse {
	return CountdownResponse{Kind: string(c.Kind), Days: c.Days, Label: c.String()}
}

func viewToResponse(v account.View) CreditsResponse {
	return CreditsResponse{
		UserID:      v.Account.UserID,
		Plan:        string(v.Account.Plan),
		PlanName:    v.Features.Name,
		Credits:     v.Account.Credits,
		MaxCredits:  v.Features.Credits,
		ResetDays:   v.Features.ResetDays,
		LastReset:   timePtr(v.Account.LastReset),
		NextResetAt: timePtr(v.Account.NextResetAt()),
		Countdown:   countdownToResponse(v.Countdown),
		Price:       v.Features.Price(),
		Assistant:   assistantToResponse(v.Features.Assistant),
	}
}

func accountToResponse(a account.Account) AccountResponse {
	return AccountResponse{
		UserID:           a.UserID,
		Email:            a.Email,
		Plan:             string(a.Plan),
		Credits:          a.Credits,
		LastReset:        timePtr(a.LastReset),
		StripeCustomerID: a.StripeCustomerID,
	}
}

func gateToResponse(v gateuc.View) GateResponse {
	resp := GateResponse{
		SessionID:      v.SessionID,
		IsOpen:         v.IsOpen,
		Countdown:      countdownToResponse(v.Countdown),
		PaymentLinkURL: v.PaymentLinkURL,
	}
	if v.Snapshot != nil {
		resp.Credits = &SnapshotResponse{
			Plan:        string(v.Snapshot.Plan()),
			Credits:     v.Snapshot.Credits(),
			NextResetAt: timePtr(v.Snapshot.NextResetAt()),
		}
	}
	return resp
}

func snapshotFromRequest(req SnapshotRequest) (credits.Snapshot, error) {
	p, err := plan.Parse(req.Plan)
	if err != nil {
		return credits.Snapshot{}, err
	}
	var next time.Time
	if req.NextResetAt != nil {
		next = *req.NextResetAt
	}
	return credits.New(p, req.Credits, next)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
