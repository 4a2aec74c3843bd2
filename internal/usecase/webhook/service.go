// Package webhook applies Stripe billing events to the credit ledger.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/jobxpress/creditgate/internal/domain"
	"github.com/jobxpress/creditgate/internal/domain/event"
	"github.com/jobxpress/creditgate/internal/domain/plan"
	"github.com/jobxpress/creditgate/internal/metrics"
)

// Handled Stripe event types.
const (
	EventCheckoutCompleted   = string(stripe.EventTypeCheckoutSessionCompleted)
	EventSubscriptionDeleted = string(stripe.EventTypeCustomerSubscriptionDeleted)
	EventPaymentFailed       = string(stripe.EventTypeInvoicePaymentFailed)
	EventPaymentSucceeded    = string(stripe.EventTypeInvoicePaymentSucceeded)
)

// Result statuses returned to Stripe.
const (
	StatusSuccess          = "success"
	StatusAlreadyProcessed = "already_processed"
	StatusSkipped          = "skipped"
	StatusPending          = "pending"
	StatusDowngraded       = "downgraded"
	StatusWarning          = "warning"
	StatusIgnored          = "ignored"
)

// maxPaymentAttempts is the failed-invoice count after which the user is downgraded.
const maxPaymentAttempts = 3

// Result describes how an event was handled.
type Result struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Plan      string `json:"plan,omitempty"`
	Action    string `json:"action,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Email     string `json:"email,omitempty"`
	Attempt   int    `json:"attempt,omitempty"`
}

// outcome is what a handler decided: the response and the log entry status.
type outcome struct {
	result Result
	status event.Status
	userID string
}

type handler func(ctx context.Context) (outcome, error)

// Service verifies and dispatches Stripe webhook events.
type Service struct {
	accounts     Accounts
	events       EventLog
	secret       string
	tolerance    time.Duration
	checkoutPlan plan.Plan
	logger       *zap.Logger
	now          func() time.Time
}

// New creates a webhook service. An empty secret disables signature checks.
func New(accounts Accounts, events EventLog, secret string, logger *zap.Logger) *Service {
	return &Service{
		accounts:     accounts,
		events:       events,
		secret:       secret,
		tolerance:    DefaultTolerance,
		checkoutPlan: plan.Starter,
		logger:       logger,
		now:          time.Now,
	}
}

// WithTolerance overrides the signature replay window.
func (s *Service) WithTolerance(d time.Duration) *Service {
	s.tolerance = d
	return s
}

// WithCheckoutPlan sets the plan granted by a completed checkout.
func (s *Service) WithCheckoutPlan(p plan.Plan) *Service {
	if p.IsValid() {
		s.checkoutPlan = p
	}
	return s
}

// WithClock overrides the time source for event log records.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Configured reports whether signatures are verified.
func (s *Service) Configured() bool {
	return s.secret != ""
}

// SupportedEvents lists the event types that change the ledger.
func SupportedEvents() []string {
	return []string{
		EventCheckoutCompleted,
		EventSubscriptionDeleted,
		EventPaymentSucceeded,
		EventPaymentFailed,
	}
}

// Handle verifies, deduplicates and applies one webhook delivery.
func (s *Service) Handle(ctx context.Context, payload []byte, signature string) (Result, error) {
	evt, err := s.decode(payload, signature)
	if err != nil {
		return Result{}, err
	}
	apply, err := s.route(evt)
	if err != nil {
		return Result{}, err
	}

	log := s.logger.With(zap.String("event_id", evt.ID), zap.String("event_type", string(evt.Type)))

	prev, found, err := s.events.Get(ctx, evt.ID)
	if err != nil {
		return Result{}, fmt.Errorf("event log: %w", err)
	}
	if found && prev.Final() {
		log.Info("Stripe event already processed")
		return Result{Status: StatusAlreadyProcessed, EventID: evt.ID}, nil
	}

	out, err := apply(ctx)
	if err != nil {
		s.record(ctx, log, evt, event.StatusFailed, "")
		log.Error("Stripe event failed", zap.Error(err))
		return Result{}, fmt.Errorf("handle %s: %w", evt.Type, err)
	}

	s.record(ctx, log, evt, out.status, out.userID)
	out.result.EventID = evt.ID
	log.Info("Stripe event handled",
		zap.String("status", out.result.Status),
		zap.String("user_id", out.userID),
	)
	return out.result, nil
}

func (s *Service) decode(payload []byte, signature string) (stripe.Event, error) {
	var evt stripe.Event
	if s.secret != "" {
		var err error
		evt, err = ConstructEvent(payload, signature, s.secret, s.tolerance)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidSignature) {
				s.logger.Warn("Stripe signature rejected", zap.Error(err))
			}
			return stripe.Event{}, err
		}
	} else {
		s.logger.Warn("Stripe webhook secret not configured, signature not verified")
		if err := json.Unmarshal(payload, &evt); err != nil {
			return stripe.Event{}, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
	}
	if evt.ID == "" || evt.Type == "" {
		return stripe.Event{}, fmt.Errorf("%w: missing event id or type", domain.ErrInvalidPayload)
	}
	return evt, nil
}

// route decodes data.object into the Stripe type of the event and binds its handler.
func (s *Service) route(evt stripe.Event) (handler, error) {
	switch typ := string(evt.Type); typ {
	case EventCheckoutCompleted:
		var cs stripe.CheckoutSession
		if err := decodeObject(evt, &cs); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (outcome, error) { return s.checkoutCompleted(ctx, &cs) }, nil
	case EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := decodeObject(evt, &sub); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (outcome, error) { return s.subscriptionDeleted(ctx, &sub) }, nil
	case EventPaymentFailed, EventPaymentSucceeded:
		var inv stripe.Invoice
		if err := decodeObject(evt, &inv); err != nil {
			return nil, err
		}
		if typ == EventPaymentFailed {
			return func(ctx context.Context) (outcome, error) { return s.paymentFailed(ctx, &inv) }, nil
		}
		return func(ctx context.Context) (outcome, error) { return s.paymentSucceeded(ctx, &inv) }, nil
	default:
		return func(context.Context) (outcome, error) {
			return outcome{
				result: Result{Status: StatusIgnored, EventType: typ},
				status: event.StatusSkipped,
			}, nil
		}, nil
	}
}

func decodeObject(evt stripe.Event, v any) error {
	raw := rawObject(evt)
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: data.object: %v", domain.ErrInvalidPayload, err)
	}
	return nil
}

func rawObject(evt stripe.Event) json.RawMessage {
	if evt.Data == nil {
		return nil
	}
	return evt.Data.Raw
}

func (s *Service) checkoutCompleted(ctx context.Context, cs *stripe.CheckoutSession) (outcome, error) {
	email := checkoutEmail(cs)
	if email == "" {
		return skipped(StatusSkipped, "no email"), nil
	}

	userID, err := s.accounts.FindUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		out := skipped(StatusPending, "user not found")
		out.result.Email = email
		return out, nil
	}
	if err != nil {
		return outcome{}, err
	}

	if _, err := s.accounts.ChangePlan(ctx, userID, s.checkoutPlan, customerID(cs.Customer)); err != nil {
		return outcome{}, err
	}
	return outcome{
		result: Result{Status: StatusSuccess, Plan: string(s.checkoutPlan)},
		status: event.StatusProcessed,
		userID: userID,
	}, nil
}

func (s *Service) subscriptionDeleted(ctx context.Context, sub *stripe.Subscription) (outcome, error) {
	userID, ok, err := s.findCustomer(ctx, customerID(sub.Customer))
	if err != nil || !ok {
		return skipped(StatusSkipped, "customer not found"), err
	}
	if _, err := s.accounts.Downgrade(ctx, userID); err != nil {
		return outcome{}, err
	}
	return outcome{
		result: Result{Status: StatusSuccess, Action: "downgraded"},
		status: event.StatusProcessed,
		userID: userID,
	}, nil
}

func (s *Service) paymentFailed(ctx context.Context, inv *stripe.Invoice) (outcome, error) {
	attempt := int(inv.AttemptCount)
	warning := skipped(StatusWarning, "")
	warning.result.Attempt = attempt

	if attempt < maxPaymentAttempts {
		return warning, nil
	}
	userID, ok, err := s.findCustomer(ctx, customerID(inv.Customer))
	if err != nil || !ok {
		return warning, err
	}
	if _, err := s.accounts.Downgrade(ctx, userID); err != nil {
		return outcome{}, err
	}
	return outcome{
		result: Result{Status: StatusDowngraded, Reason: "payment_failed", Attempt: attempt},
		status: event.StatusProcessed,
		userID: userID,
	}, nil
}

func (s *Service) paymentSucceeded(ctx context.Context, inv *stripe.Invoice) (outcome, error) {
	userID, ok, err := s.findCustomer(ctx, customerID(inv.Customer))
	if err != nil || !ok {
		return skipped(StatusSkipped, "customer not found"), err
	}
	if _, err := s.accounts.Refill(ctx, userID); err != nil {
		return outcome{}, err
	}
	return outcome{
		result: Result{Status: StatusSuccess, Action: "credits_renewed"},
		status: event.StatusProcessed,
		userID: userID,
	}, nil
}

func checkoutEmail(cs *stripe.CheckoutSession) string {
	if cs.CustomerEmail != "" {
		return cs.CustomerEmail
	}
	if cs.CustomerDetails != nil {
		return cs.CustomerDetails.Email
	}
	return ""
}

// customerID reads an expandable customer reference, which arrives as a bare id.
func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func (s *Service) findCustomer(ctx context.Context, customerID string) (string, bool, error) {
	if customerID == "" {
		return "", false, nil
	}
	userID, err := s.accounts.FindUserByCustomer(ctx, customerID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

// record stores the outcome. A failed write is logged and does not fail the delivery.
func (s *Service) record(ctx context.Context, log *zap.Logger, evt stripe.Event, status event.Status, userID string) {
	metrics.WebhookEventsTotal.WithLabelValues(metricType(string(evt.Type)), string(status)).Inc()

	rec := event.Record{
		ID:        evt.ID,
		Type:      string(evt.Type),
		UserID:    userID,
		Status:    status,
		Payload:   rawObject(evt),
		CreatedAt: s.now().UTC(),
	}
	if err := s.events.Record(ctx, rec); err != nil {
		log.Error("Failed to record Stripe event", zap.Error(err))
	}
}

func skipped(status, reason string) outcome {
	return outcome{
		result: Result{Status: status, Reason: reason},
		status: event.StatusSkipped,
	}
}

// metricType bounds the label cardinality to the handled types.
func metricType(typ string) string {
	for _, t := range SupportedEvents() {
		if t == typ {
			return typ
		}
	}
	return "other"
}
