package chi

import (
	"io"
	"net/http"

	webhookuc "github.com/jobxpress/creditgate/internal/usecase/webhook"
)

// StripeWebhook handles POST /webhooks/stripe.
func (s *Server) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "unreadable body")
		return
	}

	res, err := s.webhook.Handle(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// StripeWebhookHealth handles GET /webhooks/stripe/health.
func (s *Server) StripeWebhookHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, WebhookHealthResponse{
		Status:           "ok",
		SecretConfigured: s.webhook.Configured(),
		SupportedEvents:  webhookuc.SupportedEvents(),
	})
}
