package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jobxpress/creditgate/internal/domain"
	"github.com/jobxpress/creditgate/internal/metrics"
	adviceuc "github.com/jobxpress/creditgate/internal/usecase/advice"
	billinguc "github.com/jobxpress/creditgate/internal/usecase/billing"
	gateuc "github.com/jobxpress/creditgate/internal/usecase/gate"
	healthuc "github.com/jobxpress/creditgate/internal/usecase/health"
	webhookuc "github.com/jobxpress/creditgate/internal/usecase/webhook"
)

// maxBodyBytes bounds JSON and webhook request bodies.
const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers of the creditgate API.
type Server struct {
	billing       *billinguc.Service
	gate          *gateuc.Service
	webhook       *webhookuc.Service
	advice        *adviceuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	billing *billinguc.Service,
	gate *gateuc.Service,
	webhook *webhookuc.Service,
	advice *adviceuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		billing: billing,
		gate:    gate,
		webhook: webhook,
		advice:  advice,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		insufficientCreditsHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound),
		sentinelHandler(domain.ErrUnknownPlan, http.StatusBadRequest, CodeUnknownPlan),
		sentinelHandler(domain.ErrInvalidCredits, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidPayload, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrInvalidSignature, http.StatusUnauthorized, CodeInvalidSignature),
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway, CodeLLMProviderError),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, CodeNotImplemented),
	}
	return s
}

// RouteOptions configures authentication and limits of the mounted routes.
type RouteOptions struct {
	APIKeys       []string
	JWTSecret     string
	AdviceLimiter *RateLimiter // nil disables rate limiting
}

// Mount registers every route on r.
func (s *Server) Mount(r chi.Router, opts RouteOptions) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/webhooks/stripe", func(r chi.Router) {
		r.Post("/", s.StripeWebhook)
		r.Get("/health", s.StripeWebhookHealth)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/plans", s.ListPlans)
		r.Get("/plans/{plan}", s.GetPlan)

		r.Group(func(r chi.Router) {
			r.Use(JWTMiddleware(opts.JWTSecret))

			r.Get("/credits", s.GetCredits)
			r.Get("/credits/countdown", s.GetCountdown)
			r.Get("/credits/check", s.CheckCredits)
			r.Post("/credits/debit", s.DebitCredits)

			r.Route("/gate/sessions", func(r chi.Router) {
				r.Post("/", s.StartSession)
				r.Get("/{session}", s.GetSession)
				r.Delete("/{session}", s.EndSession)
				r.Post("/{session}/check", s.CheckSession)
				r.Post("/{session}/open", s.OpenSession)
				r.Post("/{session}/close", s.CloseSession)
			})

			r.Group(func(r chi.Router) {
				if opts.AdviceLimiter != nil {
					r.Use(opts.AdviceLimiter.Middleware())
				}
				r.Post("/advice", s.GenerateAdvice)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(BearerAuthMiddleware(opts.APIKeys))
			r.Get("/accounts/{user}", s.GetAccount)
			r.Put("/accounts/{user}/plan", s.SetPlan)
			r.Post("/accounts/{user}/refill", s.RefillAccount)
		})
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for _, name := range report.Names() {
		checks[name] = string(report.Checks[name])
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// GenerateAdvice handles POST /v1/advice.
func (s *Server) GenerateAdvice(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req AdviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, spend := domain.NewContextWithSpend(r.Context())
	res, err := s.advice.Generate(ctx, user.ID, domain.AdviceRequest{
		JobTitle:    req.JobTitle,
		Company:     req.Company,
		Description: req.Description,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setSpendHeaders(w, spend)
	writeJSON(w, http.StatusOK, AdviceResponse{Advice: res.Advice, CreditsRemaining: res.CreditsRemaining})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setSpendHeaders(w http.ResponseWriter, spend *domain.Spend) {
	if spend != nil && spend.Recorded {
		w.Header().Set(metrics.SpendHeader, strconv.Itoa(spend.Debited))
		w.Header().Set("X-Credits-Remaining", strconv.Itoa(spend.Remaining))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrSessionNotFound,
		domain.ErrUnknownPlan,
		domain.ErrInvalidCredits,
		domain.ErrInsufficientCredits,
		domain.ErrInvalidSignature,
		domain.ErrUnauthorized,
		domain.ErrRateLimited,
		domain.ErrLLMProviderError,
		domain.ErrNotImplemented,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	// Validation messages are written for the caller.
	if errors.Is(err, domain.ErrInvalidPayload) {
		return err.Error()
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// insufficientCreditsHandler writes 402 with the required and available amounts when known.
func insufficientCreditsHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		return false
	}
	resp := ErrorResponse{Code: CodeInsufficientCredits, Message: msg}
	var ice *domain.InsufficientCreditsError
	if errors.As(err, &ice) {
		resp.Required = &ice.Required
		resp.Available = &ice.Available
	}
	writeJSON(w, http.StatusPaymentRequired, resp)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	msg := safeDomainMessage(err)

	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
