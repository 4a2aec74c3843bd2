package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jobxpress/creditgate/internal/bootstrap"
	"github.com/jobxpress/creditgate/internal/config"
	"github.com/jobxpress/creditgate/internal/domain/plan"
	logpkg "github.com/jobxpress/creditgate/internal/logger"
	"github.com/jobxpress/creditgate/internal/metrics"
	chiTransport "github.com/jobxpress/creditgate/internal/transport/chi"
	openaiLLM "github.com/jobxpress/creditgate/internal/transport/openai"
	"github.com/jobxpress/creditgate/internal/version"
	adviceuc "github.com/jobxpress/creditgate/internal/usecase/advice"
	billinguc "github.com/jobxpress/creditgate/internal/usecase/billing"
	gateuc "github.com/jobxpress/creditgate/internal/usecase/gate"
	healthuc "github.com/jobxpress/creditgate/internal/usecase/health"
	webhookuc "github.com/jobxpress/creditgate/internal/usecase/webhook"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting creditgate API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer storage.Close()

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterBillingMetrics()
	metrics.RegisterLLMMetrics()

	checkoutPlan, err := plan.Parse(cfg.Stripe.CheckoutPlan)
	if err != nil {
		logger.Fatal("Invalid checkout plan", zap.Error(err))
	}

	billingSvc := billinguc.New(storage.Accounts, logger).
		WithLazyReset(cfg.Billing.LazyResetEnabled())
	gateSvc := gateuc.New(billingSvc, cfg.Billing.PaymentLinkURL, cfg.Gate.SessionTTL(), logger)
	webhookSvc := webhookuc.New(billingSvc, storage.Events, cfg.Stripe.WebhookSecret, logger).
		WithTolerance(cfg.Stripe.Tolerance()).
		WithCheckoutPlan(checkoutPlan)

	// Pass nil interfaces (not typed nil pointers) when no LLM is configured.
	var (
		advisor    adviceuc.Advisor
		llmChecker healthuc.LLMChecker
	)
	if cfg.LLM.APIKey != "" {
		llm := openaiLLM.NewAdvisor(&openaiLLM.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Provider:    cfg.LLM.Provider,
			Logger:      logger,
		})
		advisor, llmChecker = llm, llm
		logger.Info("Advisor created",
			zap.String("provider", cfg.LLM.Provider),
			zap.String("model", cfg.LLM.Model),
		)
	} else {
		logger.Warn("llm.api_key not set, advice endpoint disabled")
	}
	adviceSvc := adviceuc.New(billingSvc, advisor, logger)
	healthSvc := healthuc.New(storage.Pinger, llmChecker)

	if !webhookSvc.Configured() {
		logger.Warn("stripe.webhook_secret not set, webhook signatures are not verified")
	}

	limiter := chiTransport.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	server := chiTransport.NewServer(billingSvc, gateSvc, webhookSvc, adviceSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "bad_request", "method not allowed")
	})
	server.Mount(r, chiTransport.RouteOptions{
		APIKeys:       cfg.Auth.APIKeys,
		JWTSecret:     cfg.Auth.JWTSecret,
		AdviceLimiter: limiter,
	})

	// Background housekeeping: idle gate sessions and rate limiter buckets.
	go gateSvc.Run(ctx)
	go pruneLimiter(ctx, limiter, cfg.Gate.SweepInterval(), logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func pruneLimiter(ctx context.Context, l *chiTransport.RateLimiter, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Prune(); n > 0 {
				logger.Debug("Rate limiter buckets pruned", zap.Int("count", n))
			}
		}
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
						zap.Stack("stacktrace"),
					)
					writeJSONError(w, http.StatusInternalServerError, "internal_error", "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			if v := ww.Header().Get("X-Credits-Remaining"); v != "" {
				fields = append(fields, zap.String("credits_remaining", v))
			}
			reqLogger.Info("http_request", fields...)
		})
	}
}
