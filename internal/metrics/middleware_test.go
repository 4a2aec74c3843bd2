package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(method, path, http.NoBody))
	return rr
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/gate/sessions/{session}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/gate/sessions/{session}", "200"))
	serve(r, "GET", "/v1/gate/sessions/abc")
	serve(r, "GET", "/v1/gate/sessions/def")

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/gate/sessions/{session}", "200"))
	if got-before != 2 {
		t.Errorf("requests for route pattern = %v, want 2", got-before)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMetricsMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/v1/credits/debit", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})
	r.Get("/v1/plans/{plan}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.WriteHeader(http.StatusInternalServerError) // ignored, first status wins
	})

	tests := []struct {
		method, path, route, status string
	}{
		{"POST", "/v1/credits/debit", "/v1/credits/debit", "402"},
		{"GET", "/v1/plans/GOLD", "/v1/plans/{plan}", "400"},
	}
	for _, tc := range tests {
		t.Run(tc.route, func(t *testing.T) {
			serve(r, tc.method, tc.path)
			if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.route, tc.status)); v < 1 {
				t.Errorf("requests_total{%s %s %s} = %v, want >= 1", tc.method, tc.route, tc.status, v)
			}
		})
	}
}

func TestMetricsMiddleware_CountsSpentCredits(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/v1/advice", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(SpendHeader, "1")
		_, _ = w.Write([]byte("{}"))
	})
	r.Post("/v1/credits/debit", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(SpendHeader, "0")
		_, _ = w.Write([]byte("{}"))
	})

	before := testutil.ToFloat64(httpCreditsSpent.WithLabelValues("/v1/advice"))
	serve(r, "POST", "/v1/advice")
	serve(r, "POST", "/v1/advice")
	if got := testutil.ToFloat64(httpCreditsSpent.WithLabelValues("/v1/advice")); got-before != 2 {
		t.Errorf("credits spent on /v1/advice = %v, want 2", got-before)
	}

	serve(r, "POST", "/v1/credits/debit")
	if got := testutil.ToFloat64(httpCreditsSpent.WithLabelValues("/v1/credits/debit")); got != 0 {
		t.Errorf("free request counted %v credits", got)
	}
}

func TestMetricsMiddleware_SkipsProbes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	serve(r, "GET", "/health")
	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/health", "200")); v != 0 {
		t.Errorf("probe recorded %v requests, want 0", v)
	}
	if v := testutil.ToFloat64(httpRequestsInFlight); v != 0 {
		t.Errorf("in flight = %v after request, want 0", v)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unknown"},
		{"/v1/credits", "/v1/credits"},
		{"/v1/accounts/{user}/plan", "/v1/accounts/{user}/plan"},
	}

	for _, tc := range tests {
		if got := normalizePath(tc.input); got != tc.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestRouteLabel_NoRouteContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/x", http.NoBody)
	if got := routeLabel(req); got != "unknown" {
		t.Errorf("routeLabel = %q, want unknown", got)
	}
}

func TestStatusWriter_Unwrap(t *testing.T) {
	rr := httptest.NewRecorder()
	ww := &statusWriter{ResponseWriter: rr, status: http.StatusOK}
	if ww.Unwrap() != rr {
		t.Error("Unwrap should return the wrapped writer")
	}
}
