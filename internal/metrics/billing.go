package metrics

import "github.com/prometheus/client_golang/prometheus"

// Billing and gate Prometheus metrics.
var (
	CreditsDebitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditgate",
			Name:      "credits_debited_total",
			Help:      "Total credits debited",
		},
		[]string{"reason"}, // "search" / "advice"
	)

	CreditChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditgate",
			Name:      "credit_checks_total",
			Help:      "Credit balance checks before spending",
		},
		[]string{"result"}, // "allowed" / "refused"
	)

	PlanChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditgate",
			Name:      "plan_changes_total",
			Help:      "Plan changes by target plan",
		},
		[]string{"plan"},
	)

	GateChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditgate",
			Name:      "gate_checks_total",
			Help:      "Upgrade gate evaluations",
		},
		[]string{"result"}, // "gated" / "passed"
	)

	GateSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "creditgate",
			Name:      "gate_sessions",
			Help:      "Live gate sessions",
		},
	)

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditgate",
			Name:      "webhook_events_total",
			Help:      "Stripe webhook events by type and outcome",
		},
		[]string{"type", "status"},
	)
)

var billingMetricsRegistered bool

// RegisterBillingMetrics registers billing, gate and webhook metrics. Must be called once from main.
func RegisterBillingMetrics() {
	if billingMetricsRegistered {
		return
	}
	prometheus.MustRegister(CreditsDebitedTotal)
	prometheus.MustRegister(CreditChecksTotal)
	prometheus.MustRegister(PlanChangesTotal)
	prometheus.MustRegister(GateChecksTotal)
	prometheus.MustRegister(GateSessions)
	prometheus.MustRegister(WebhookEventsTotal)
	billingMetricsRegistered = true
}
