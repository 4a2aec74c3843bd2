package health

import (
	"context"
	"sort"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates at least one component failed.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Names returns the checked component names in stable order.
func (r Report) Names() []string {
	out := make([]string, 0, len(r.Checks))
	for k := range r.Checks {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Service coordinates health checks.
type Service struct {
	db  DBPinger
	llm LLMChecker
}

// New creates a Service. llm can be nil.
func New(db DBPinger, llm LLMChecker) *Service {
	return &Service{db: db, llm: llm}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["database"] = result(s.db.Ping(ctx))
	if s.llm != nil {
		checks["llm"] = result(s.llm.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
