// Package plan holds the subscription catalog: credit allotments, reset periods, prices
// and assistant limits per tier.
package plan

import (
	"fmt"
	"strings"

	"github.com/jobxpress/creditgate/internal/domain"
)

// Plan is a subscription tier.
type Plan string

// Plan constants, in tier order.
const (
	Free    Plan = "FREE"
	Starter Plan = "STARTER"
	Pro     Plan = "PRO"
)

// Operation costs in credits.
const (
	SearchCost = 1
	AdviceCost = 1
)

// Features describes what a plan grants.
type Features struct {
	Plan       Plan
	Name       string
	Credits    int
	ResetDays  int
	PriceCents int // EUR
	Assistant  AssistantLimit
}

// AssistantLimit bounds the chat assistant per plan.
type AssistantLimit struct {
	MaxMessages   int
	IsDailyLimit  bool // false: the limit applies per session
	CustomContext bool
}

var catalog = map[Plan]Features{
	Free: {
		Plan: Free, Name: "Freemium", Credits: 5, ResetDays: 7, PriceCents: 0,
		Assistant: AssistantLimit{MaxMessages: 10},
	},
	Starter: {
		Plan: Starter, Name: "Starter", Credits: 100, ResetDays: 30, PriceCents: 999,
		Assistant: AssistantLimit{MaxMessages: 10},
	},
	Pro: {
		Plan: Pro, Name: "Pro", Credits: 300, ResetDays: 30, PriceCents: 2499,
		Assistant: AssistantLimit{MaxMessages: 20, IsDailyLimit: true, CustomContext: true},
	},
}

var order = []Plan{Free, Starter, Pro}

// IsValid checks if the plan is part of the catalog.
func (p Plan) IsValid() bool {
	_, ok := catalog[p]
	return ok
}

// Parse converts a case-insensitive plan name.
func Parse(s string) (Plan, error) {
	p := Plan(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownPlan, s)
	}
	return p, nil
}

// Lookup returns the plan features. Unknown plans fall back to Free.
func Lookup(p Plan) Features {
	if f, ok := catalog[p]; ok {
		return f
	}
	return catalog[Free]
}

// All returns every plan in tier order.
func All() []Features {
	out := make([]Features, 0, len(order))
	for _, p := range order {
		out = append(out, catalog[p])
	}
	return out
}

// Assistant returns the assistant limits of a plan.
func Assistant(p Plan) AssistantLimit {
	return Lookup(p).Assistant
}

// Price formats the plan price, e.g. "9.99".
func (f Features) Price() string {
	return fmt.Sprintf("%d.%02d", f.PriceCents/100, f.PriceCents%100)
}
