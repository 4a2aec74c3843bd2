package creditgate

import "time"

// Plan is a subscription tier.
type Plan string

// Plan constants.
const (
	PlanFree    Plan = "FREE"
	PlanStarter Plan = "STARTER"
	PlanPro     Plan = "PRO"
)

// PlanInfo is a catalog entry.
type PlanInfo struct {
	Plan       Plan
	Name       string
	Credits    int
	ResetDays  int
	PriceCents int // EUR
	Price      string
}

// CountdownKind classifies the distance to the next refill.
type CountdownKind string

// Countdown kinds.
const (
	CountdownToday    CountdownKind = "today"
	CountdownTomorrow CountdownKind = "tomorrow"
	CountdownDays     CountdownKind = "days"
	CountdownUnknown  CountdownKind = "unknown"
)

// Countdown is the calendar-day distance to the next refill.
type Countdown struct {
	Kind CountdownKind
	Days int
	Text string // "today", "tomorrow", "in 3 days" or "unknown"
}

// Credits is a user's balance.
type Credits struct {
	UserID      string
	Plan        Plan
	Credits     int
	Allotment   int
	NextResetAt time.Time // zero when the plan has no scheduled refill
	Countdown   Countdown
}

// GateView is the state of one gate session.
type GateView struct {
	SessionID      string
	IsOpen         bool
	Plan           Plan // empty until a snapshot was seen
	Credits        int
	Countdown      Countdown
	PaymentLinkURL string
}
