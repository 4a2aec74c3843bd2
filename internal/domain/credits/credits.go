// Package credits holds the read-only credit snapshot the gate decides on.
package credits

import (
	"fmt"
	"time"

	"github.com/jobxpress/creditgate/internal/domain"
	"github.com/jobxpress/creditgate/internal/domain/plan"
)

// Snapshot is a user's plan, remaining credits and next refill time.
type Snapshot struct {
	plan        plan.Plan
	credits     int
	nextResetAt time.Time // zero when unknown
}

// New creates a Snapshot. credits must be non-negative.
func New(p plan.Plan, credits int, nextResetAt time.Time) (Snapshot, error) {
	if credits < 0 {
		return Snapshot{}, fmt.Errorf("%w: %d", domain.ErrInvalidCredits, credits)
	}
	return Snapshot{plan: p, credits: credits, nextResetAt: nextResetAt}, nil
}

// Plan returns the plan tier.
func (s Snapshot) Plan() plan.Plan { return s.plan }

// Credits returns the remaining allowance.
func (s Snapshot) Credits() int { return s.credits }

// NextResetAt returns the refill time, zero if unknown.
func (s Snapshot) NextResetAt() time.Time { return s.nextResetAt }

// HasReset reports whether the refill time is known.
func (s Snapshot) HasReset() bool { return !s.nextResetAt.IsZero() }
