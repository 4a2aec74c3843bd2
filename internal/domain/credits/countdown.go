package credits

import (
	"fmt"
	"time"
)

// Kind classifies the time left until the next refill.
type Kind string

// Countdown kinds.
const (
	Today    Kind = "today"
	Tomorrow Kind = "tomorrow"
	InDays   Kind = "days"
	Unknown  Kind = "unknown"
)

const day = 24 * time.Hour

// Countdown is the calendar-day distance to the next refill.
type Countdown struct {
	Kind Kind
	Days int
}

// String renders the countdown for display: "today", "tomorrow", "in 3 days" or "unknown".
func (c Countdown) String() string {
	if c.Kind == InDays {
		return fmt.Sprintf("in %d days", c.Days)
	}
	return string(c.Kind)
}

// TimeUntilReset computes the countdown to the snapshot's refill relative to now.
// The millisecond difference is divided by one day and rounded up, so a reset
// a few minutes past midnight does not flicker between "today" and "tomorrow".
func TimeUntilReset(s Snapshot, now time.Time) Countdown {
	if !s.HasReset() {
		return Countdown{Kind: Unknown}
	}
	return countdownFrom(s.nextResetAt.Sub(now))
}

func countdownFrom(d time.Duration) Countdown {
	ms := d.Milliseconds()
	dayMs := day.Milliseconds()

	days := ms / dayMs
	if ms%dayMs > 0 {
		days++
	}

	switch {
	case days <= 0:
		return Countdown{Kind: Today, Days: 0}
	case days == 1:
		return Countdown{Kind: Tomorrow, Days: 1}
	default:
		return Countdown{Kind: InDays, Days: int(days)}
	}
}
