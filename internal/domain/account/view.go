package account

import (
	"time"

	"github.com/jobxpress/creditgate/internal/domain/credits"
	"github.com/jobxpress/creditgate/internal/domain/plan"
)

// View is the account as shown to the dashboard.
type View struct {
	Account   Account
	Features  plan.Features
	Countdown credits.Countdown
}

// NewView assembles a View at the given instant.
func NewView(a Account, now time.Time) View {
	return View{
		Account:   a,
		Features:  plan.Lookup(a.Plan),
		Countdown: credits.TimeUntilReset(a.Snapshot(), now),
	}
}
