package creditgate

import (
	"github.com/jobxpress/creditgate/internal/domain/account"
	"github.com/jobxpress/creditgate/internal/domain/credits"
	"github.com/jobxpress/creditgate/internal/domain/plan"
	gateuc "github.com/jobxpress/creditgate/internal/usecase/gate"
)

func toPlanInfo(f plan.Features) PlanInfo {
	return PlanInfo{
		Plan:       Plan(f.Plan),
		Name:       f.Name,
		Credits:    f.Credits,
		ResetDays:  f.ResetDays,
		PriceCents: f.PriceCents,
		Price:      f.Price(),
	}
}

func toCountdown(c credits.Countdown) Countdown {
	return Countdown{Kind: CountdownKind(c.Kind), Days: c.Days, Text: c.String()}
}

func toCredits(v account.View) Credits {
	return Credits{
		UserID:      v.Account.UserID,
		Plan:        Plan(v.Account.Plan),
		Credits:     v.Account.Credits,
		Allotment:   v.Features.Credits,
		NextResetAt: v.Account.NextResetAt(),
		Countdown:   toCountdown(v.Countdown),
	}
}

func toGateView(v gateuc.View) GateView {
	out := GateView{
		SessionID:      v.SessionID,
		IsOpen:         v.IsOpen,
		Countdown:      toCountdown(v.Countdown),
		PaymentLinkURL: v.PaymentLinkURL,
	}
	if v.Snapshot != nil {
		out.Plan = Plan(v.Snapshot.Plan())
		out.Credits = v.Snapshot.Credits()
	}
	return out
}
