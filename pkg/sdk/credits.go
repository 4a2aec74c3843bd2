package creditgate

import (
	"context"
	"time"

	"github.com/jobxpress/creditgate/internal/domain/plan"
)

// Plans returns the subscription catalog in tier order.
func (c *Client) Plans() []PlanInfo {
	all := plan.All()
	out := make([]PlanInfo, 0, len(all))
	for _, f := range all {
		out = append(out, toPlanInfo(f))
	}
	return out
}

// Credits returns the user's balance. A missing account is provisioned on the free plan.
func (c *Client) Credits(ctx context.Context, userID string) (_ Credits, err error) {
	start := time.Now()
	defer func() { c.obs.observe("credits", start, err, "user_id", userID) }()

	v, err := c.billing.Credits(ctx, userID)
	if err != nil {
		return Credits{}, err
	}
	return toCredits(v), nil
}

// CanSpend reports whether the balance covers cost, and the current balance.
func (c *Client) CanSpend(ctx context.Context, userID string, cost int) (_ bool, _ int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("can_spend", start, err, "user_id", userID) }()

	return c.billing.CanSpend(ctx, userID, cost)
}

// DebitSearch charges one search and returns the remaining balance.
// A search with zero results is free.
func (c *Client) DebitSearch(ctx context.Context, userID string, results int) (_ int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("debit_search", start, err, "user_id", userID) }()

	return c.billing.DebitSearch(ctx, userID, results)
}

// DebitAdvice charges one interview advice and returns the remaining balance.
func (c *Client) DebitAdvice(ctx context.Context, userID string) (_ int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("debit_advice", start, err, "user_id", userID) }()

	return c.billing.DebitAdvice(ctx, userID)
}

// ChangePlan moves the user to p and refills the allotment.
// The plan name is case-insensitive.
func (c *Client) ChangePlan(ctx context.Context, userID string, p Plan) (_ Credits, err error) {
	start := time.Now()
	defer func() { c.obs.observe("change_plan", start, err, "user_id", userID, "plan", string(p)) }()

	target, err := plan.Parse(string(p))
	if err != nil {
		return Credits{}, err
	}
	if _, err = c.billing.ChangePlan(ctx, userID, target, ""); err != nil {
		return Credits{}, err
	}
	v, err := c.billing.Credits(ctx, userID)
	if err != nil {
		return Credits{}, err
	}
	return toCredits(v), nil
}

// Refill restores the allotment of the user's current plan.
func (c *Client) Refill(ctx context.Context, userID string) (_ Credits, err error) {
	start := time.Now()
	defer func() { c.obs.observe("refill", start, err, "user_id", userID) }()

	if _, err = c.billing.Refill(ctx, userID); err != nil {
		return Credits{}, err
	}
	v, err := c.billing.Credits(ctx, userID)
	if err != nil {
		return Credits{}, err
	}
	return toCredits(v), nil
}
