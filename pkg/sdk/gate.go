package creditgate

import (
	"context"
	"time"
)

// StartSession creates a closed gate session owned by userID and returns its id.
func (c *Client) StartSession(ctx context.Context, userID string) string {
	start := time.Now()
	sid := c.gate.Start(ctx, userID)
	c.obs.observe("start_session", start, nil, "user_id", userID, "session_id", sid)
	return sid
}

// State returns the session's gate view.
func (c *Client) State(ctx context.Context, sid string) (_ GateView, err error) {
	start := time.Now()
	defer func() { c.obs.observe("state", start, err, "session_id", sid) }()

	v, err := c.gate.State(ctx, sid)
	if err != nil {
		return GateView{}, err
	}
	return toGateView(v), nil
}

// CheckAndOpen loads userID's balance and opens the gate when a free-plan user is out of
// credits. opened reports whether this call opened it. Other balances leave the session unchanged.
func (c *Client) CheckAndOpen(ctx context.Context, sid, userID string) (_ GateView, opened bool, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("check_and_open", start, err, "session_id", sid, "user_id", userID, "opened", opened)
	}()

	v, opened, err := c.gate.CheckUser(ctx, sid, userID)
	if err != nil {
		return GateView{}, false, err
	}
	return toGateView(v), opened, nil
}

// OpenGate shows the upgrade prompt, keeping the last seen balance.
func (c *Client) OpenGate(ctx context.Context, sid string) (_ GateView, err error) {
	start := time.Now()
	defer func() { c.obs.observe("open", start, err, "session_id", sid) }()

	v, err := c.gate.Open(ctx, sid, nil)
	if err != nil {
		return GateView{}, err
	}
	return toGateView(v), nil
}

// CloseGate hides the upgrade prompt.
func (c *Client) CloseGate(ctx context.Context, sid string) (_ GateView, err error) {
	start := time.Now()
	defer func() { c.obs.observe("close", start, err, "session_id", sid) }()

	v, err := c.gate.Close(ctx, sid)
	if err != nil {
		return GateView{}, err
	}
	return toGateView(v), nil
}

// EndSession drops the session and its state.
func (c *Client) EndSession(ctx context.Context, sid string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("end_session", start, err, "session_id", sid) }()

	return c.gate.End(ctx, sid)
}
