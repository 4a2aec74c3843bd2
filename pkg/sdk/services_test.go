package creditgate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jobxpress/creditgate/internal/domain"
	"github.com/jobxpress/creditgate/internal/domain/account"
	"github.com/jobxpress/creditgate/internal/domain/credits"
	"github.com/jobxpress/creditgate/internal/domain/plan"
	gateuc "github.com/jobxpress/creditgate/internal/usecase/gate"
	healthuc "github.com/jobxpress/creditgate/internal/usecase/health"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func freeView(userID string, balance int) account.View {
	a := account.NewFree(userID, userID+"@example.com", now)
	a.Credits = balance
	return account.NewView(a, now)
}

// --- Credits ---

func TestClient_Plans(t *testing.T) {
	c := &Client{}
	plans := c.Plans()
	if len(plans) != 3 {
		t.Fatalf("len = %d, want 3", len(plans))
	}
	if plans[0].Plan != PlanFree || plans[2].Plan != PlanPro {
		t.Errorf("order = %v, %v", plans[0].Plan, plans[2].Plan)
	}
	if plans[1].Price != "9.99" || plans[1].Credits != 100 {
		t.Errorf("starter = %+v", plans[1])
	}
}

func TestClient_Credits(t *testing.T) {
	mock := &mockBillingUC{
		creditsFn: func(_ context.Context, userID string) (account.View, error) {
			if userID != "u1" {
				t.Errorf("userID = %q, want u1", userID)
			}
			return freeView("u1", 3), nil
		},
	}

	c := &Client{billing: mock}
	got, err := c.Credits(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Plan != PlanFree || got.Credits != 3 || got.Allotment != 5 {
		t.Errorf("credits = %+v", got)
	}
	if !got.NextResetAt.Equal(now.AddDate(0, 0, 7)) {
		t.Errorf("NextResetAt = %v", got.NextResetAt)
	}
	if got.Countdown.Kind != CountdownDays || got.Countdown.Days != 7 || got.Countdown.Text != "in 7 days" {
		t.Errorf("countdown = %+v", got.Countdown)
	}
}

func TestClient_Credits_Error(t *testing.T) {
	mock := &mockBillingUC{
		creditsFn: func(_ context.Context, _ string) (account.View, error) {
			return account.View{}, errors.New("db down")
		},
	}

	c := &Client{billing: mock}
	if _, err := c.Credits(context.Background(), "u1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestClient_CanSpend(t *testing.T) {
	mock := &mockBillingUC{
		canSpendFn: func(_ context.Context, _ string, cost int) (bool, int, error) {
			return cost <= 2, 2, nil
		},
	}

	c := &Client{billing: mock}
	ok, available, err := c.CanSpend(context.Background(), "u1", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || available != 2 {
		t.Errorf("CanSpend = (%v, %d), want (false, 2)", ok, available)
	}
}

func TestClient_DebitSearch(t *testing.T) {
	mock := &mockBillingUC{
		debitSearchFn: func(_ context.Context, _ string, results int) (int, error) {
			if results != 12 {
				t.Errorf("results = %d, want 12", results)
			}
			return 4, nil
		},
	}

	c := &Client{billing: mock}
	remaining, err := c.DebitSearch(context.Background(), "u1", 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remaining != 4 {
		t.Errorf("remaining = %d, want 4", remaining)
	}
}

func TestClient_DebitAdvice_Insufficient(t *testing.T) {
	mock := &mockBillingUC{
		debitAdviceFn: func(_ context.Context, _ string) (int, error) {
			return 0, domain.NewInsufficientCredits(1, 0)
		},
	}

	c := &Client{billing: mock}
	_, err := c.DebitAdvice(context.Background(), "u1")
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
	var ice *InsufficientCreditsError
	if !errors.As(err, &ice) || ice.Required != 1 || ice.Available != 0 {
		t.Errorf("details = %+v", ice)
	}
}

func TestClient_ChangePlan(t *testing.T) {
	var gotPlan plan.Plan
	mock := &mockBillingUC{
		changePlanFn: func(_ context.Context, _ string, p plan.Plan, customerID string) (account.Account, error) {
			gotPlan = p
			if customerID != "" {
				t.Errorf("customerID = %q, want empty", customerID)
			}
			return account.Account{}, nil
		},
		creditsFn: func(_ context.Context, userID string) (account.View, error) {
			a := account.NewFree(userID, "", now).SwitchPlan(gotPlan, now)
			return account.NewView(a, now), nil
		},
	}

	c := &Client{billing: mock}
	got, err := c.ChangePlan(context.Background(), "u1", "pro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPlan != plan.Pro {
		t.Errorf("plan = %q, want PRO", gotPlan)
	}
	if got.Plan != PlanPro || got.Credits != 300 {
		t.Errorf("credits = %+v", got)
	}
}

func TestClient_ChangePlan_Unknown(t *testing.T) {
	c := &Client{billing: &mockBillingUC{}}
	_, err := c.ChangePlan(context.Background(), "u1", "GOLD")
	if !errors.Is(err, ErrUnknownPlan) {
		t.Fatalf("err = %v, want ErrUnknownPlan", err)
	}
}

func TestClient_Refill(t *testing.T) {
	refilled := false
	mock := &mockBillingUC{
		refillFn: func(_ context.Context, _ string) (account.Account, error) {
			refilled = true
			return account.Account{}, nil
		},
		creditsFn: func(_ context.Context, userID string) (account.View, error) {
			return freeView(userID, 5), nil
		},
	}

	c := &Client{billing: mock}
	got, err := c.Refill(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !refilled || got.Credits != 5 {
		t.Errorf("refilled = %v credits = %d", refilled, got.Credits)
	}
}

// --- Gate ---

func gatedView(sid string) gateuc.View {
	snap, _ := credits.New(plan.Free, 0, now.Add(36*time.Hour))
	return gateuc.View{
		SessionID:      sid,
		IsOpen:         true,
		Snapshot:       &snap,
		Countdown:      credits.TimeUntilReset(snap, now),
		PaymentLinkURL: "https://buy.stripe.com/x",
	}
}

func TestClient_StartSession(t *testing.T) {
	mock := &mockGateUC{
		startFn: func(_ context.Context, owner string) string {
			if owner != "u1" {
				t.Errorf("owner = %q, want u1", owner)
			}
			return "sess-1"
		},
	}

	c := &Client{gate: mock}
	if sid := c.StartSession(context.Background(), "u1"); sid != "sess-1" {
		t.Errorf("sid = %q, want sess-1", sid)
	}
}

func TestClient_CheckAndOpen(t *testing.T) {
	mock := &mockGateUC{
		checkUserFn: func(_ context.Context, sid, userID string) (gateuc.View, bool, error) {
			if sid != "sess-1" || userID != "u1" {
				t.Errorf("args = (%q, %q)", sid, userID)
			}
			return gatedView(sid), true, nil
		},
	}

	c := &Client{gate: mock}
	v, opened, err := c.CheckAndOpen(context.Background(), "sess-1", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opened || !v.IsOpen {
		t.Errorf("opened = %v, IsOpen = %v", opened, v.IsOpen)
	}
	if v.Plan != PlanFree || v.Credits != 0 {
		t.Errorf("snapshot = (%q, %d)", v.Plan, v.Credits)
	}
	if v.Countdown.Kind != CountdownDays || v.Countdown.Days != 2 {
		t.Errorf("countdown = %+v", v.Countdown)
	}
	if v.PaymentLinkURL != "https://buy.stripe.com/x" {
		t.Errorf("PaymentLinkURL = %q", v.PaymentLinkURL)
	}
}

func TestClient_CheckAndOpen_SessionNotFound(t *testing.T) {
	mock := &mockGateUC{
		checkUserFn: func(_ context.Context, _, _ string) (gateuc.View, bool, error) {
			return gateuc.View{}, false, domain.ErrSessionNotFound
		},
	}

	c := &Client{gate: mock}
	_, opened, err := c.CheckAndOpen(context.Background(), "missing", "u1")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	if opened {
		t.Error("expected opened = false on error")
	}
}

func TestClient_OpenCloseGate(t *testing.T) {
	mock := &mockGateUC{
		openFn: func(_ context.Context, sid string, snapshot *credits.Snapshot) (gateuc.View, error) {
			if snapshot != nil {
				t.Error("expected nil snapshot")
			}
			return gateuc.View{SessionID: sid, IsOpen: true}, nil
		},
		closeFn: func(_ context.Context, sid string) (gateuc.View, error) {
			return gateuc.View{SessionID: sid}, nil
		},
	}

	c := &Client{gate: mock}
	v, err := c.OpenGate(context.Background(), "sess-1")
	if err != nil || !v.IsOpen {
		t.Fatalf("OpenGate = (%+v, %v)", v, err)
	}
	if v.Plan != "" {
		t.Errorf("Plan = %q, want empty without snapshot", v.Plan)
	}

	v, err = c.CloseGate(context.Background(), "sess-1")
	if err != nil || v.IsOpen {
		t.Fatalf("CloseGate = (%+v, %v)", v, err)
	}
}

func TestClient_State(t *testing.T) {
	mock := &mockGateUC{
		stateFn: func(_ context.Context, sid string) (gateuc.View, error) {
			return gatedView(sid), nil
		},
	}

	c := &Client{gate: mock}
	v, err := c.State(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.SessionID != "sess-1" || !v.IsOpen {
		t.Errorf("view = %+v", v)
	}
}

func TestClient_EndSession(t *testing.T) {
	ended := ""
	mock := &mockGateUC{
		endFn: func(_ context.Context, sid string) error {
			ended = sid
			return nil
		},
	}

	c := &Client{gate: mock}
	if err := c.EndSession(context.Background(), "sess-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ended != "sess-1" {
		t.Errorf("ended = %q, want sess-1", ended)
	}
}

// --- Health ---

func TestClient_Health(t *testing.T) {
	mock := &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError},
	}}

	c := &Client{healthSvc: mock}
	h := c.Health(context.Background())
	if h.Healthy() {
		t.Error("expected unhealthy")
	}
	if h.Checks["database"] != "error" {
		t.Errorf("database = %q, want error", h.Checks["database"])
	}
}
