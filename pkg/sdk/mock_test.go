package creditgate

import (
	"context"

	"github.com/jobxpress/creditgate/internal/domain/account"
	"github.com/jobxpress/creditgate/internal/domain/credits"
	"github.com/jobxpress/creditgate/internal/domain/plan"
	gateuc "github.com/jobxpress/creditgate/internal/usecase/gate"
	healthuc "github.com/jobxpress/creditgate/internal/usecase/health"
)

// --- billingUseCase mock ---

type mockBillingUC struct {
	creditsFn     func(ctx context.Context, userID string) (account.View, error)
	canSpendFn    func(ctx context.Context, userID string, cost int) (bool, int, error)
	debitSearchFn func(ctx context.Context, userID string, results int) (int, error)
	debitAdviceFn func(ctx context.Context, userID string) (int, error)
	changePlanFn  func(ctx context.Context, userID string, p plan.Plan, customerID string) (account.Account, error)
	refillFn      func(ctx context.Context, userID string) (account.Account, error)
}

func (m *mockBillingUC) Credits(ctx context.Context, userID string) (account.View, error) {
	return m.creditsFn(ctx, userID)
}

func (m *mockBillingUC) CanSpend(ctx context.Context, userID string, cost int) (bool, int, error) {
	return m.canSpendFn(ctx, userID, cost)
}

func (m *mockBillingUC) DebitSearch(ctx context.Context, userID string, results int) (int, error) {
	return m.debitSearchFn(ctx, userID, results)
}

func (m *mockBillingUC) DebitAdvice(ctx context.Context, userID string) (int, error) {
	return m.debitAdviceFn(ctx, userID)
}

func (m *mockBillingUC) ChangePlan(
	ctx context.Context, userID string, p plan.Plan, customerID string,
) (account.Account, error) {
	return m.changePlanFn(ctx, userID, p, customerID)
}

func (m *mockBillingUC) Refill(ctx context.Context, userID string) (account.Account, error) {
	return m.refillFn(ctx, userID)
}

// --- gateUseCase mock ---

type mockGateUC struct {
	startFn     func(ctx context.Context, owner string) string
	stateFn     func(ctx context.Context, sid string) (gateuc.View, error)
	openFn      func(ctx context.Context, sid string, snapshot *credits.Snapshot) (gateuc.View, error)
	closeFn     func(ctx context.Context, sid string) (gateuc.View, error)
	checkUserFn func(ctx context.Context, sid, userID string) (gateuc.View, bool, error)
	endFn       func(ctx context.Context, sid string) error
}

func (m *mockGateUC) Start(ctx context.Context, owner string) string {
	return m.startFn(ctx, owner)
}

func (m *mockGateUC) State(ctx context.Context, sid string) (gateuc.View, error) {
	return m.stateFn(ctx, sid)
}

func (m *mockGateUC) Open(ctx context.Context, sid string, snapshot *credits.Snapshot) (gateuc.View, error) {
	return m.openFn(ctx, sid, snapshot)
}

func (m *mockGateUC) Close(ctx context.Context, sid string) (gateuc.View, error) {
	return m.closeFn(ctx, sid)
}

func (m *mockGateUC) CheckUser(ctx context.Context, sid, userID string) (gateuc.View, bool, error) {
	return m.checkUserFn(ctx, sid, userID)
}

func (m *mockGateUC) End(ctx context.Context, sid string) error {
	return m.endFn(ctx, sid)
}

func (m *mockGateUC) Run(_ context.Context) {}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report {
	return m.report
}
