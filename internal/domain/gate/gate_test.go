package gate

import (
	"testing"
	"time"

	"github.com/jobxpress/creditgate/internal/domain/credits"
	"github.com/jobxpress/creditgate/internal/domain/plan"
)

func snap(t *testing.T, p plan.Plan, n int) credits.Snapshot {
	t.Helper()
	s, err := credits.New(p, n, time.Now().Add(48*time.Hour))
	if err != nil {
		t.Fatalf("credits.New: %v", err)
	}
	return s
}

func TestZeroState(t *testing.T) {
	var s State
	if s.IsOpen() {
		t.Error("zero state should be closed")
	}
	if _, ok := s.Snapshot(); ok {
		t.Error("zero state should have no snapshot")
	}
}

func TestCheckAndOpen_FreeExhausted(t *testing.T) {
	var s State
	next, gated := s.CheckAndOpen(snap(t, plan.Free, 0))
	if !gated {
		t.Fatal("expected gated=true")
	}
	if !next.IsOpen() {
		t.Error("expected open state")
	}
	stored, ok := next.Snapshot()
	if !ok || stored.Plan() != plan.Free || stored.Credits() != 0 {
		t.Errorf("unexpected stored snapshot: %+v (ok=%v)", stored, ok)
	}
}

func TestCheckAndOpen_FreeWithCredits(t *testing.T) {
	var s State
	next, gated := s.CheckAndOpen(snap(t, plan.Free, 5))
	if gated {
		t.Fatal("expected gated=false")
	}
	if next != s {
		t.Error("state must be unchanged when not gated")
	}
}

func TestCheckAndOpen_PaidExhausted(t *testing.T) {
	var s State
	next, gated := s.CheckAndOpen(snap(t, plan.Starter, 0))
	if gated {
		t.Fatal("expected gated=false for STARTER")
	}
	if next != s {
		t.Error("state must be unchanged when not gated")
	}
}

func TestCheckAndOpen_NotGatedKeepsExistingSnapshot(t *testing.T) {
	first := snap(t, plan.Free, 0)
	s := State{}.Open(&first)

	next, gated := s.CheckAndOpen(snap(t, plan.Pro, 0))
	if gated {
		t.Fatal("expected gated=false")
	}
	stored, _ := next.Snapshot()
	if stored.Plan() != plan.Free {
		t.Errorf("snapshot replaced on a passing check: %q", stored.Plan())
	}
}

func TestOpenCloseOpen(t *testing.T) {
	var s State
	s = s.Open(nil)
	s = s.Close()
	s = s.Open(nil)
	if !s.IsOpen() {
		t.Fatal("expected open after open/close/open")
	}
	s = s.Open(nil)
	if !s.IsOpen() {
		t.Error("repeated Open must keep the state open")
	}
}

func TestOpen_ReplacesSnapshot(t *testing.T) {
	a := snap(t, plan.Free, 0)
	b := snap(t, plan.Free, 3)

	s := State{}.Open(&a).Open(&b)
	stored, ok := s.Snapshot()
	if !ok || stored.Credits() != 3 {
		t.Errorf("expected replaced snapshot with 3 credits, got %+v", stored)
	}

	s = s.Open(nil)
	stored, _ = s.Snapshot()
	if stored.Credits() != 3 {
		t.Error("Open(nil) must keep the stored snapshot")
	}
}

func TestClose_Idempotent(t *testing.T) {
	s := State{}.Close().Close()
	if s.IsOpen() {
		t.Error("expected closed")
	}
}

func TestShouldGate(t *testing.T) {
	tests := []struct {
		plan    plan.Plan
		credits int
		want    bool
	}{
		{plan.Free, 0, true},
		{plan.Free, 1, false},
		{plan.Starter, 0, false},
		{plan.Pro, 0, false},
	}
	for _, tc := range tests {
		if got := ShouldGate(snap(t, tc.plan, tc.credits)); got != tc.want {
			t.Errorf("ShouldGate(%s, %d) = %v, want %v", tc.plan, tc.credits, got, tc.want)
		}
	}
}
