package credits

import (
	"errors"
	"testing"
	"time"

	"github.com/jobxpress/creditgate/internal/domain"
	"github.com/jobxpress/creditgate/internal/domain/plan"
)

func TestNew(t *testing.T) {
	reset := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	s, err := New(plan.Starter, 42, reset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Plan() != plan.Starter {
		t.Errorf("Plan() = %q", s.Plan())
	}
	if s.Credits() != 42 {
		t.Errorf("Credits() = %d", s.Credits())
	}
	if !s.NextResetAt().Equal(reset) {
		t.Errorf("NextResetAt() = %v", s.NextResetAt())
	}
	if !s.HasReset() {
		t.Error("HasReset() = false, want true")
	}
}

func TestNew_NegativeCredits(t *testing.T) {
	_, err := New(plan.Free, -1, time.Time{})
	if !errors.Is(err, domain.ErrInvalidCredits) {
		t.Fatalf("expected ErrInvalidCredits, got %v", err)
	}
}

func TestNew_ZeroAllowed(t *testing.T) {
	s, err := New(plan.Free, 0, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.HasReset() {
		t.Error("HasReset() = true for zero time")
	}
}
