package domain

import (
	"context"
	"testing"
)

func TestSpendFromContext_Missing(t *testing.T) {
	if s := SpendFromContext(context.Background()); s != nil {
		t.Errorf("expected nil, got %+v", s)
	}
	// Recording into a nil collector is a no-op.
	SpendFromContext(context.Background()).Record(1, 4)
}

func TestSpend_Record(t *testing.T) {
	ctx, s := NewContextWithSpend(context.Background())
	if got := SpendFromContext(ctx); got != s {
		t.Fatal("collector not found in context")
	}

	s.Record(0, 5)
	if !s.Recorded || s.Debited != 0 || s.Remaining != 5 {
		t.Errorf("after free record: %+v", s)
	}

	s.Record(1, 4)
	s.Record(1, 3)
	if s.Debited != 2 || s.Remaining != 3 {
		t.Errorf("Debited = %d, Remaining = %d, want 2, 3", s.Debited, s.Remaining)
	}
}
