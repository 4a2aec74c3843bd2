package domain

import "context"

type spendKey struct{}

// Spend collects the credit movement of a single HTTP request.
// The handler puts a mutable pointer into the context before calling the service;
// the service writes after the debit; the handler reads it for response headers.
type Spend struct {
	Debited   int
	Remaining int
	Recorded  bool // true once the balance is known, even when nothing was debited
}

// NewContextWithSpend returns a context with an embedded spend collector.
func NewContextWithSpend(ctx context.Context) (context.Context, *Spend) {
	s := &Spend{}
	return context.WithValue(ctx, spendKey{}, s), s
}

// SpendFromContext extracts the spend collector from context. Returns nil if not set.
func SpendFromContext(ctx context.Context) *Spend {
	s, _ := ctx.Value(spendKey{}).(*Spend)
	return s
}

// Record stores the debited amount and the balance left after it.
func (s *Spend) Record(debited, remaining int) {
	if s != nil {
		s.Debited += debited
		s.Remaining = remaining
		s.Recorded = true
	}
}
