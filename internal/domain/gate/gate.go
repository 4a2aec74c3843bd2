// Package gate decides when the upgrade prompt is shown to a user whose
// allowance is exhausted. State is a value: every transition returns a new State.
package gate

import (
	"github.com/jobxpress/creditgate/internal/domain/credits"
	"github.com/jobxpress/creditgate/internal/domain/plan"
)

// State is the upgrade prompt visibility plus the last credit snapshot seen.
// The zero value is closed with no snapshot.
type State struct {
	open     bool
	snapshot *credits.Snapshot
}

// IsOpen reports whether the upgrade prompt is visible.
func (s State) IsOpen() bool { return s.open }

// Snapshot returns the stored snapshot, if any.
func (s State) Snapshot() (credits.Snapshot, bool) {
	if s.snapshot == nil {
		return credits.Snapshot{}, false
	}
	return *s.snapshot, true
}

// Open shows the prompt. A non-nil snapshot replaces the stored one.
func (s State) Open(snapshot *credits.Snapshot) State {
	s.open = true
	if snapshot != nil {
		c := *snapshot
		s.snapshot = &c
	}
	return s
}

// Close hides the prompt.
func (s State) Close() State {
	s.open = false
	return s
}

// CheckAndOpen opens the prompt with the snapshot when ShouldGate holds.
// Otherwise s is returned untouched and the result is false.
func (s State) CheckAndOpen(snapshot credits.Snapshot) (State, bool) {
	if !ShouldGate(snapshot) {
		return s, false
	}
	return s.Open(&snapshot), true
}

// ShouldGate is the gating predicate: free plan with no credits left.
func ShouldGate(snapshot credits.Snapshot) bool {
	return snapshot.Plan() == plan.Free && snapshot.Credits() == 0
}
