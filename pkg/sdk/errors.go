package creditgate

import "github.com/jobxpress/creditgate/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound            = domain.ErrNotFound
	ErrSessionNotFound     = domain.ErrSessionNotFound
	ErrUnknownPlan         = domain.ErrUnknownPlan
	ErrInvalidCredits      = domain.ErrInvalidCredits
	ErrInsufficientCredits = domain.ErrInsufficientCredits
)

// InsufficientCreditsError carries the required and available balance of a refused debit.
// Use errors.As() to read it.
type InsufficientCreditsError = domain.InsufficientCreditsError
