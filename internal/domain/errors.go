package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrSessionNotFound signals an unknown or expired gate session.
	ErrSessionNotFound = errors.New("gate session not found")
	// ErrUnknownPlan signals a plan name outside the catalog.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrInvalidCredits signals a negative credit balance.
	ErrInvalidCredits = errors.New("invalid credits")
	// ErrInsufficientCredits signals a balance below the operation cost.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrInvalidPayload signals a malformed request or webhook body.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrInvalidSignature signals a webhook payload whose signature does not verify.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrUnauthorized signals a missing or invalid access token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrLLMProviderError signals an LLM provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)

// InsufficientCreditsError wraps ErrInsufficientCredits with the amounts involved.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("%s: required %d, available %d", ErrInsufficientCredits.Error(), e.Required, e.Available)
}

func (e *InsufficientCreditsError) Unwrap() error { return ErrInsufficientCredits }

// NewInsufficientCredits creates an insufficient credits error.
func NewInsufficientCredits(required, available int) error {
	return &InsufficientCreditsError{Required: required, Available: available}
}
