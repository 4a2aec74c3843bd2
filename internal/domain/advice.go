package domain

import "context"

// AdviceRequest describes the job offer an interview advice is generated for.
type AdviceRequest struct {
	JobTitle    string
	Company     string
	Description string
}

// AdviceResult is the generated advice and the tokens it consumed.
type AdviceResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Advisor generates interview advice with an LLM.
type Advisor interface {
	Advise(ctx context.Context, req AdviceRequest) (AdviceResult, error)
}
