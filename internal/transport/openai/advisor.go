package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/jobxpress/creditgate/internal/domain"
	"github.com/jobxpress/creditgate/internal/metrics"
)

const (
	systemPrompt = "You are a senior recruiter. Give concise, concrete interview preparation advice " +
		"for the job offer below: likely questions, what to emphasize, and one pitfall to avoid."

	maxDescriptionRunes = 1500
)

// Advisor is an interview advice provider using the OpenAI-compatible API (e.g. DeepSeek).
type Advisor struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	provider    string
	logger      *zap.Logger
}

// Config holds the LLM provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Provider    string
	Logger      *zap.Logger
}

// NewAdvisor creates an OpenAI-compatible advice provider.
func NewAdvisor(cfg *Config) *Advisor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Advisor{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
}

// Advise implements domain.Advisor with transport-level metrics.
func (a *Advisor) Advise(ctx context.Context, req domain.AdviceRequest) (domain.AdviceResult, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(req)},
		},
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	}

	start := time.Now()

	resp, err := a.client.CreateChatCompletion(ctx, chatReq)

	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(a.provider, a.model, "error").Inc()
		a.logger.Error("LLM request failed",
			zap.String("provider", a.provider),
			zap.String("model", a.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.AdviceResult{}, parseAPIError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.LLMRequestsTotal.WithLabelValues(a.provider, a.model, "error").Inc()
		return domain.AdviceResult{}, fmt.Errorf("empty completion: %w", domain.ErrLLMProviderError)
	}

	metrics.LLMRequestsTotal.WithLabelValues(a.provider, a.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(a.provider, a.model).Observe(duration.Seconds())
	metrics.LLMTokensTotal.WithLabelValues(a.provider, a.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensTotal.WithLabelValues(a.provider, a.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	return domain.AdviceResult{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (a *Advisor) HealthCheck(ctx context.Context) error {
	if _, err := a.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func userPrompt(req domain.AdviceRequest) string {
	desc := req.Description
	if r := []rune(desc); len(r) > maxDescriptionRunes {
		desc = string(r[:maxDescriptionRunes]) + "..."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Job title: %s\n", req.JobTitle)
	if req.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", req.Company)
	}
	if desc != "" {
		fmt.Fprintf(&b, "Description:\n%s\n", desc)
	}
	return b.String()
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrLLMProviderError for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrLLMProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("LLM API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("LLM API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("LLM API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("LLM request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
