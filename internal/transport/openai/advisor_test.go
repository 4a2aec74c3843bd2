package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/jobxpress/creditgate/internal/domain"
	"github.com/jobxpress/creditgate/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterLLMMetrics()
	os.Exit(m.Run())
}

func newTestAdvisor(url string) *Advisor {
	return NewAdvisor(&Config{
		APIKey:    "test-key",
		BaseURL:   url,
		Model:     "deepseek-chat",
		MaxTokens: 400,
		Provider:  "test",
		Logger:    zap.NewNop(),
	})
}

func TestAdvisor_Advise(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			MaxTokens int `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "deepseek-chat" || req.MaxTokens != 400 {
			t.Errorf("unexpected request: %+v", req)
		}
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, "Backend Engineer") {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "deepseek-chat",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "  Prepare a system design story.  "},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 55, "completion_tokens": 12, "total_tokens": 67},
		})
	}))
	defer server.Close()

	res, err := newTestAdvisor(server.URL).Advise(context.Background(), domain.AdviceRequest{
		JobTitle: "Backend Engineer",
		Company:  "Acme",
	})
	if err != nil {
		t.Fatalf("Advise failed: %v", err)
	}
	if res.Text != "Prepare a system design story." {
		t.Errorf("Text = %q", res.Text)
	}
	if res.PromptTokens != 55 || res.CompletionTokens != 12 {
		t.Errorf("tokens = %d/%d", res.PromptTokens, res.CompletionTokens)
	}
}

func TestAdvisor_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "x", "choices": []any{}})
	}))
	defer server.Close()

	_, err := newTestAdvisor(server.URL).Advise(context.Background(), domain.AdviceRequest{JobTitle: "x"})
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Errorf("expected ErrLLMProviderError, got %v", err)
	}
}

func TestAdvisor_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "rate limit exceeded",
				"type":    "rate_limit_error",
			},
		})
	}))
	defer server.Close()

	_, err := newTestAdvisor(server.URL).Advise(context.Background(), domain.AdviceRequest{JobTitle: "x"})
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Fatalf("expected ErrLLMProviderError for 429 response, got %v", err)
	}
}

func TestUserPrompt_TruncatesDescription(t *testing.T) {
	long := strings.Repeat("é", maxDescriptionRunes+10)
	p := userPrompt(domain.AdviceRequest{JobTitle: "Dev", Description: long})

	if !strings.Contains(p, "Job title: Dev") {
		t.Errorf("missing title: %q", p[:40])
	}
	if strings.Contains(p, "Company:") {
		t.Error("empty company must be omitted")
	}
	if got := strings.Count(p, "é"); got != maxDescriptionRunes {
		t.Errorf("description runes = %d, want %d", got, maxDescriptionRunes)
	}
}

func TestExtractDetail(t *testing.T) {
	if got := extractDetail([]byte(`{"detail":"model not found"}`)); got != "model not found" {
		t.Errorf("extractDetail = %q", got)
	}
	if got := extractDetail([]byte(`oops`)); got != "" {
		t.Errorf("extractDetail = %q, want empty", got)
	}
}
