package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kiranshivaraju/evalhunter/internal/config"
	goopenai "github.com/sashabaranov/go-openai"
)

func newTestProvider(t *testing.T, baseURL string) *Provider {
	t.Helper()
	return NewProvider(config.OpenAIConfig{
		APIKey:         "sk-test",
		BaseURL:        baseURL,
		EmbeddingModel: "text-embedding-3-small",
		ChatModel:      "gpt-4o-mini",
	})
}

func TestName(t *testing.T) {
	p := newTestProvider(t, "")
	if p.Name() != "openai" {
		t.Errorf("expected name %q, got %q", "openai", p.Name())
	}
}

func TestEmbed_ValidResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected auth header: %s", auth)
		}

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "text-embedding-3-small" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if len(req.Input) != 1 || req.Input[0] != "Error: off by one" {
			t.Errorf("unexpected input: %v", req.Input)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [{"object": "embedding", "index": 0, "embedding": [0.25, 0.5, -0.75]}],
			"model": "text-embedding-3-small",
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	}))
	defer ts.Close()

	p := newTestProvider(t, ts.URL)
	vec, err := p.Embed(context.Background(), "Error: off by one")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(vec))
	}
	if vec[0] != 0.25 || vec[1] != 0.5 || vec[2] != -0.75 {
		t.Errorf("unexpected vector: %v", vec)
	}
}

func TestEmbed_EmptyData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object": "list", "data": [], "model": "text-embedding-3-small"}`))
	}))
	defer ts.Close()

	p := newTestProvider(t, ts.URL)
	_, err := p.Embed(context.Background(), "some text")
	if err == nil || !strings.Contains(err.Error(), "empty response data") {
		t.Errorf("expected empty data error, got %v", err)
	}
}

func TestEmbed_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "server overloaded", "type": "server_error"}}`))
	}))
	defer ts.Close()

	p := newTestProvider(t, ts.URL)
	_, err := p.Embed(context.Background(), "some text")
	if err == nil {
		t.Fatal("expected an error")
	}

	var apiErr *goopenai.APIError
	if !errors.As(err, &apiErr) {
		t.Errorf("expected APIError in chain, got %v", err)
	}
}

func TestCategorize_ValidResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-test",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"categories\": []}"}, "finish_reason": "stop"}]
		}`))
	}))
	defer ts.Close()

	p := newTestProvider(t, ts.URL)
	out, err := p.Categorize(context.Background(), "categorize these failures")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"categories": []}` {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestCategorize_NoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-test", "object": "chat.completion", "choices": []}`))
	}))
	defer ts.Close()

	p := newTestProvider(t, ts.URL)
	_, err := p.Categorize(context.Background(), "categorize these failures")
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Errorf("expected no choices error, got %v", err)
	}
}
