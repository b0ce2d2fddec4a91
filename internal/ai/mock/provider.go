package mock

import (
	"context"
	"strings"

	"github.com/kiranshivaraju/evalhunter/internal/ai"
	"github.com/kiranshivaraju/evalhunter/pkg/models"
)

// embedKeywords maps failure text onto one-hot axes. Texts sharing a
// keyword embed identically, so they always cluster together.
var embedKeywords = []string{"timeout", "assertion", "format", "refusal"}

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Name_          string
	EmbedFunc      func(ctx context.Context, text string) ([]float64, error)
	CategorizeFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return []float64{0, 0, 0}, nil
}

func (m *MockProvider) Categorize(ctx context.Context, prompt string) (string, error) {
	if m.CategorizeFunc != nil {
		return m.CategorizeFunc(ctx, prompt)
	}
	return "", nil
}

// NewMockProvider returns a MockProvider with sensible default responses.
// Embeddings are deterministic one-hot vectors keyed on failure keywords,
// so identical failure kinds land in the same cluster run after run.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		EmbedFunc: func(_ context.Context, text string) ([]float64, error) {
			vec := make([]float64, len(embedKeywords)+1)
			lower := strings.ToLower(text)
			for i, kw := range embedKeywords {
				if strings.Contains(lower, kw) {
					vec[i] = 1
					return vec, nil
				}
			}
			vec[len(embedKeywords)] = 1
			return vec, nil
		},
		CategorizeFunc: func(_ context.Context, _ string) (string, error) {
			return `{"categories": [{"name": "Mock Errors", "description": "Simulated category from mock provider", "errorIndices": [0], "commonPatterns": ["mock pattern"], "suggestions": ["review manually"]}], "insights": "Mock insights for testing"}`, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		EmbedFunc: func(_ context.Context, _ string) ([]float64, error) {
			return nil, err
		},
		CategorizeFunc: func(_ context.Context, _ string) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		EmbedFunc: func(ctx context.Context, _ string) ([]float64, error) {
			<-ctx.Done()
			return nil, ai.ErrInferenceTimeout
		},
		CategorizeFunc: func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ai.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements AIProvider.
var _ models.AIProvider = (*MockProvider)(nil)
