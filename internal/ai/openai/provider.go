package openai

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/evalhunter/internal/config"
	"github.com/kiranshivaraju/evalhunter/pkg/models"
	goopenai "github.com/sashabaranov/go-openai"
)

// Provider implements models.AIProvider using the OpenAI API.
type Provider struct {
	cfg    config.OpenAIConfig
	client *goopenai.Client
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Provider{
		cfg:    cfg,
		client: goopenai.NewClientWithConfig(clientCfg),
	}
}

func (p *Provider) Name() string { return "openai" }

// Embed converts one failure text into its embedding vector using the
// configured embedding model.
func (p *Provider) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := p.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: []string{text},
		Model: goopenai.EmbeddingModel(p.cfg.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response data")
	}

	// The SDK returns float32; the clustering math runs on float64.
	raw := resp.Data[0].Embedding
	vec := make([]float64, len(raw))
	for i, v := range raw {
		vec[i] = float64(v)
	}

	return vec, nil
}

// Categorize sends a categorization prompt to the configured chat model
// and returns the raw completion text.
func (p *Provider) Categorize(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: p.cfg.ChatModel,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: no choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// Compile-time check that Provider implements AIProvider.
var _ models.AIProvider = (*Provider)(nil)
