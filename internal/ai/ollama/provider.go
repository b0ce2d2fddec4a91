package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/kiranshivaraju/evalhunter/internal/config"
	"github.com/kiranshivaraju/evalhunter/pkg/models"
)

// Sentinel errors for Ollama failures.
var (
	ErrOllamaUnreachable = errors.New("ollama unreachable")
	ErrOllamaTimeout     = errors.New("ollama request timeout")
	ErrOllamaResponse    = errors.New("ollama returned invalid response")
)

// Provider implements models.AIProvider against a local Ollama server.
// Embeddings go through /api/embeddings, categorization through /api/generate.
type Provider struct {
	cfg    config.OllamaConfig
	client *http.Client
}

func NewProvider(cfg config.OllamaConfig) *Provider {
	return &Provider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (p *Provider) Name() string { return "ollama" }

// Embed converts one failure text into its embedding vector using the
// configured embedding model.
func (p *Provider) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embedRequest{
		Model:  p.cfg.EmbeddingModel,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding embed request: %w", err)
	}

	raw, err := p.post(ctx, "/api/embeddings", body)
	if err != nil {
		return nil, err
	}

	var embedResp embedResponse
	if err := json.Unmarshal(raw, &embedResp); err != nil {
		return nil, fmt.Errorf("%w: decoding embed response: %v", ErrOllamaResponse, err)
	}
	if len(embedResp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrOllamaResponse)
	}

	return embedResp.Embedding, nil
}

// Categorize sends a categorization prompt to the configured chat model
// and returns the raw completion text.
func (p *Provider) Categorize(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  p.cfg.ChatModel,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("encoding generate request: %w", err)
	}

	raw, err := p.post(ctx, "/api/generate", body)
	if err != nil {
		return "", err
	}

	var genResp generateResponse
	if err := json.Unmarshal(raw, &genResp); err != nil {
		return "", fmt.Errorf("%w: decoding generate response: %v", ErrOllamaResponse, err)
	}

	return genResp.Response, nil
}

// post sends a JSON request to the given Ollama path and returns the raw body.
func (p *Provider) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	u := p.cfg.BaseURL + path

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrOllamaResponse, resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return buf.Bytes(), nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrOllamaTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrOllamaTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrOllamaUnreachable, err)
}

// --- Ollama API types ---

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Compile-time check that Provider implements AIProvider.
var _ models.AIProvider = (*Provider)(nil)
