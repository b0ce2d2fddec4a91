package ai

import (
	"fmt"

	"github.com/kiranshivaraju/evalhunter/internal/ai/ollama"
	"github.com/kiranshivaraju/evalhunter/internal/ai/openai"
	"github.com/kiranshivaraju/evalhunter/internal/config"
	"github.com/kiranshivaraju/evalhunter/pkg/models"
)

// NewProvider selects the model backend named by cfg.Provider. The
// choice happens once at startup; everything downstream holds the
// models.AIProvider interface and never learns which backend answered.
func NewProvider(cfg config.AIConfig) (models.AIProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewProvider(cfg.Ollama), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of ollama, openai", cfg.Provider)
	}
}
