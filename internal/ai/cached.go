package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/kiranshivaraju/evalhunter/internal/analysis"
	"github.com/kiranshivaraju/evalhunter/internal/cache"
	"github.com/kiranshivaraju/evalhunter/pkg/models"
)

// embeddingTTL bounds how long a cached vector is reused. Model updates
// under the same name roll over within a day.
const embeddingTTL = 24 * time.Hour

// CachingEmbedder wraps a provider with a content-addressed embedding
// cache. The same failure text embeds once per model per day no matter
// how many clustering runs include it. Cache errors degrade to direct
// provider calls and never fail the request.
type CachingEmbedder struct {
	provider models.AIProvider
	cache    cache.Cache
	model    string
}

// NewCachingEmbedder creates a CachingEmbedder keyed on the given
// embedding model name.
func NewCachingEmbedder(provider models.AIProvider, ca cache.Cache, model string) *CachingEmbedder {
	return &CachingEmbedder{
		provider: provider,
		cache:    ca,
		model:    model,
	}
}

func (e *CachingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	key := cache.EmbeddingKey(e.model, hashText(text))

	if raw, found, err := e.cache.Get(ctx, key); err == nil && found {
		var vec []float64
		if err := json.Unmarshal(raw, &vec); err == nil && len(vec) > 0 {
			return vec, nil
		}
	}

	vec, err := e.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(vec); err == nil {
		_ = e.cache.Set(ctx, key, raw, embeddingTTL)
	}

	return vec, nil
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Compile-time check that CachingEmbedder slots into the engine.
var _ analysis.Embedder = (*CachingEmbedder)(nil)
