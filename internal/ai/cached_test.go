package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/evalhunter/internal/cache"
)

// memCache is an in-memory cache.Cache with injectable failures.
type memCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Ping(_ context.Context) error { return nil }
func (c *memCache) SetJobStatus(_ context.Context, _ uuid.UUID, _ string, _ time.Duration) error {
	return nil
}
func (c *memCache) GetJobStatus(_ context.Context, _ uuid.UUID) (string, bool, error) {
	return "", false, nil
}
func (c *memCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 0, nil
}

func (c *memCache) entries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// --- tests ---

func TestCachingEmbedder_MissThenHit(t *testing.T) {
	provider := &mockProvider{name: "mock"}
	ca := newMemCache()
	e := NewCachingEmbedder(provider, ca, "nomic-embed-text")

	first, err := e.Embed(context.Background(), "Error: timeout after 30s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := e.Embed(context.Background(), "Error: timeout after 30s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("vector length changed between calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("cached vector differs at %d: %v vs %v", i, first, second)
		}
	}

	embeds, _ := provider.calls()
	if embeds != 1 {
		t.Errorf("expected 1 provider call, got %d", embeds)
	}
}

func TestCachingEmbedder_DistinctTexts(t *testing.T) {
	provider := &mockProvider{name: "mock"}
	ca := newMemCache()
	e := NewCachingEmbedder(provider, ca, "nomic-embed-text")

	if _, err := e.Embed(context.Background(), "Error: timeout"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.Embed(context.Background(), "Error: wrong format"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	embeds, _ := provider.calls()
	if embeds != 2 {
		t.Errorf("expected 2 provider calls, got %d", embeds)
	}
	if ca.entries() != 2 {
		t.Errorf("expected 2 cache entries, got %d", ca.entries())
	}
}

func TestCachingEmbedder_ModelScopesKey(t *testing.T) {
	provider := &mockProvider{name: "mock"}
	ca := newMemCache()

	a := NewCachingEmbedder(provider, ca, "nomic-embed-text")
	b := NewCachingEmbedder(provider, ca, "text-embedding-3-small")

	if _, err := a.Embed(context.Background(), "Error: timeout"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := b.Embed(context.Background(), "Error: timeout"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same text under different models must not share an entry.
	embeds, _ := provider.calls()
	if embeds != 2 {
		t.Errorf("expected 2 provider calls, got %d", embeds)
	}
	if ca.entries() != 2 {
		t.Errorf("expected 2 cache entries, got %d", ca.entries())
	}
}

func TestCachingEmbedder_GetErrorDegrades(t *testing.T) {
	provider := &mockProvider{name: "mock"}
	ca := newMemCache()
	ca.getErr = errors.New("redis down")

	e := NewCachingEmbedder(provider, ca, "nomic-embed-text")

	vec, err := e.Embed(context.Background(), "Error: timeout")
	if err != nil {
		t.Fatalf("cache failure must not fail the embed: %v", err)
	}
	if len(vec) == 0 {
		t.Error("expected a vector despite cache failure")
	}
}

func TestCachingEmbedder_SetErrorIgnored(t *testing.T) {
	provider := &mockProvider{name: "mock"}
	ca := newMemCache()
	ca.setErr = errors.New("redis down")

	e := NewCachingEmbedder(provider, ca, "nomic-embed-text")

	vec, err := e.Embed(context.Background(), "Error: timeout")
	if err != nil {
		t.Fatalf("cache failure must not fail the embed: %v", err)
	}
	if len(vec) == 0 {
		t.Error("expected a vector despite cache failure")
	}
}

func TestCachingEmbedder_ProviderErrorPropagates(t *testing.T) {
	provider := &mockProvider{
		name: "mock",
		embedFunc: func(_ context.Context, _ string) ([]float64, error) {
			return nil, ErrProviderUnavailable
		},
	}
	ca := newMemCache()
	e := NewCachingEmbedder(provider, ca, "nomic-embed-text")

	_, err := e.Embed(context.Background(), "Error: timeout")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
	if ca.entries() != 0 {
		t.Errorf("expected nothing cached on provider failure, got %d entries", ca.entries())
	}
}

func TestCachingEmbedder_CorruptEntryRefetches(t *testing.T) {
	provider := &mockProvider{name: "mock"}
	ca := newMemCache()
	e := NewCachingEmbedder(provider, ca, "nomic-embed-text")

	key := cache.EmbeddingKey("nomic-embed-text", hashText("Error: timeout"))
	ca.data[key] = []byte("{not json")

	vec, err := e.Embed(context.Background(), "Error: timeout")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) == 0 {
		t.Error("expected a vector")
	}

	embeds, _ := provider.calls()
	if embeds != 1 {
		t.Errorf("expected corrupt entry to fall through to the provider, got %d calls", embeds)
	}
}
