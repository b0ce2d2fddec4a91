package analysis

import (
	"context"
	"fmt"
	"math/rand"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/kiranshivaraju/evalhunter/pkg/models"
	"github.com/kiranshivaraju/evalhunter/pkg/prompts"
)

// defaultEmbedRate paces embedding calls at roughly one per 100ms so a
// burst of failed tests cannot trip provider rate limits.
const defaultEmbedRate = rate.Limit(10)

// Embedder converts one failure text into its embedding vector.
// models.AIProvider satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Engine clusters failed prompt-evaluation tests: group by prompt, embed
// each failure, k-means in embedding space, then attach AI-generated
// categories with a deterministic fallback.
type Engine struct {
	embedder    Embedder
	categorizer Categorizer
	limiter     *rate.Limiter
	rng         *rand.Rand
	builder     prompts.Builder
}

// Option configures an Engine.
type Option func(*Engine)

// WithSeed fixes the random source used for k-means initialization.
// Production code omits it; tests supply one for reproducible clusters.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithLimiter replaces the token bucket pacing embedding calls.
func WithLimiter(l *rate.Limiter) Option {
	return func(e *Engine) { e.limiter = l }
}

// NewEngine creates an Engine with a time-seeded random source and the
// default embedding rate limit.
func NewEngine(embedder Embedder, categorizer Categorizer, opts ...Option) *Engine {
	e := &Engine{
		embedder:    embedder,
		categorizer: categorizer,
		limiter:     rate.NewLimiter(defaultEmbedRate, 1),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cluster groups failed tests by exact prompt, clusters each group in
// embedding space, and attaches categories. Nil or empty input returns a
// well-formed empty result, never an error. An embedding failure aborts
// the whole call; categorization failures degrade to fallback categories
// and never surface.
func (e *Engine) Cluster(ctx context.Context, tests []models.FailedTest) (*models.ClusteringResult, error) {
	start := time.Now()

	if len(tests) == 0 {
		return &models.ClusteringResult{
			PromptClusters: []models.PromptReport{},
			Summary:        models.ClusteringSummary{AnalysisTime: time.Since(start).Milliseconds()},
			Insights:       "No failed tests provided; nothing to cluster.",
		}, nil
	}

	groups := groupByPrompt(tests)

	reports := make([]models.PromptReport, 0, len(groups))
	for _, group := range groups {
		report, err := e.clusterGroup(ctx, group)
		if err != nil {
			return nil, fmt.Errorf("clustering prompt group %q: %w", truncateString(group.prompt, 80), err)
		}
		reports = append(reports, report)
	}

	return &models.ClusteringResult{
		PromptClusters: reports,
		Summary: models.ClusteringSummary{
			TotalFailed:  len(tests),
			TotalPrompts: len(groups),
			AnalysisTime: time.Since(start).Milliseconds(),
		},
		Insights: fmt.Sprintf("Clustered %d failed tests across %d prompts.", len(tests), len(groups)),
	}, nil
}

// promptGroup collects the failed tests sharing one exact prompt string.
type promptGroup struct {
	prompt string
	tests  []models.FailedTest
}

// groupByPrompt buckets tests by exact prompt equality, preserving
// first-appearance order of prompts and input order within each group.
func groupByPrompt(tests []models.FailedTest) []promptGroup {
	index := make(map[string]int)
	groups := []promptGroup{}

	for _, t := range tests {
		i, ok := index[t.Prompt]
		if !ok {
			i = len(groups)
			index[t.Prompt] = i
			groups = append(groups, promptGroup{prompt: t.Prompt})
		}
		groups[i].tests = append(groups[i].tests, t)
	}

	return groups
}

// clusterGroup produces the report for one prompt group. Single-failure
// groups skip embedding entirely.
func (e *Engine) clusterGroup(ctx context.Context, group promptGroup) (models.PromptReport, error) {
	n := len(group.tests)
	if n == 1 {
		return e.singletonReport(group), nil
	}

	records, err := e.embedGroup(ctx, group)
	if err != nil {
		return models.PromptReport{}, err
	}

	vectors := make([][]float64, len(records))
	for i, rec := range records {
		vectors[i] = rec.vector
	}

	km, err := KMeans(vectors, clusterTarget(n), e.rng)
	if err != nil {
		return models.PromptReport{}, err
	}

	summaries := make([]string, len(records))
	for i, rec := range records {
		summaries[i] = e.builder.ErrorSummary(rec.text)
	}
	analysis := analyzeCategories(ctx, e.categorizer, summaries)

	clusters := make([]models.Cluster, 0, len(km.Clusters))
	for i, memberIndices := range km.Clusters {
		cluster, err := buildCluster(i, memberIndices, km.Centroids[i], records)
		if err != nil {
			return models.PromptReport{}, err
		}
		cluster.Category = categoryForCluster(i, cluster.MemberIndices, analysis.Categories)
		clusters = append(clusters, cluster)
	}

	insights := analysis.Insights
	if insights == "" {
		insights = fmt.Sprintf("%d failures grouped into %d clusters.", n, len(clusters))
	}

	return models.PromptReport{
		Prompt:           group.prompt,
		TotalFailedTests: n,
		ClustersFound:    len(clusters),
		AvgClusterSize:   round1(float64(n) / float64(len(clusters))),
		Clusters:         clusters,
		Insights:         insights,
	}, nil
}

// embedGroup synthesizes each test's failure text and embeds it, pacing
// calls through the limiter. Provider failures and empty or ragged vectors
// are fatal to the whole clustering call.
func (e *Engine) embedGroup(ctx context.Context, group promptGroup) ([]groupRecord, error) {
	records := make([]groupRecord, len(group.tests))
	for i, t := range group.tests {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for embed slot: %w", err)
		}

		text := e.builder.EmbeddingText(t)
		vector, err := e.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding failed test %s: %w", t.ID, err)
		}
		if len(vector) == 0 {
			return nil, fmt.Errorf("embedding failed test %s: provider returned empty vector", t.ID)
		}

		records[i] = groupRecord{test: t, text: text, vector: vector}
	}

	dim := len(records[0].vector)
	for _, rec := range records {
		if len(rec.vector) != dim {
			return nil, fmt.Errorf("%w: test %s returned %d dims, expected %d",
				ErrDimensionMismatch, rec.test.ID, len(rec.vector), dim)
		}
	}

	return records, nil
}

// singletonReport short-circuits a one-failure prompt group: one cluster,
// perfect similarity, no AI calls.
func (e *Engine) singletonReport(group promptGroup) models.PromptReport {
	t := group.tests[0]
	errorText := e.builder.ErrorSummary(e.builder.EmbeddingText(t))

	cluster := models.Cluster{
		ID:            0,
		Size:          1,
		MemberIndices: []int{0},
		Members: []models.ClusterMember{{
			Index:         0,
			TestID:        t.ID,
			ErrorText:     errorText,
			Score:         t.Score,
			AssertionType: t.AssertionType,
			Similarity:    1.0,
		}},
		RepresentativeIndex: 0,
		RepresentativeError: errorText,
		AvgSimilarity:       1.0,
		Category: models.ClusterCategory{
			Name:           "Single Error",
			Description:    "Only one failed test for this prompt",
			CommonPatterns: []string{},
			Suggestions:    []string{},
		},
	}

	return models.PromptReport{
		Prompt:           group.prompt,
		TotalFailedTests: 1,
		ClustersFound:    1,
		AvgClusterSize:   1.0,
		Clusters:         []models.Cluster{cluster},
		Insights:         "Single failure; clustering skipped.",
	}
}

// clusterTarget picks k for a group of n failures: roughly one cluster per
// three failures, capped at 5, at least 2, and never more than a small
// group can fill.
func clusterTarget(n int) int {
	maxK := (n + 2) / 3
	if maxK < 2 {
		maxK = 2
	}
	if maxK > 5 {
		maxK = 5
	}
	if n >= 6 {
		return maxK
	}
	if n < 3 {
		return n
	}
	return 3
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
