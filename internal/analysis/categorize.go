package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kiranshivaraju/evalhunter/pkg/models"
	"github.com/kiranshivaraju/evalhunter/pkg/prompts"
)

// Categorizer produces raw category-analysis text for a categorization
// prompt. models.AIProvider satisfies it.
type Categorizer interface {
	Categorize(ctx context.Context, prompt string) (string, error)
}

// categoryAnalysis is the parsed (or fallback) output of one category request.
type categoryAnalysis struct {
	Categories []models.ClusterCategory
	Insights   string
}

// categoryResponse is the JSON shape requested from the model.
type categoryResponse struct {
	Categories []models.ClusterCategory `json:"categories"`
	Insights   string                   `json:"insights"`
}

// analyzeCategories asks the categorizer to group the numbered failure
// summaries of one prompt group. Any failure along the way (call error,
// unparseable reply, zero categories) degrades to a single generic
// category covering every index; it never returns an error.
func analyzeCategories(ctx context.Context, categorizer Categorizer, summaries []string) categoryAnalysis {
	prompt := prompts.Builder{}.CategorizationPrompt(summaries)

	raw, err := categorizer.Categorize(ctx, prompt)
	if err != nil {
		slog.Warn("category analysis failed, using fallback", "error", err)
		return fallbackAnalysis(len(summaries), "")
	}

	parsed, err := parseCategoryResponse(raw)
	if err != nil {
		slog.Warn("unparseable category response, using fallback", "error", err)
		return fallbackAnalysis(len(summaries), raw)
	}

	return parsed
}

// fallbackAnalysis covers every index with one generic category. The raw
// model text (when there is one) is preserved as insights so a human can
// still read what the model said.
func fallbackAnalysis(count int, raw string) categoryAnalysis {
	indices := make([]int, count)
	for i := range indices {
		indices[i] = i
	}

	return categoryAnalysis{
		Categories: []models.ClusterCategory{{
			Name:           "General Errors",
			Description:    "Errors that could not be automatically categorized",
			ErrorIndices:   indices,
			CommonPatterns: []string{"Mixed failure modes"},
			Suggestions:    []string{"Review individual failures for prompt or assertion fixes"},
		}},
		Insights: raw,
	}
}

// parseCategoryResponse extracts and decodes the first top-level JSON
// object from the raw model output.
func parseCategoryResponse(raw string) (categoryAnalysis, error) {
	block, ok := firstJSONObject(raw)
	if !ok {
		return categoryAnalysis{}, errors.New("no JSON object in response")
	}

	var resp categoryResponse
	if err := json.Unmarshal([]byte(block), &resp); err != nil {
		return categoryAnalysis{}, fmt.Errorf("decoding category JSON: %w", err)
	}
	if len(resp.Categories) == 0 {
		return categoryAnalysis{}, errors.New("response contains no categories")
	}

	return categoryAnalysis{Categories: resp.Categories, Insights: resp.Insights}, nil
}

// firstJSONObject returns the first balanced top-level {...} block in s,
// tolerating prose or code fences around it. Braces inside JSON strings
// do not count toward nesting.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// categoryForCluster resolves a cluster's category: the first AI category
// whose errorIndices intersects the cluster's membership, else a numbered
// placeholder.
func categoryForCluster(clusterID int, memberIndices []int, categories []models.ClusterCategory) models.ClusterCategory {
	members := make(map[int]struct{}, len(memberIndices))
	for _, idx := range memberIndices {
		members[idx] = struct{}{}
	}

	for _, cat := range categories {
		for _, idx := range cat.ErrorIndices {
			if _, ok := members[idx]; ok {
				return cat
			}
		}
	}

	return models.ClusterCategory{
		Name:           fmt.Sprintf("Cluster %d", clusterID+1),
		Description:    "Grouped errors with similar patterns",
		CommonPatterns: []string{},
		Suggestions:    []string{},
	}
}
