// Package models contains shared data models used across the EvalHunter codebase.
package models

import (
	"context"
)

// AIProvider is the model backend behind embedding and categorization.
// Callers hold this interface, never a concrete provider.
type AIProvider interface {
	// Embed converts one failure text into its embedding vector.
	Embed(ctx context.Context, text string) ([]float64, error)
	// Categorize sends a categorization prompt and returns the raw model output.
	Categorize(ctx context.Context, prompt string) (string, error)
	// Name identifies the backend ("ollama", "openai", "mock").
	Name() string
}
