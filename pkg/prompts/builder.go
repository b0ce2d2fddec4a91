package prompts

import (
	"fmt"
	"strings"

	"github.com/kiranshivaraju/evalhunter/pkg/models"
)

// UnknownReason is substituted when a failed test carries no failure reason.
const UnknownReason = "Unknown error"

const categoryJSONShape = `{
  "categories": [
    {
      "name": "short category name",
      "description": "what unites these failures",
      "errorIndices": [0, 1],
      "commonPatterns": ["recurring pattern seen in these failures"],
      "suggestions": ["how to fix the prompt or the expectation"]
    }
  ],
  "insights": "overall observations across all failures"
}`

// Builder constructs the text payloads sent to AI providers.
// All methods are pure functions with no side effects.
// Zero value is ready to use.
type Builder struct{}

// EmbeddingText returns the text embedded for one failed test. The first
// line carries the failure reason, the second the model response, so that
// semantically similar failures land close together in vector space.
func (b Builder) EmbeddingText(t models.FailedTest) string {
	return fmt.Sprintf("Error: %s\nResponse: %s", b.buildReason(t.Reason), b.buildResponse(t.Response))
}

// ErrorSummary reduces an embedding text to its short display form:
// the first line with the "Error: " prefix stripped.
func (b Builder) ErrorSummary(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimPrefix(line, "Error: ")
}

// CategorizationPrompt returns the single categorization request for one
// prompt group. Summaries are numbered from 0 so the model's errorIndices
// line up with group member indices.
func (b Builder) CategorizationPrompt(summaries []string) string {
	var sb strings.Builder

	sb.WriteString("You are analyzing failed AI prompt evaluation tests. ")
	sb.WriteString("Each numbered line is the failure reason of one test:\n\n")
	for i, s := range summaries {
		fmt.Fprintf(&sb, "%d. %s\n", i, s)
	}
	sb.WriteString("\nGroup these failures into 2-5 categories by root cause. ")
	sb.WriteString("Respond with only a JSON object in this exact shape:\n")
	sb.WriteString(categoryJSONShape)
	sb.WriteString("\nEvery index must appear in exactly one category's errorIndices.")

	return sb.String()
}

func (b Builder) buildReason(reason *string) string {
	if reason == nil || *reason == "" {
		return UnknownReason
	}
	return *reason
}

func (b Builder) buildResponse(response *string) string {
	if response == nil {
		return ""
	}
	return *response
}
