package prompts

import (
	"strings"
	"testing"

	"github.com/kiranshivaraju/evalhunter/pkg/models"
)

func strPtr(s string) *string { return &s }

func TestEmbeddingText(t *testing.T) {
	b := Builder{}

	tests := []struct {
		name     string
		test     models.FailedTest
		expected string
	}{
		{
			name: "reason and response present",
			test: models.FailedTest{
				Reason:   strPtr(`Expected output to contain "42"`),
				Response: strPtr("The answer is 41."),
			},
			expected: "Error: Expected output to contain \"42\"\nResponse: The answer is 41.",
		},
		{
			name: "missing reason defaults to unknown",
			test: models.FailedTest{
				Response: strPtr("some response"),
			},
			expected: "Error: Unknown error\nResponse: some response",
		},
		{
			name: "empty reason defaults to unknown",
			test: models.FailedTest{
				Reason:   strPtr(""),
				Response: strPtr("some response"),
			},
			expected: "Error: Unknown error\nResponse: some response",
		},
		{
			name:     "missing response renders empty",
			test:     models.FailedTest{Reason: strPtr("assertion failed")},
			expected: "Error: assertion failed\nResponse: ",
		},
		{
			name:     "both missing",
			test:     models.FailedTest{},
			expected: "Error: Unknown error\nResponse: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.EmbeddingText(tt.test)
			if got != tt.expected {
				t.Errorf("\nexpected: %q\ngot:      %q", tt.expected, got)
			}
		})
	}
}

func TestErrorSummary(t *testing.T) {
	b := Builder{}

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "strips prefix and drops response line",
			text:     "Error: timeout waiting for model\nResponse: ...",
			expected: "timeout waiting for model",
		},
		{
			name:     "multiline reason keeps first line only",
			text:     "Error: line one\nline two\nResponse: x",
			expected: "line one",
		},
		{
			name:     "text without prefix returned as-is",
			text:     "bare failure text",
			expected: "bare failure text",
		},
		{
			name:     "empty text",
			text:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.ErrorSummary(tt.text)
			if got != tt.expected {
				t.Errorf("\nexpected: %q\ngot:      %q", tt.expected, got)
			}
		})
	}
}

func TestCategorizationPrompt(t *testing.T) {
	b := Builder{}

	got := b.CategorizationPrompt([]string{"wrong arithmetic", "missing citation", "wrong arithmetic again"})

	for _, want := range []string{
		"0. wrong arithmetic\n",
		"1. missing citation\n",
		"2. wrong arithmetic again\n",
		`"categories"`,
		`"errorIndices"`,
		`"commonPatterns"`,
		`"suggestions"`,
		"2-5 categories",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q\nprompt:\n%s", want, got)
		}
	}

	if strings.Contains(got, "3. ") {
		t.Errorf("prompt numbered past the last summary:\n%s", got)
	}
}

func TestBuilder_ZeroValue(t *testing.T) {
	// Zero-value Builder should work without initialization
	var b Builder
	got := b.EmbeddingText(models.FailedTest{Reason: strPtr("r"), Response: strPtr("x")})
	expected := "Error: r\nResponse: x"
	if got != expected {
		t.Errorf("zero-value builder failed:\nexpected: %q\ngot:      %q", expected, got)
	}
}
