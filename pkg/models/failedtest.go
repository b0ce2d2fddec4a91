package models

// FailedTest is a single failed prompt-evaluation test as submitted by the
// evaluation runner. Records are read-only inputs to clustering and are
// serialized with the runner's camelCase field names.
type FailedTest struct {
	ID            string  `json:"id"`
	Prompt        string  `json:"prompt"`
	Response      *string `json:"response"`
	Reason        *string `json:"reason"`
	Score         float64 `json:"score"`
	AssertionType string  `json:"assertionType"`
}
