package ai

import "errors"

// Sentinel failures shared by the providers and the callers that
// classify on them.
var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timed out")
	ErrInvalidResponse     = errors.New("ai provider returned an invalid response")
)
