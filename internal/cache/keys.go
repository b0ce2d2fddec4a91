package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// Key builders for every Redis namespace the service touches. All keys
// are built here so the namespaces cannot collide.

// EmbeddingKey addresses a cached embedding vector by model and content hash.
// The same failure text always maps to the same key, so repeated clustering
// runs skip the provider call.
func EmbeddingKey(model, textHash string) string {
	return fmt.Sprintf("embed:%s:%s", model, textHash)
}

// JobStatusKey holds the lifecycle state clients poll while a
// clustering run is in flight.
func JobStatusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s", jobID)
}

// RateLimitKey counts requests for one API key prefix inside the
// current window.
func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}

// ReportKey reserves the namespace for cached report payloads.
func ReportKey(reportID uuid.UUID) string {
	return fmt.Sprintf("report:%s", reportID)
}
