package models

import (
	"time"

	"github.com/google/uuid"
)

// ClusterReport is a persisted clustering run: the full ClusteringResult
// payload plus denormalized counts for cheap listing and filtering.
type ClusterReport struct {
	ID            uuid.UUID        `db:"id"             json:"id"`
	TenantID      uuid.UUID        `db:"tenant_id"      json:"tenant_id"`
	JobID         uuid.UUID        `db:"job_id"         json:"job_id"`
	Provider      string           `db:"provider"       json:"provider"`
	RunLabel      *string          `db:"run_label"      json:"run_label,omitempty"`
	TotalFailed   int              `db:"total_failed"   json:"total_failed"`
	TotalPrompts  int              `db:"total_prompts"  json:"total_prompts"`
	ClustersFound int              `db:"clusters_found" json:"clusters_found"`
	AnalysisMs    int64            `db:"analysis_ms"    json:"analysis_ms"`
	Result        ClusteringResult `db:"result"         json:"result"`
	CreatedAt     time.Time        `db:"created_at"     json:"created_at"`
}
