package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/evalhunter/internal/analysis"
	"github.com/kiranshivaraju/evalhunter/internal/cache"
	"github.com/kiranshivaraju/evalhunter/internal/store"
	"github.com/kiranshivaraju/evalhunter/pkg/models"
)

// ClusterService orchestrates async clustering runs.
type ClusterService struct {
	engine   *analysis.Engine
	provider models.AIProvider
	store    store.Store
	cache    cache.Cache
	timeout  time.Duration
}

// NewClusterService creates a new ClusterService. The timeout bounds one
// whole clustering run, not individual provider calls.
func NewClusterService(engine *analysis.Engine, provider models.AIProvider, st store.Store, ca cache.Cache, timeout time.Duration) *ClusterService {
	return &ClusterService{
		engine:   engine,
		provider: provider,
		store:    st,
		cache:    ca,
		timeout:  timeout,
	}
}

// TriggerClustering creates a pending job and dispatches clustering in a
// background goroutine. Returns the job immediately without waiting for
// clustering to complete.
func (s *ClusterService) TriggerClustering(ctx context.Context, tenantID uuid.UUID, runLabel string, tests []models.FailedTest) (*models.Job, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("invalid tenant: ID is required")
	}

	job := &models.Job{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Type:      "clustering",
		Status:    models.JobStatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	_ = s.cache.SetJobStatus(ctx, job.ID, models.JobStatusPending, 30*time.Minute)

	go s.runClustering(job.ID, tenantID, runLabel, tests)

	return job, nil
}

// runClustering performs the actual clustering in a goroutine. It recovers
// from panics and always marks the job as completed or failed. An engine
// error does not fail the job: the report is persisted with an empty,
// annotated result so the evaluation run that triggered it still resolves.
func (s *ClusterService) runClustering(jobID, tenantID uuid.UUID, runLabel string, tests []models.FailedTest) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in runClustering", "error", r, "job_id", jobID)
			_ = s.store.UpdateJobStatus(ctx, jobID, models.JobStatusFailed,
				store.WithErrorMessage(fmt.Sprintf("panic: %v", r)))
			_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusFailed, 30*time.Minute)
		}
	}()

	// Mark as running
	_ = s.store.UpdateJobStatus(ctx, jobID, models.JobStatusRunning)
	_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusRunning, 30*time.Minute)

	// Run the engine with a wall-clock budget for the whole run
	clusterCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.engine.Cluster(clusterCtx, tests)
	if err != nil {
		// A failed clustering run must not fail the evaluation that
		// triggered it. Persist an empty result carrying the error.
		slog.Error("clustering failed", "error", err, "job_id", jobID)
		result = emptyResult(tests, err)
	}

	result.Insights = truncateString(result.Insights, 4000)

	report := &models.ClusterReport{
		ID:            uuid.New(),
		TenantID:      tenantID,
		JobID:         jobID,
		Provider:      s.provider.Name(),
		TotalFailed:   result.Summary.TotalFailed,
		TotalPrompts:  result.Summary.TotalPrompts,
		ClustersFound: countClusters(result),
		AnalysisMs:    result.Summary.AnalysisTime,
		Result:        *result,
		CreatedAt:     time.Now().UTC(),
	}
	if runLabel != "" {
		report.RunLabel = &runLabel
	}

	if err := s.store.CreateClusterReport(ctx, report); err != nil {
		_ = s.store.UpdateJobStatus(ctx, jobID, models.JobStatusFailed,
			store.WithErrorMessage(fmt.Sprintf("storing report: %v", err)))
		_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusFailed, 30*time.Minute)
		return
	}

	// Mark completed
	_ = s.store.UpdateJobStatus(ctx, jobID, models.JobStatusCompleted,
		store.WithReportID(report.ID))
	_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusCompleted, 30*time.Minute)
}

// emptyResult builds the degraded payload persisted when clustering fails.
func emptyResult(tests []models.FailedTest, err error) *models.ClusteringResult {
	seen := make(map[string]struct{}, len(tests))
	for _, t := range tests {
		seen[t.Prompt] = struct{}{}
	}

	return &models.ClusteringResult{
		PromptClusters: []models.PromptReport{},
		Summary: models.ClusteringSummary{
			TotalFailed:  len(tests),
			TotalPrompts: len(seen),
		},
		Insights: fmt.Sprintf("Clustering did not complete: %v", err),
	}
}

// countClusters totals clusters across all prompt groups.
func countClusters(result *models.ClusteringResult) int {
	total := 0
	for _, pr := range result.PromptClusters {
		total += pr.ClustersFound
	}
	return total
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
