package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/evalhunter/internal/api/middleware"
	"github.com/kiranshivaraju/evalhunter/internal/api/response"
	"github.com/kiranshivaraju/evalhunter/pkg/models"
)

// ClusterTrigger defines the interface the cluster handler depends on.
type ClusterTrigger interface {
	TriggerClustering(ctx context.Context, tenantID uuid.UUID, runLabel string, tests []models.FailedTest) (*models.Job, error)
}

// JobReader is the store surface the poll handler needs.
type JobReader interface {
	GetJob(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Job, error)
	GetClusterReportByJobID(ctx context.Context, jobID uuid.UUID) (*models.ClusterReport, error)
}

// StatusCache resolves a job's status without touching the database.
type StatusCache interface {
	GetJobStatus(ctx context.Context, jobID uuid.UUID) (string, bool, error)
}

// NewClusterHandler returns an http.HandlerFunc for POST /api/v1/cluster.
// It validates the submitted failure records and dispatches an async
// clustering job, returning 202 with the job ID.
func NewClusterHandler(svc ClusterTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		var req struct {
			RunLabel    string              `json:"run_label"`
			FailedTests []models.FailedTest `json:"failed_tests"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		// An empty list is a legal run with zero failures; an absent field is not.
		if req.FailedTests == nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "failed_tests is required", nil)
			return
		}

		if details := validateFailedTests(req.FailedTests); len(details) > 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid failed_tests", details)
			return
		}

		job, err := svc.TriggerClustering(r.Context(), tenantID, req.RunLabel, req.FailedTests)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to create clustering job", nil)
			return
		}

		response.Accepted(w, jobAccepted{
			JobID:  job.ID.String(),
			Status: job.Status,
		})
	}
}

// NewJobStatusHandler returns an http.HandlerFunc for GET /api/v1/cluster/{jobID}.
// Pending and running jobs are answered from the cache; terminal jobs come from
// the store, with the persisted report embedded once the job has completed.
func NewJobStatusHandler(jobs JobReader, statuses StatusCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		jobID, err := uuid.Parse(r.PathValue("jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_JOB_ID", "Invalid job ID format", nil)
			return
		}

		if status, found, err := statuses.GetJobStatus(r.Context(), jobID); err == nil && found {
			if status == models.JobStatusPending || status == models.JobStatusRunning {
				response.JSON(w, jobStatus{JobID: jobID.String(), Status: status})
				return
			}
		}

		job, err := jobs.GetJob(r.Context(), jobID, tenantID)
		if err != nil {
			response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
			return
		}

		result := jobStatus{
			JobID:  job.ID.String(),
			Status: job.Status,
			Error:  job.ErrorMessage,
		}
		if job.Status == models.JobStatusCompleted {
			if report, err := jobs.GetClusterReportByJobID(r.Context(), jobID); err == nil {
				result.Report = report
			}
		}

		response.JSON(w, result)
	}
}

func validateFailedTests(tests []models.FailedTest) map[string][]string {
	details := make(map[string][]string)
	for i, ft := range tests {
		field := fmt.Sprintf("failed_tests[%d]", i)
		if ft.ID == "" {
			details[field] = append(details[field], "id is required")
		}
		if ft.Prompt == "" {
			details[field] = append(details[field], "prompt is required")
		}
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

type jobAccepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type jobStatus struct {
	JobID  string                `json:"job_id"`
	Status string                `json:"status"`
	Error  *string               `json:"error,omitempty"`
	Report *models.ClusterReport `json:"report,omitempty"`
}
