package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/evalhunter/internal/api/middleware"
	"github.com/kiranshivaraju/evalhunter/internal/api/response"
	"github.com/kiranshivaraju/evalhunter/internal/store"
	"github.com/kiranshivaraju/evalhunter/pkg/models"
)

// ReportStore is the store surface the report handlers need.
type ReportStore interface {
	ListClusterReports(ctx context.Context, filter store.ReportFilter) ([]*models.ClusterReport, int, error)
	GetClusterReport(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.ClusterReport, error)
}

// NewListReportsHandler returns an http.HandlerFunc for GET /api/v1/reports.
func NewListReportsHandler(reports ReportStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		q := r.URL.Query()

		page, _ := strconv.Atoi(q.Get("page"))
		if page < 1 {
			page = 1
		}

		limit, _ := strconv.Atoi(q.Get("limit"))
		if limit == 0 {
			limit = 20
		}
		if limit < 1 {
			limit = 1
		}
		if limit > 100 {
			limit = 100
		}

		var since time.Time
		if raw := q.Get("since"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"since must be a valid RFC3339 timestamp", nil)
				return
			}
			since = parsed
		}

		filter := store.ReportFilter{
			TenantID: tenantID,
			Provider: q.Get("provider"),
			RunLabel: q.Get("run_label"),
			Since:    since,
			Page:     page,
			Limit:    limit,
		}

		list, total, err := reports.ListClusterReports(r.Context(), filter)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to list reports", nil)
			return
		}
		if list == nil {
			list = []*models.ClusterReport{}
		}

		response.Collection(w, list, response.PaginationMeta{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasNext: total > page*limit,
		})
	}
}

// NewGetReportHandler returns an http.HandlerFunc for GET /api/v1/reports/{reportID}.
func NewGetReportHandler(reports ReportStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		reportID, err := uuid.Parse(r.PathValue("reportID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REPORT_ID", "Invalid report ID format", nil)
			return
		}

		report, err := reports.GetClusterReport(r.Context(), reportID, tenantID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "REPORT_NOT_FOUND", "Report not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to fetch report", nil)
			return
		}

		response.JSON(w, report)
	}
}
