package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/evalhunter/internal/store"
	"github.com/kiranshivaraju/evalhunter/pkg/models"
)

// --- mock report store ---

type mockReportStore struct {
	listFn func(filter store.ReportFilter) ([]*models.ClusterReport, int, error)
	getFn  func(id uuid.UUID, tenantID uuid.UUID) (*models.ClusterReport, error)
}

func (m *mockReportStore) ListClusterReports(_ context.Context, filter store.ReportFilter) ([]*models.ClusterReport, int, error) {
	return m.listFn(filter)
}

func (m *mockReportStore) GetClusterReport(_ context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.ClusterReport, error) {
	return m.getFn(id, tenantID)
}

func sampleReport(tid uuid.UUID) *models.ClusterReport {
	label := "release-42"
	return &models.ClusterReport{
		ID:            uuid.New(),
		TenantID:      tid,
		JobID:         uuid.New(),
		Provider:      "ollama",
		RunLabel:      &label,
		TotalFailed:   6,
		TotalPrompts:  2,
		ClustersFound: 3,
		AnalysisMs:    840,
		Result: models.ClusteringResult{
			Summary:  models.ClusteringSummary{TotalFailed: 6, TotalPrompts: 2, AnalysisTime: 840},
			Insights: "Timeouts dominate",
		},
		CreatedAt: time.Now().UTC(),
	}
}

// --- helpers ---

func listReq(t *testing.T, query string, tenantID uuid.UUID) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/reports"+query, nil)
	return r.WithContext(setTenantCtx(r.Context(), tenantID))
}

func getReportReq(t *testing.T, reportID string, tenantID uuid.UUID) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+reportID, nil)
	r.SetPathValue("reportID", reportID)
	return r.WithContext(setTenantCtx(r.Context(), tenantID))
}

// --- GET /api/v1/reports ---

func TestListReports_Defaults(t *testing.T) {
	tid := uuid.New()
	var captured store.ReportFilter
	ms := &mockReportStore{listFn: func(filter store.ReportFilter) ([]*models.ClusterReport, int, error) {
		captured = filter
		return []*models.ClusterReport{sampleReport(tid)}, 1, nil
	}}

	h := NewListReportsHandler(ms)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, listReq(t, "", tid))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.TenantID != tid {
		t.Errorf("expected tenant %s, got %s", tid, captured.TenantID)
	}
	if captured.Page != 1 || captured.Limit != 20 {
		t.Errorf("expected page 1 limit 20, got %d/%d", captured.Page, captured.Limit)
	}

	var env struct {
		Data []map[string]any `json:"data"`
		Meta map[string]any   `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data) != 1 {
		t.Fatalf("expected 1 report, got %d", len(env.Data))
	}
	if env.Data[0]["provider"] != "ollama" {
		t.Errorf("unexpected provider: %v", env.Data[0]["provider"])
	}
	if env.Meta["total"] != float64(1) {
		t.Errorf("unexpected total: %v", env.Meta["total"])
	}
	if env.Meta["has_next"] != false {
		t.Errorf("unexpected has_next: %v", env.Meta["has_next"])
	}
}

func TestListReports_Pagination(t *testing.T) {
	var captured store.ReportFilter
	ms := &mockReportStore{listFn: func(filter store.ReportFilter) ([]*models.ClusterReport, int, error) {
		captured = filter
		return nil, 42, nil
	}}

	h := NewListReportsHandler(ms)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, listReq(t, "?page=2&limit=10", uuid.New()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Page != 2 || captured.Limit != 10 {
		t.Errorf("expected page 2 limit 10, got %d/%d", captured.Page, captured.Limit)
	}

	var env struct {
		Meta map[string]any `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Meta["has_next"] != true {
		t.Errorf("expected has_next true with total 42, got %v", env.Meta["has_next"])
	}
}

func TestListReports_LimitClamping(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected int
	}{
		{"absent", "", 20},
		{"negative", "?limit=-5", 1},
		{"normal", "?limit=50", 50},
		{"at maximum", "?limit=100", 100},
		{"above maximum", "?limit=500", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured store.ReportFilter
			ms := &mockReportStore{listFn: func(filter store.ReportFilter) ([]*models.ClusterReport, int, error) {
				captured = filter
				return nil, 0, nil
			}}

			h := NewListReportsHandler(ms)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, listReq(t, tt.query, uuid.New()))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if captured.Limit != tt.expected {
				t.Errorf("expected limit %d, got %d", tt.expected, captured.Limit)
			}
		})
	}
}

func TestListReports_Filters(t *testing.T) {
	var captured store.ReportFilter
	ms := &mockReportStore{listFn: func(filter store.ReportFilter) ([]*models.ClusterReport, int, error) {
		captured = filter
		return nil, 0, nil
	}}

	h := NewListReportsHandler(ms)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, listReq(t, "?run_label=release-42&provider=openai&since=2025-06-01T00:00:00Z", uuid.New()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.RunLabel != "release-42" {
		t.Errorf("expected run_label release-42, got %q", captured.RunLabel)
	}
	if captured.Provider != "openai" {
		t.Errorf("expected provider openai, got %q", captured.Provider)
	}
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !captured.Since.Equal(want) {
		t.Errorf("expected since %v, got %v", want, captured.Since)
	}
}

func TestListReports_InvalidSince(t *testing.T) {
	ms := &mockReportStore{listFn: func(_ store.ReportFilter) ([]*models.ClusterReport, int, error) {
		t.Fatal("store should not be called")
		return nil, 0, nil
	}}

	h := NewListReportsHandler(ms)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, listReq(t, "?since=yesterday", uuid.New()))

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if code != "INVALID_REQUEST" {
		t.Errorf("expected INVALID_REQUEST, got %s", code)
	}
}

func TestListReports_EmptyListIsArray(t *testing.T) {
	ms := &mockReportStore{listFn: func(_ store.ReportFilter) ([]*models.ClusterReport, int, error) {
		return nil, 0, nil
	}}

	h := NewListReportsHandler(ms)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, listReq(t, "", uuid.New()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("expected empty array data, got %s", rec.Body.String())
	}
}

func TestListReports_StoreError(t *testing.T) {
	ms := &mockReportStore{listFn: func(_ store.ReportFilter) ([]*models.ClusterReport, int, error) {
		return nil, 0, errors.New("connection lost")
	}}

	h := NewListReportsHandler(ms)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, listReq(t, "", uuid.New()))

	status, code := parseErr(t, rec)
	if status != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", status)
	}
	if code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", code)
	}
}

func TestListReports_NoTenant(t *testing.T) {
	h := NewListReportsHandler(&mockReportStore{})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))

	status, code := parseErr(t, rec)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", status)
	}
	if code != "INVALID_TOKEN" {
		t.Errorf("expected INVALID_TOKEN, got %s", code)
	}
}

// --- GET /api/v1/reports/{reportID} ---

func TestGetReport_Found(t *testing.T) {
	tid := uuid.New()
	report := sampleReport(tid)
	ms := &mockReportStore{getFn: func(id uuid.UUID, tenantID uuid.UUID) (*models.ClusterReport, error) {
		if id == report.ID && tenantID == tid {
			return report, nil
		}
		return nil, store.ErrNotFound
	}}

	h := NewGetReportHandler(ms)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, getReportReq(t, report.ID.String(), tid))

	data := parseData(t, rec, http.StatusOK)
	if data["id"] != report.ID.String() {
		t.Errorf("unexpected id: %v", data["id"])
	}
	if data["run_label"] != "release-42" {
		t.Errorf("unexpected run_label: %v", data["run_label"])
	}
	result, ok := data["result"].(map[string]any)
	if !ok {
		t.Fatalf("result payload missing: %v", data["result"])
	}
	if result["insights"] != "Timeouts dominate" {
		t.Errorf("unexpected insights: %v", result["insights"])
	}
}

func TestGetReport_NotFound(t *testing.T) {
	ms := &mockReportStore{getFn: func(_ uuid.UUID, _ uuid.UUID) (*models.ClusterReport, error) {
		return nil, store.ErrNotFound
	}}

	h := NewGetReportHandler(ms)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, getReportReq(t, uuid.NewString(), uuid.New()))

	status, code := parseErr(t, rec)
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
	if code != "REPORT_NOT_FOUND" {
		t.Errorf("expected REPORT_NOT_FOUND, got %s", code)
	}
}

func TestGetReport_InvalidID(t *testing.T) {
	h := NewGetReportHandler(&mockReportStore{})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, getReportReq(t, "not-a-uuid", uuid.New()))

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if code != "INVALID_REPORT_ID" {
		t.Errorf("expected INVALID_REPORT_ID, got %s", code)
	}
}

func TestGetReport_StoreError(t *testing.T) {
	ms := &mockReportStore{getFn: func(_ uuid.UUID, _ uuid.UUID) (*models.ClusterReport, error) {
		return nil, errors.New("connection lost")
	}}

	h := NewGetReportHandler(ms)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, getReportReq(t, uuid.NewString(), uuid.New()))

	status, code := parseErr(t, rec)
	if status != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", status)
	}
	if code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", code)
	}
}
