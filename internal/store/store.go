// Package store is the Postgres persistence layer. Handlers and the
// clustering service depend on the Store interface, never on pgx
// directly, so tests can swap in lightweight fakes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/evalhunter/pkg/models"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to
	// another tenant. Callers cannot tell the two apart.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateKey maps Postgres unique violations.
	ErrDuplicateKey = errors.New("duplicate key violation")
)

// Store is the data access surface, grouped by aggregate.
type Store interface {
	Ping(ctx context.Context) error
	GetDefaultTenant(ctx context.Context) (*models.Tenant, error)

	// API keys.
	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, tenantID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error

	// Cluster reports.
	CreateClusterReport(ctx context.Context, report *models.ClusterReport) error
	GetClusterReport(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.ClusterReport, error)
	GetClusterReportByJobID(ctx context.Context, jobID uuid.UUID) (*models.ClusterReport, error)
	ListClusterReports(ctx context.Context, filter ReportFilter) ([]*models.ClusterReport, int, error)

	// Clustering jobs.
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error
}

// ReportFilter narrows ListClusterReports. Zero-value fields are ignored.
type ReportFilter struct {
	TenantID uuid.UUID
	Provider string
	RunLabel string
	Since    time.Time
	Page     int
	Limit    int
}

type jobUpdateParams struct {
	ErrorMessage *string
	ReportID     *uuid.UUID
}

// JobUpdateOption attaches optional columns to a job status update.
type JobUpdateOption func(*jobUpdateParams)

// WithErrorMessage records why a job failed.
func WithErrorMessage(msg string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.ErrorMessage = &msg
	}
}

// WithReportID links a completed job to the report it produced.
func WithReportID(id uuid.UUID) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.ReportID = &id
	}
}
