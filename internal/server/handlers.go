package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/pkg/auth"
	"github.com/dmitrymomot/tenantkit/pkg/dbrouter"
	"github.com/dmitrymomot/tenantkit/pkg/directory"
	"github.com/dmitrymomot/tenantkit/pkg/handler"
	"github.com/dmitrymomot/tenantkit/pkg/impersonation"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

const (
	insertExportQuery      = `INSERT INTO export_jobs (id, requested_by, status, created_at) VALUES ($1, $2, 'pending', $3)`
	insertExportQueryMySQL = `INSERT INTO export_jobs (id, requested_by, status, created_at) VALUES (?, ?, 'pending', ?)`
)

// ExportResponse is the body of POST /exports.
type ExportResponse struct {
	JobID       string `json:"job_id"`
	TenantID    string `json:"tenant_id"`
	RequestedBy int64  `json:"requested_by"`
}

// createExport queues an export job for the effective user. The job runs on
// the job pool with the request's tenant and impersonation bindings copied
// into its own scopes, so its queries reach the same tenant after the
// request has returned.
func (s *Server) createExport(ctx handler.Context, _ struct{}) handler.Response {
	p := auth.MustPrincipal(ctx)
	tenantID := tenant.MustIDFromContext(ctx)

	target := s.deps.Router.Tenant(ctx)
	if target.Fallback {
		return handler.Error(fmt.Errorf("%w: no pool for tenant %q", dbrouter.ErrPoolUnavailable, tenantID))
	}

	jobID := uuid.NewString()
	requestedBy := impersonation.EffectiveUserID(ctx, p)
	_, err := s.deps.Jobs.Submit(ctx, "export", func(ctx context.Context) error {
		return s.recordExport(ctx, jobID, requestedBy)
	})
	if err != nil {
		return handler.Error(fmt.Errorf("submit export: %w", err))
	}

	s.logger.InfoContext(ctx, "export queued",
		logger.Component("exports"),
		slog.String("job_id", jobID),
		logger.UserID(requestedBy),
	)

	return handler.JSON(ExportResponse{
		JobID:       jobID,
		TenantID:    tenantID,
		RequestedBy: requestedBy,
	}, http.StatusAccepted)
}

// recordExport runs on the job pool. A reload may have dropped the tenant
// since the request, so the pool is checked again; the row never goes to
// the directory pool.
func (s *Server) recordExport(ctx context.Context, jobID string, requestedBy int64) error {
	target := s.deps.Router.Tenant(ctx)
	if target.Fallback {
		return fmt.Errorf("record export %s: %w: no pool for tenant %q", jobID, dbrouter.ErrPoolUnavailable, target.TenantID)
	}
	query := insertExportQuery
	if target.Driver == directory.DriverMySQL {
		query = insertExportQueryMySQL
	}
	if _, err := s.deps.Router.ExecContext(ctx, query, jobID, requestedBy, time.Now().UTC()); err != nil {
		return fmt.Errorf("record export %s: %w", jobID, err)
	}
	return nil
}

// ReloadResponse summarizes a pool reload.
type ReloadResponse struct {
	Opened     []string          `json:"opened"`
	Reused     []string          `json:"reused"`
	Retained   []string          `json:"retained"`
	Closed     []string          `json:"closed"`
	Failed     map[string]string `json:"failed,omitempty"`
	Duplicates []string          `json:"duplicates,omitempty"`
	Tenants    []string          `json:"tenants"`
}

func (s *Server) reloadPools(ctx handler.Context, _ struct{}) handler.Response {
	report, err := s.deps.Pools.Reload(ctx)
	if err != nil {
		return handler.Error(fmt.Errorf("reload pools: %w", err))
	}
	if s.deps.Cache != nil {
		s.deps.Cache.Purge()
	}

	resp := ReloadResponse{
		Opened:   nonNil(report.Opened),
		Reused:   nonNil(report.Reused),
		Retained: nonNil(report.Retained),
		Closed:   nonNil(report.Closed),
		Tenants:  nonNil(s.deps.Pools.Snapshot().Tenants()),
	}
	if len(report.Duplicates) > 0 {
		resp.Duplicates = nonNil(report.Duplicates)
	}
	if len(report.Failed) > 0 {
		resp.Failed = make(map[string]string, len(report.Failed))
		for id, ferr := range report.Failed {
			resp.Failed[id] = ferr.Error()
		}
	}

	p := auth.MustPrincipal(ctx)
	s.logger.InfoContext(ctx, "tenant pools reloaded",
		logger.Component("admin"),
		logger.Username(p.Username),
		slog.Int("opened", len(resp.Opened)),
		slog.Int("failed", len(resp.Failed)),
	)

	return handler.JSON(resp)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	s = slices.Clone(s)
	slices.Sort(s)
	return s
}
