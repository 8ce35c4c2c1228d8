package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/denisCazz/visitreport-service/internal/domain"
	"github.com/denisCazz/visitreport-service/internal/events"
	"github.com/denisCazz/visitreport-service/internal/observability"
	"github.com/denisCazz/visitreport-service/internal/ratelimit"
	"github.com/denisCazz/visitreport-service/internal/repository"
	apperrors "github.com/denisCazz/visitreport-service/pkg/util"
)

const (
	visitCreateAction = "visit_create"
	readAction        = "read"
	searchAction      = "search"

	defaultPageSize = 50
	maxPageSize     = 200
)

// VisitPolicies groups the per-action rate-limit policies for visit traffic.
type VisitPolicies struct {
	Create ratelimit.Policy
	Read   ratelimit.Policy
	Search ratelimit.Policy
}

// VisitService owns visit-report CRUD, tenant-scoped and rate limited
// per technician.
type VisitService struct {
	reports    repository.VisitReportRepository
	limiter    *ratelimit.Limiter
	policies   VisitPolicies
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
}

// NewVisitService builds the service.
func NewVisitService(reports repository.VisitReportRepository, limiter *ratelimit.Limiter, policies VisitPolicies, dispatcher events.Dispatcher, metrics *observability.Metrics) *VisitService {
	return &VisitService{
		reports:    reports,
		limiter:    limiter,
		policies:   policies,
		dispatcher: dispatcher,
		metrics:    metrics,
	}
}

// CreateInput carries the fields an operator submits for a new report.
type CreateInput struct {
	CustomerName string
	Site         string
	Summary      string
	VisitedAt    time.Time
}

// Create files a new visit report under the caller's tenant.
func (s *VisitService) Create(ctx context.Context, identity domain.Identity, in CreateInput) (*domain.VisitReport, error) {
	if err := s.allow(ctx, visitCreateAction, identity.SubjectID, s.policies.Create); err != nil {
		return nil, err
	}
	if in.CustomerName == "" || in.Site == "" {
		return nil, apperrors.NewValidationError("customer_name and site required", nil)
	}
	visitedAt := in.VisitedAt
	if visitedAt.IsZero() {
		visitedAt = time.Now()
	}

	report := &domain.VisitReport{
		ID:           uuid.NewString(),
		TenantID:     identity.TenantID,
		TechnicianID: identity.SubjectID,
		CustomerName: in.CustomerName,
		Site:         in.Site,
		Summary:      in.Summary,
		Status:       domain.VisitStatusSubmitted,
		VisitedAt:    visitedAt,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventVisitCreated,
			SubjectID: identity.SubjectID,
			TenantID:  identity.TenantID,
			Timestamp: time.Now(),
			Payload: events.VisitCreatedPayload{
				VisitID:      report.ID,
				CustomerName: report.CustomerName,
				Site:         report.Site,
			},
		})
	}
	return report, nil
}

// Get fetches a single report within the caller's tenant.
func (s *VisitService) Get(ctx context.Context, identity domain.Identity, id string) (*domain.VisitReport, error) {
	if err := s.allow(ctx, readAction, identity.SubjectID, s.policies.Read); err != nil {
		return nil, err
	}
	report, err := s.reports.GetByID(ctx, identity.TenantID, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("visit report", nil)
		}
		return nil, err
	}
	return report, nil
}

// List pages through the tenant's reports, newest visit first.
func (s *VisitService) List(ctx context.Context, identity domain.Identity, limit, offset int) ([]*domain.VisitReport, error) {
	if err := s.allow(ctx, readAction, identity.SubjectID, s.policies.Read); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.reports.ListByTenant(ctx, identity.TenantID, limit, offset)
}

// Search matches the term against customer, site and summary.
func (s *VisitService) Search(ctx context.Context, identity domain.Identity, term string, limit int) ([]*domain.VisitReport, error) {
	if err := s.allow(ctx, searchAction, identity.SubjectID, s.policies.Search); err != nil {
		return nil, err
	}
	if term == "" {
		return nil, apperrors.NewValidationError("search term required", nil)
	}
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return s.reports.Search(ctx, identity.TenantID, term, limit)
}

// UpdateInput carries mutable report fields.
type UpdateInput struct {
	CustomerName string
	Site         string
	Summary      string
	Status       domain.VisitStatus
	VisitedAt    time.Time
}

// Update overwrites a report. Operators may only touch their own reports;
// admins may touch any report in the tenant.
func (s *VisitService) Update(ctx context.Context, identity domain.Identity, id string, in UpdateInput) (*domain.VisitReport, error) {
	report, err := s.reports.GetByID(ctx, identity.TenantID, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("visit report", nil)
		}
		return nil, err
	}
	if identity.Role != domain.RoleAdmin && report.TechnicianID != identity.SubjectID {
		return nil, apperrors.NewForbidden("not the report owner")
	}

	if in.CustomerName != "" {
		report.CustomerName = in.CustomerName
	}
	if in.Site != "" {
		report.Site = in.Site
	}
	if in.Summary != "" {
		report.Summary = in.Summary
	}
	if in.Status != "" {
		report.Status = in.Status
	}
	if !in.VisitedAt.IsZero() {
		report.VisitedAt = in.VisitedAt
	}

	if err := s.reports.Update(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// Delete removes a report. Admin only; enforced again here in case a route
// is ever wired without the admin prefix.
func (s *VisitService) Delete(ctx context.Context, identity domain.Identity, id string) error {
	if identity.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	if err := s.reports.Delete(ctx, identity.TenantID, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("visit report", nil)
		}
		return err
	}
	return nil
}

func (s *VisitService) allow(ctx context.Context, action, subjectID string, policy ratelimit.Policy) error {
	res, err := s.limiter.CheckAndIncrement(ctx, ratelimit.Key(action, subjectID), policy)
	if err != nil {
		return err
	}
	if !res.Allowed {
		s.metrics.RecordRateLimited(action)
		return apperrors.NewRateLimited(res.RetryAfter)
	}
	return nil
}
