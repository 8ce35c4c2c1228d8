package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/denisCazz/visitreport-service/internal/domain"
	"github.com/denisCazz/visitreport-service/internal/observability"
	"github.com/denisCazz/visitreport-service/internal/ratelimit"
	apperrors "github.com/denisCazz/visitreport-service/pkg/util"
)

type memVisitRepo struct {
	mu      sync.Mutex
	reports map[string]*domain.VisitReport
}

func newMemVisitRepo() *memVisitRepo {
	return &memVisitRepo{reports: map[string]*domain.VisitReport{}}
}

func (r *memVisitRepo) Create(_ context.Context, report *domain.VisitReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *report
	r.reports[report.ID] = &clone
	return nil
}

func (r *memVisitRepo) GetByID(_ context.Context, tenantID, id string) (*domain.VisitReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok || report.TenantID != tenantID {
		return nil, pgx.ErrNoRows
	}
	clone := *report
	return &clone, nil
}

func (r *memVisitRepo) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]*domain.VisitReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.VisitReport
	for _, report := range r.reports {
		if report.TenantID == tenantID {
			clone := *report
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VisitedAt.After(out[j].VisitedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memVisitRepo) Search(_ context.Context, tenantID, term string, limit int) ([]*domain.VisitReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	needle := strings.ToLower(term)
	var out []*domain.VisitReport
	for _, report := range r.reports {
		if report.TenantID != tenantID {
			continue
		}
		haystack := strings.ToLower(report.CustomerName + " " + report.Site + " " + report.Summary)
		if strings.Contains(haystack, needle) {
			clone := *report
			out = append(out, &clone)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memVisitRepo) Update(_ context.Context, report *domain.VisitReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.reports[report.ID]
	if !ok || existing.TenantID != report.TenantID {
		return pgx.ErrNoRows
	}
	clone := *report
	r.reports[report.ID] = &clone
	return nil
}

func (r *memVisitRepo) Delete(_ context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok || report.TenantID != tenantID {
		return pgx.ErrNoRows
	}
	delete(r.reports, id)
	return nil
}

func generousVisitPolicies() VisitPolicies {
	return VisitPolicies{
		Create: ratelimit.Policy{MaxRequests: 100, Window: time.Minute},
		Read:   ratelimit.Policy{MaxRequests: 100, Window: time.Minute},
		Search: ratelimit.Policy{MaxRequests: 100, Window: time.Minute},
	}
}

func newVisitService(repo *memVisitRepo, policies VisitPolicies) *VisitService {
	return NewVisitService(repo, ratelimit.NewLimiter(ratelimit.NewMemoryStore()), policies, nil, observability.NewMetrics())
}

func operatorIdentity(subjectID string) domain.Identity {
	return domain.Identity{SubjectID: subjectID, Username: subjectID, Role: domain.RoleOperator, TenantID: "acme"}
}

func adminIdentity() domain.Identity {
	return domain.Identity{SubjectID: "admin-1", Username: "admin", Role: domain.RoleAdmin, TenantID: "acme"}
}

func TestVisitCreate_FilesUnderCallerTenant(t *testing.T) {
	t.Parallel()

	repo := newMemVisitRepo()
	svc := newVisitService(repo, generousVisitPolicies())
	ctx := context.Background()

	report, err := svc.Create(ctx, operatorIdentity("tech-1"), CreateInput{
		CustomerName: "Rossi SRL",
		Site:         "Milano Nord",
		Summary:      "replaced condenser fan",
	})
	require.NoError(t, err)
	require.NotEmpty(t, report.ID)
	require.Equal(t, "acme", report.TenantID)
	require.Equal(t, "tech-1", report.TechnicianID)
	require.Equal(t, domain.VisitStatusSubmitted, report.Status)
	require.False(t, report.VisitedAt.IsZero())

	stored, err := repo.GetByID(ctx, "acme", report.ID)
	require.NoError(t, err)
	require.Equal(t, report.ID, stored.ID)
}

func TestVisitCreate_RequiresCustomerAndSite(t *testing.T) {
	t.Parallel()

	svc := newVisitService(newMemVisitRepo(), generousVisitPolicies())

	_, err := svc.Create(context.Background(), operatorIdentity("tech-1"), CreateInput{Site: "Milano"})
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	require.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestVisitCreate_RateLimitedPerTechnician(t *testing.T) {
	t.Parallel()

	policies := generousVisitPolicies()
	policies.Create = ratelimit.Policy{MaxRequests: 2, Window: time.Minute}
	svc := newVisitService(newMemVisitRepo(), policies)
	ctx := context.Background()

	in := CreateInput{CustomerName: "Rossi SRL", Site: "Milano"}
	for i := 0; i < 2; i++ {
		_, err := svc.Create(ctx, operatorIdentity("tech-1"), in)
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, operatorIdentity("tech-1"), in)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	require.Equal(t, "RATE_LIMITED", domainErr.Code)

	// Another technician's budget is untouched.
	_, err = svc.Create(ctx, operatorIdentity("tech-2"), in)
	require.NoError(t, err)
}

func TestVisitGet_TenantScoped(t *testing.T) {
	t.Parallel()

	repo := newMemVisitRepo()
	svc := newVisitService(repo, generousVisitPolicies())
	ctx := context.Background()

	report, err := svc.Create(ctx, operatorIdentity("tech-1"), CreateInput{CustomerName: "Rossi SRL", Site: "Milano"})
	require.NoError(t, err)

	outsider := domain.Identity{SubjectID: "tech-9", Role: domain.RoleOperator, TenantID: "globex"}
	_, err = svc.Get(ctx, outsider, report.ID)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	require.Equal(t, "NOT_FOUND", domainErr.Code)

	got, err := svc.Get(ctx, operatorIdentity("tech-1"), report.ID)
	require.NoError(t, err)
	require.Equal(t, report.ID, got.ID)
}

func TestVisitList_PagesNewestFirst(t *testing.T) {
	t.Parallel()

	repo := newMemVisitRepo()
	svc := newVisitService(repo, generousVisitPolicies())
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, operatorIdentity("tech-1"), CreateInput{
			CustomerName: "Rossi SRL",
			Site:         "Milano",
			VisitedAt:    base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, operatorIdentity("tech-1"), 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.True(t, page[0].VisitedAt.After(page[1].VisitedAt))

	rest, err := svc.List(ctx, operatorIdentity("tech-1"), 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
}

func TestVisitSearch_RequiresTerm(t *testing.T) {
	t.Parallel()

	svc := newVisitService(newMemVisitRepo(), generousVisitPolicies())

	_, err := svc.Search(context.Background(), operatorIdentity("tech-1"), "", 10)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	require.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestVisitSearch_MatchesAcrossFields(t *testing.T) {
	t.Parallel()

	repo := newMemVisitRepo()
	svc := newVisitService(repo, generousVisitPolicies())
	ctx := context.Background()

	_, err := svc.Create(ctx, operatorIdentity("tech-1"), CreateInput{
		CustomerName: "Rossi SRL",
		Site:         "Milano Nord",
		Summary:      "replaced condenser fan",
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, operatorIdentity("tech-1"), CreateInput{
		CustomerName: "Bianchi SpA",
		Site:         "Torino",
		Summary:      "annual inspection",
	})
	require.NoError(t, err)

	results, err := svc.Search(ctx, operatorIdentity("tech-1"), "condenser", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Rossi SRL", results[0].CustomerName)
}

func TestVisitUpdate_OwnershipEnforced(t *testing.T) {
	t.Parallel()

	repo := newMemVisitRepo()
	svc := newVisitService(repo, generousVisitPolicies())
	ctx := context.Background()

	report, err := svc.Create(ctx, operatorIdentity("tech-1"), CreateInput{CustomerName: "Rossi SRL", Site: "Milano"})
	require.NoError(t, err)

	// A different operator in the same tenant may not touch it.
	_, err = svc.Update(ctx, operatorIdentity("tech-2"), report.ID, UpdateInput{Summary: "hijacked"})
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	require.Equal(t, "FORBIDDEN", domainErr.Code)

	// The owner may.
	updated, err := svc.Update(ctx, operatorIdentity("tech-1"), report.ID, UpdateInput{
		Summary: "tightened belt",
		Status:  domain.VisitStatusReviewed,
	})
	require.NoError(t, err)
	require.Equal(t, "tightened belt", updated.Summary)
	require.Equal(t, domain.VisitStatusReviewed, updated.Status)
	require.Equal(t, "Rossi SRL", updated.CustomerName)

	// An admin may too.
	_, err = svc.Update(ctx, adminIdentity(), report.ID, UpdateInput{Summary: "reviewed on site"})
	require.NoError(t, err)
}

func TestVisitDelete_AdminOnly(t *testing.T) {
	t.Parallel()

	repo := newMemVisitRepo()
	svc := newVisitService(repo, generousVisitPolicies())
	ctx := context.Background()

	report, err := svc.Create(ctx, operatorIdentity("tech-1"), CreateInput{CustomerName: "Rossi SRL", Site: "Milano"})
	require.NoError(t, err)

	err = svc.Delete(ctx, operatorIdentity("tech-1"), report.ID)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	require.Equal(t, "FORBIDDEN", domainErr.Code)

	require.NoError(t, svc.Delete(ctx, adminIdentity(), report.ID))

	err = svc.Delete(ctx, adminIdentity(), report.ID)
	require.True(t, errors.As(err, &domainErr))
	require.Equal(t, "NOT_FOUND", domainErr.Code)
}
