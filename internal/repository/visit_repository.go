package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/denisCazz/visitreport-service/internal/domain"
)

// VisitReportRepository defines persistence access for visit reports.
// Every query is tenant-scoped; a report is never visible across orgs.
type VisitReportRepository interface {
	Create(ctx context.Context, report *domain.VisitReport) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.VisitReport, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*domain.VisitReport, error)
	Search(ctx context.Context, tenantID, term string, limit int) ([]*domain.VisitReport, error)
	Update(ctx context.Context, report *domain.VisitReport) error
	Delete(ctx context.Context, tenantID, id string) error
}

type visitReportRepository struct {
	pool *pgxpool.Pool
}

// NewVisitReportRepository returns a Postgres-backed implementation.
func NewVisitReportRepository(pool *pgxpool.Pool) VisitReportRepository {
	return &visitReportRepository{pool: pool}
}

const visitColumns = `id, tenant_id, technician_id, customer_name, site, summary, status, visited_at, created_at, updated_at`

func (r *visitReportRepository) Create(ctx context.Context, report *domain.VisitReport) error {
	const query = `
        INSERT INTO visit_reports (id, tenant_id, technician_id, customer_name, site, summary, status, visited_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		report.ID,
		report.TenantID,
		report.TechnicianID,
		report.CustomerName,
		report.Site,
		report.Summary,
		report.Status,
		report.VisitedAt,
	).Scan(&report.CreatedAt, &report.UpdatedAt)
}

func (r *visitReportRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.VisitReport, error) {
	const query = `SELECT ` + visitColumns + ` FROM visit_reports WHERE tenant_id=$1 AND id=$2`

	var report domain.VisitReport
	if err := r.pool.QueryRow(ctx, query, tenantID, id).Scan(
		&report.ID,
		&report.TenantID,
		&report.TechnicianID,
		&report.CustomerName,
		&report.Site,
		&report.Summary,
		&report.Status,
		&report.VisitedAt,
		&report.CreatedAt,
		&report.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *visitReportRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*domain.VisitReport, error) {
	const query = `
        SELECT ` + visitColumns + ` FROM visit_reports
        WHERE tenant_id=$1
        ORDER BY visited_at DESC
        LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanVisitRows(rows)
}

func (r *visitReportRepository) Search(ctx context.Context, tenantID, term string, limit int) ([]*domain.VisitReport, error) {
	const query = `
        SELECT ` + visitColumns + ` FROM visit_reports
        WHERE tenant_id=$1 AND (customer_name ILIKE '%'||$2||'%' OR site ILIKE '%'||$2||'%' OR summary ILIKE '%'||$2||'%')
        ORDER BY visited_at DESC
        LIMIT $3`

	rows, err := r.pool.Query(ctx, query, tenantID, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanVisitRows(rows)
}

func (r *visitReportRepository) Update(ctx context.Context, report *domain.VisitReport) error {
	const query = `
        UPDATE visit_reports
        SET customer_name=$1, site=$2, summary=$3, status=$4, visited_at=$5, updated_at=NOW()
        WHERE tenant_id=$6 AND id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		report.CustomerName,
		report.Site,
		report.Summary,
		report.Status,
		report.VisitedAt,
		report.TenantID,
		report.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *visitReportRepository) Delete(ctx context.Context, tenantID, id string) error {
	const query = `DELETE FROM visit_reports WHERE tenant_id=$1 AND id=$2`

	cmd, err := r.pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanVisitRows(rows pgx.Rows) ([]*domain.VisitReport, error) {
	var reports []*domain.VisitReport
	for rows.Next() {
		var report domain.VisitReport
		if err := rows.Scan(
			&report.ID,
			&report.TenantID,
			&report.TechnicianID,
			&report.CustomerName,
			&report.Site,
			&report.Summary,
			&report.Status,
			&report.VisitedAt,
			&report.CreatedAt,
			&report.UpdatedAt,
		); err != nil {
			return nil, err
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}
