package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/denisCazz/visitreport-service/internal/domain"
)

// TechnicianRepository defines persistence access for technician accounts.
// The auth subsystem only reads credential records and touches last_login_at
// and secret_hash; account creation and deactivation happen elsewhere.
type TechnicianRepository interface {
	Create(ctx context.Context, tech *domain.Technician) error
	GetByID(ctx context.Context, id string) (*domain.Technician, error)
	GetByUsername(ctx context.Context, username string) (*domain.Technician, error)
	GetByEmail(ctx context.Context, email string) (*domain.Technician, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateSecretHash(ctx context.Context, id, secretHash string) error
}

type technicianRepository struct {
	pool *pgxpool.Pool
}

// NewTechnicianRepository returns a Postgres-backed implementation.
func NewTechnicianRepository(pool *pgxpool.Pool) TechnicianRepository {
	return &technicianRepository{pool: pool}
}

const technicianColumns = `id, username, email, secret_hash, role, tenant_id, active, last_login_at, created_at, updated_at`

func (r *technicianRepository) Create(ctx context.Context, tech *domain.Technician) error {
	const query = `
        INSERT INTO technicians (username, email, secret_hash, role, tenant_id, active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		tech.Username,
		tech.Email,
		tech.SecretHash,
		tech.Role,
		tech.TenantID,
		tech.Active,
	).Scan(&tech.ID, &tech.CreatedAt, &tech.UpdatedAt)
}

func (r *technicianRepository) GetByID(ctx context.Context, id string) (*domain.Technician, error) {
	const query = `SELECT ` + technicianColumns + ` FROM technicians WHERE id=$1`
	return r.scanOne(ctx, query, id)
}

// GetByUsername matches case-insensitively so "RSmith" and "rsmith" resolve
// to the same account.
func (r *technicianRepository) GetByUsername(ctx context.Context, username string) (*domain.Technician, error) {
	const query = `SELECT ` + technicianColumns + ` FROM technicians WHERE LOWER(username)=LOWER($1)`
	return r.scanOne(ctx, query, username)
}

func (r *technicianRepository) GetByEmail(ctx context.Context, email string) (*domain.Technician, error) {
	const query = `SELECT ` + technicianColumns + ` FROM technicians WHERE LOWER(email)=LOWER($1)`
	return r.scanOne(ctx, query, email)
}

func (r *technicianRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE technicians SET last_login_at=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *technicianRepository) UpdateSecretHash(ctx context.Context, id, secretHash string) error {
	const query = `UPDATE technicians SET secret_hash=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, secretHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *technicianRepository) scanOne(ctx context.Context, query string, arg any) (*domain.Technician, error) {
	var tech domain.Technician
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&tech.ID,
		&tech.Username,
		&tech.Email,
		&tech.SecretHash,
		&tech.Role,
		&tech.TenantID,
		&tech.Active,
		&tech.LastLoginAt,
		&tech.CreatedAt,
		&tech.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tech, nil
}
