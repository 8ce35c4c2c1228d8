package domain

import "time"

// TechnicianRole enumerates access levels for field personnel.
type TechnicianRole string

const (
	RoleAdmin    TechnicianRole = "admin"
	RoleOperator TechnicianRole = "operator"
)

// Valid reports whether the role is one of the known values.
func (r TechnicianRole) Valid() bool {
	return r == RoleAdmin || r == RoleOperator
}

// Technician models a field-service account with login credentials.
// SecretHash holds either a bcrypt hash or, for accounts created before
// the hashing migration, the raw legacy password.
type Technician struct {
	ID          string
	Username    string
	Email       string
	SecretHash  string
	Role        TechnicianRole
	TenantID    string
	Active      bool
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
