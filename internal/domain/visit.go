package domain

import "time"

// VisitStatus enumerates lifecycle states for visit reports.
type VisitStatus string

const (
	VisitStatusDraft     VisitStatus = "DRAFT"
	VisitStatusSubmitted VisitStatus = "SUBMITTED"
	VisitStatusReviewed  VisitStatus = "REVIEWED"
)

// VisitReport is the record an operator files after a customer visit.
type VisitReport struct {
	ID           string
	TenantID     string
	TechnicianID string
	CustomerName string
	Site         string
	Summary      string
	Status       VisitStatus
	VisitedAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
