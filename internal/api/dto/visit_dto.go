package dto

import (
	"time"

	"github.com/denisCazz/visitreport-service/internal/domain"
)

// VisitCreateRequest payload for new reports.
type VisitCreateRequest struct {
	CustomerName string     `json:"customer_name"`
	Site         string     `json:"site"`
	Summary      string     `json:"summary"`
	VisitedAt    *time.Time `json:"visited_at,omitempty"`
}

// VisitUpdateRequest payload for report edits; empty fields keep their value.
type VisitUpdateRequest struct {
	CustomerName string     `json:"customer_name,omitempty"`
	Site         string     `json:"site,omitempty"`
	Summary      string     `json:"summary,omitempty"`
	Status       string     `json:"status,omitempty"`
	VisitedAt    *time.Time `json:"visited_at,omitempty"`
}

// VisitResponse is the public shape of a report.
type VisitResponse struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"org_id"`
	TechnicianID string    `json:"technician_id"`
	CustomerName string    `json:"customer_name"`
	Site         string    `json:"site"`
	Summary      string    `json:"summary"`
	Status       string    `json:"status"`
	VisitedAt    time.Time `json:"visited_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewVisitResponse maps the domain model.
func NewVisitResponse(report *domain.VisitReport) VisitResponse {
	return VisitResponse{
		ID:           report.ID,
		TenantID:     report.TenantID,
		TechnicianID: report.TechnicianID,
		CustomerName: report.CustomerName,
		Site:         report.Site,
		Summary:      report.Summary,
		Status:       string(report.Status),
		VisitedAt:    report.VisitedAt,
		CreatedAt:    report.CreatedAt,
		UpdatedAt:    report.UpdatedAt,
	}
}

// NewVisitListResponse maps a slice of reports.
func NewVisitListResponse(reports []*domain.VisitReport) []VisitResponse {
	out := make([]VisitResponse, 0, len(reports))
	for _, report := range reports {
		out = append(out, NewVisitResponse(report))
	}
	return out
}
