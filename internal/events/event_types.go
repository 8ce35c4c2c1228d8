package events

import (
	"time"

	"github.com/denisCazz/visitreport-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded         EventType = "login_succeeded"
	EventLegacyPasswordUsed     EventType = "legacy_password_used"
	EventAccountDisabledAttempt EventType = "account_disabled_attempt"
	EventSessionRefreshed       EventType = "session_refreshed"
	EventVisitCreated           EventType = "visit_created"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	TenantID  string      `json:"tenant_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	Username string                `json:"username"`
	Role     domain.TechnicianRole `json:"role"`
	ClientIP string                `json:"client_ip"`
}

// LegacyPasswordUsedPayload marks a pre-migration account that still
// authenticates via plaintext comparison.
type LegacyPasswordUsedPayload struct {
	Username string `json:"username"`
}

// AccountDisabledAttemptPayload payload.
type AccountDisabledAttemptPayload struct {
	Username string `json:"username"`
	ClientIP string `json:"client_ip"`
}

// SessionRefreshedPayload payload.
type SessionRefreshedPayload struct {
	Username string `json:"username"`
}

// VisitCreatedPayload payload.
type VisitCreatedPayload struct {
	VisitID      string `json:"visit_id"`
	CustomerName string `json:"customer_name"`
	Site         string `json:"site"`
}
