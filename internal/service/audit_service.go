package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/denisCazz/visitreport-service/internal/events"
)

// AuditService writes a structured audit trail for security-relevant events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handle("LoginSucceeded"))
	a.dispatcher.Subscribe(events.EventLegacyPasswordUsed, a.handle("LegacyPasswordUsed"))
	a.dispatcher.Subscribe(events.EventAccountDisabledAttempt, a.handle("AccountDisabledAttempt"))
	a.dispatcher.Subscribe(events.EventSessionRefreshed, a.handle("SessionRefreshed"))
	a.dispatcher.Subscribe(events.EventVisitCreated, a.handle("VisitCreated"))
}

func (a *AuditService) handle(name string) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		a.logger.Info("audit: "+name,
			zap.String("subject_id", event.SubjectID),
			zap.String("tenant_id", event.TenantID),
			zap.Time("at", event.Timestamp),
			zap.Any("payload", event.Payload))
		return nil
	}
}
