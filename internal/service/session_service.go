package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/denisCazz/visitreport-service/internal/auth"
	"github.com/denisCazz/visitreport-service/internal/domain"
	"github.com/denisCazz/visitreport-service/internal/events"
	"github.com/denisCazz/visitreport-service/internal/observability"
	"github.com/denisCazz/visitreport-service/internal/ratelimit"
	"github.com/denisCazz/visitreport-service/internal/repository"
	apperrors "github.com/denisCazz/visitreport-service/pkg/util"
)

const loginAction = "login"

// SessionService orchestrates login, refresh and logout.
type SessionService struct {
	technicians repository.TechnicianRepository
	tokens      *auth.TokenManager
	limiter     *ratelimit.Limiter
	loginPolicy ratelimit.Policy
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

// SessionDependencies encapsulates collaborator requirements.
type SessionDependencies struct {
	Technicians repository.TechnicianRepository
	Tokens      *auth.TokenManager
	Limiter     *ratelimit.Limiter
	LoginPolicy ratelimit.Policy
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// NewSessionService builds the service.
func NewSessionService(deps SessionDependencies) *SessionService {
	return &SessionService{
		technicians: deps.Technicians,
		tokens:      deps.Tokens,
		limiter:     deps.Limiter,
		loginPolicy: deps.LoginPolicy,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		now:         time.Now,
	}
}

// WithClock replaces the time source. Test hook.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// Login authenticates a technician by username or email and issues a fresh
// token pair. The rate limiter runs before any storage or hash work so a
// blocked client never costs a bcrypt comparison.
//
// Unknown identifier and wrong secret return the same error on purpose;
// the responses must stay indistinguishable to resist enumeration.
func (s *SessionService) Login(ctx context.Context, identifier, secret, clientIP string) (domain.Identity, domain.TokenPair, error) {
	res, err := s.limiter.CheckAndIncrement(ctx, ratelimit.Key(loginAction, clientIP), s.loginPolicy)
	if err != nil {
		return domain.Identity{}, domain.TokenPair{}, err
	}
	if !res.Allowed {
		s.metrics.RecordRateLimited(loginAction)
		return domain.Identity{}, domain.TokenPair{}, apperrors.NewRateLimited(res.RetryAfter)
	}

	tech, err := s.lookup(ctx, identifier)
	if err != nil {
		if err == pgx.ErrNoRows {
			s.metrics.RecordLogin("denied")
			return domain.Identity{}, domain.TokenPair{}, apperrors.NewInvalidCredentials()
		}
		return domain.Identity{}, domain.TokenPair{}, err
	}

	if !tech.Active {
		s.metrics.RecordLogin("disabled")
		s.publish(ctx, events.EventAccountDisabledAttempt, tech,
			events.AccountDisabledAttemptPayload{Username: tech.Username, ClientIP: clientIP})
		return domain.Identity{}, domain.TokenPair{}, apperrors.NewAccountDisabled()
	}

	matched, legacy := auth.VerifySecret(tech.SecretHash, secret)
	if !matched {
		s.metrics.RecordLogin("denied")
		return domain.Identity{}, domain.TokenPair{}, apperrors.NewInvalidCredentials()
	}
	if legacy {
		// Pre-migration account; the hash is upgraded on next password
		// change, not here. Keep the signal loud until the fallback dies.
		s.logger.Warn("legacy plaintext password matched",
			zap.String("technician_id", tech.ID),
			zap.String("username", tech.Username))
		s.metrics.RecordLegacyPassword()
		s.publish(ctx, events.EventLegacyPasswordUsed, tech,
			events.LegacyPasswordUsedPayload{Username: tech.Username})
	}

	if err := s.technicians.UpdateLastLogin(ctx, tech.ID, s.now()); err != nil {
		return domain.Identity{}, domain.TokenPair{}, err
	}

	identity := identityOf(tech)
	pair, err := s.tokens.CreatePair(identity)
	if err != nil {
		return domain.Identity{}, domain.TokenPair{}, err
	}

	s.metrics.RecordLogin("ok")
	s.publish(ctx, events.EventLoginSucceeded, tech,
		events.LoginSucceededPayload{Username: tech.Username, Role: tech.Role, ClientIP: clientIP})
	return identity, pair, nil
}

// Refresh exchanges a valid refresh token for a brand-new pair (full
// rotation). This is the only point where deactivation is enforced against
// already-issued tokens; an access token for a deactivated account stays
// valid until its own short expiry.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (domain.Identity, domain.TokenPair, error) {
	claims, err := s.tokens.VerifyType(refreshToken, domain.TokenTypeRefresh)
	if err != nil {
		return domain.Identity{}, domain.TokenPair{}, apperrors.NewUnauthorized("invalid refresh token")
	}

	tech, err := s.technicians.GetByID(ctx, claims.SubjectID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Identity{}, domain.TokenPair{}, apperrors.NewUnauthorized("invalid refresh token")
		}
		return domain.Identity{}, domain.TokenPair{}, err
	}
	if !tech.Active {
		return domain.Identity{}, domain.TokenPair{}, apperrors.NewUnauthorized("invalid refresh token")
	}

	if tech.TenantID != claims.TenantID {
		// Stored record wins over the stale claim; logged, not rejected.
		s.logger.Warn("tenant mismatch on refresh",
			zap.String("technician_id", tech.ID),
			zap.String("stored", tech.TenantID),
			zap.String("claimed", claims.TenantID))
	}

	identity := identityOf(tech)
	pair, err := s.tokens.CreatePair(identity)
	if err != nil {
		return domain.Identity{}, domain.TokenPair{}, err
	}

	s.metrics.RecordRefresh()
	s.publish(ctx, events.EventSessionRefreshed, tech,
		events.SessionRefreshedPayload{Username: tech.Username})
	return identity, pair, nil
}

// Logout is stateless: there is no server-side session to invalidate, the
// transport layer just clears the cookies.
func (s *SessionService) Logout(_ context.Context) error {
	return nil
}

// TokenManager exposes the codec for the gate middleware and handlers.
func (s *SessionService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *SessionService) lookup(ctx context.Context, identifier string) (*domain.Technician, error) {
	if strings.Contains(identifier, "@") {
		return s.technicians.GetByEmail(ctx, identifier)
	}
	return s.technicians.GetByUsername(ctx, identifier)
}

func (s *SessionService) publish(ctx context.Context, eventType events.EventType, tech *domain.Technician, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: tech.ID,
		TenantID:  tech.TenantID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}

func identityOf(tech *domain.Technician) domain.Identity {
	return domain.Identity{
		SubjectID: tech.ID,
		Username:  tech.Username,
		Role:      tech.Role,
		TenantID:  tech.TenantID,
	}
}
