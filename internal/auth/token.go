package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/denisCazz/visitreport-service/internal/domain"
)

// ErrInvalidToken is the single verification failure reported to callers.
// Signature, structure, expiry and signing-method failures all collapse into
// it; distinguishing them would only help an attacker.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager signs and verifies the JWT pair used for sessions.
// The now func is injectable so expiry can be tested without sleeping.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager builds a manager with the given TTLs.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source. Test hook.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	tm.now = now
	return tm
}

// Claims describes the JWT payload shared by both token kinds.
type Claims struct {
	SubjectID string                `json:"sub_id"`
	Username  string                `json:"username"`
	Role      domain.TechnicianRole `json:"role"`
	TenantID  string                `json:"org_id"`
	TokenType domain.TokenType      `json:"token_type"`
	jwt.RegisteredClaims
}

// Sign builds and signs a token of the given kind for the identity.
func (tm *TokenManager) Sign(identity domain.Identity, kind domain.TokenType) (string, time.Time, error) {
	ttl := tm.accessTTL
	if kind == domain.TokenTypeRefresh {
		ttl = tm.refreshTTL
	}

	issuedAt := tm.now()
	expiresAt := issuedAt.Add(ttl)
	claims := &Claims{
		SubjectID: identity.SubjectID,
		Username:  identity.Username,
		Role:      identity.Role,
		TenantID:  identity.TenantID,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.SubjectID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify validates signature, structure and expiry, returning the claims.
// Malformed input of any shape resolves to ErrInvalidToken, never a panic.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SubjectID == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	switch claims.TokenType {
	case domain.TokenTypeAccess, domain.TokenTypeRefresh:
	default:
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyType verifies the token and additionally requires the expected kind.
// A refresh token presented where an access token is required fails here even
// when otherwise well-formed, and vice versa.
func (tm *TokenManager) VerifyType(tokenStr string, want domain.TokenType) (*Claims, error) {
	claims, err := tm.Verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != want {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CreatePair issues both token kinds from one identity snapshot. Login and
// refresh both go through here: a refresh mints a whole new pair.
func (tm *TokenManager) CreatePair(identity domain.Identity) (domain.TokenPair, error) {
	access, _, err := tm.Sign(identity, domain.TokenTypeAccess)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, _, err := tm.Sign(identity, domain.TokenTypeRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// AccessTTL exposes the access token lifetime for cookie max-age.
func (tm *TokenManager) AccessTTL() time.Duration { return tm.accessTTL }

// RefreshTTL exposes the refresh token lifetime for cookie max-age.
func (tm *TokenManager) RefreshTTL() time.Duration { return tm.refreshTTL }
