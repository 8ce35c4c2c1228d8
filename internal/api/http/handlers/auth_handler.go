package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/denisCazz/visitreport-service/internal/api/dto"
	"github.com/denisCazz/visitreport-service/internal/auth"
	"github.com/denisCazz/visitreport-service/internal/domain"
	"github.com/denisCazz/visitreport-service/internal/service"
	apperrors "github.com/denisCazz/visitreport-service/pkg/util"
)

// AuthHandler exposes the session endpoints.
type AuthHandler struct {
	sessions *service.SessionService
	cookies  *auth.CookieWriter
}

// NewAuthHandler constructs handler.
func NewAuthHandler(sessions *service.SessionService, cookies *auth.CookieWriter) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookies: cookies}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Identifier == "" || req.Secret == "" {
		return fiber.NewError(http.StatusBadRequest, "username_or_email and password required")
	}

	identity, pair, err := h.sessions.Login(c.Context(), req.Identifier, req.Secret, c.IP())
	if err != nil {
		return err
	}

	h.cookies.SetSession(c, pair)
	return c.JSON(sessionResponse(identity, pair))
}

// Refresh handles POST /api/auth/refresh. The token is read from the
// refresh cookie, with a body fallback for non-cookie callers.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	tokenStr := c.Cookies(auth.RefreshCookieName)
	if tokenStr == "" {
		var req dto.RefreshRequest
		if err := c.BodyParser(&req); err == nil {
			tokenStr = req.RefreshToken
		}
	}
	if tokenStr == "" {
		h.cookies.ClearSession(c)
		return apperrors.NewUnauthorized("refresh token required")
	}

	identity, pair, err := h.sessions.Refresh(c.Context(), tokenStr)
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.HTTPStatus == http.StatusUnauthorized {
			h.cookies.ClearSession(c)
		}
		return err
	}

	h.cookies.SetSession(c, pair)
	return c.JSON(sessionResponse(identity, pair))
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.Logout(c.Context()); err != nil {
		return err
	}
	h.cookies.ClearSession(c)
	return c.JSON(fiber.Map{"success": true})
}

func sessionResponse(identity domain.Identity, pair domain.TokenPair) dto.SessionResponse {
	return dto.SessionResponse{
		Success: true,
		Identity: dto.IdentityResponse{
			ID:       identity.SubjectID,
			Username: identity.Username,
			Role:     string(identity.Role),
			TenantID: identity.TenantID,
		},
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
}
