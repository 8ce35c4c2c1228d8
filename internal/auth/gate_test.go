package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/denisCazz/visitreport-service/internal/domain"
	"github.com/denisCazz/visitreport-service/internal/tenant"
	apperrors "github.com/denisCazz/visitreport-service/pkg/util"
)

func newGateApp(tm *TokenManager) *fiber.App {
	cookies := NewCookieWriter(false, 15*time.Minute, 7*24*time.Hour)
	gate := NewGate(tm, tenant.NewResolver("default"), cookies)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{
				"error": fiber.Map{"code": domainErr.Code},
			})
		},
	})
	app.Use(gate.Handle)

	app.Post("/api/auth/login", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"public": true})
	})
	app.Get("/api/records", func(c *fiber.Ctx) error {
		identity, _ := IdentityFromContext(c)
		return c.JSON(fiber.Map{
			"subject_id": identity.SubjectID,
			"username":   identity.Username,
			"role":       string(identity.Role),
			"org_id":     identity.TenantID,
		})
	})
	app.Get("/api/admin/stats", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/dashboard", func(c *fiber.Ctx) error {
		return c.SendString("dashboard")
	})
	return app
}

func newGateTokenManager() *TokenManager {
	return NewTokenManager("gate-secret", 15*time.Minute, 7*24*time.Hour)
}

func signAccess(t *testing.T, tm *TokenManager, identity domain.Identity) string {
	t.Helper()
	token, _, err := tm.Sign(identity, domain.TokenTypeAccess)
	require.NoError(t, err)
	return token
}

func operatorIdentity() domain.Identity {
	return domain.Identity{SubjectID: "tech-1", Username: "rsmith", Role: domain.RoleOperator, TenantID: "acme"}
}

func TestGate_PublicPathPassesThrough(t *testing.T) {
	t.Parallel()

	app := newGateApp(newGateTokenManager())
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGate_MissingToken(t *testing.T) {
	t.Parallel()

	app := newGateApp(newGateTokenManager())

	// API paths get a JSON 401.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/records", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Page paths redirect to login.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestGate_RefreshTokenNeverAuthorizes(t *testing.T) {
	t.Parallel()

	tm := newGateTokenManager()
	app := newGateApp(tm)

	refresh, _, err := tm.Sign(operatorIdentity(), domain.TokenTypeRefresh)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: refresh})

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGate_ExpiredToken(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tm := newGateTokenManager()
	tm.WithClock(func() time.Time { return now.Add(-time.Hour) })
	token := signAccess(t, tm, operatorIdentity())
	tm.WithClock(func() time.Time { return now })

	app := newGateApp(tm)
	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: token})

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGate_InvalidTokenOnPageClearsCookiesAndRedirects(t *testing.T) {
	t.Parallel()

	app := newGateApp(newGateTokenManager())
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: "garbage"})

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	cleared := map[string]bool{}
	for _, cookie := range resp.Cookies() {
		if cookie.Value == "" {
			cleared[cookie.Name] = true
		}
	}
	require.True(t, cleared[AccessCookieName])
	require.True(t, cleared[RefreshCookieName])
}

func TestGate_AdminPrefix(t *testing.T) {
	t.Parallel()

	tm := newGateTokenManager()
	app := newGateApp(tm)

	// Operator is rejected.
	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: signAccess(t, tm, operatorIdentity())})
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin passes.
	admin := operatorIdentity()
	admin.Role = domain.RoleAdmin
	req = httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: signAccess(t, tm, admin)})
	resp, err = app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGate_InjectsIdentityAndResolvesTenant(t *testing.T) {
	t.Parallel()

	tm := newGateTokenManager()
	app := newGateApp(tm)

	// No overrides: the token claim supplies the tenant.
	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: signAccess(t, tm, operatorIdentity())})
	resp, err := app.Test(req)
	require.NoError(t, err)
	body := decodeMap(t, resp)
	require.Equal(t, "tech-1", body["subject_id"])
	require.Equal(t, "rsmith", body["username"])
	require.Equal(t, "operator", body["role"])
	require.Equal(t, "acme", body["org_id"])

	// Explicit org header outranks the claim.
	req = httptest.NewRequest(http.MethodGet, "/api/records", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: signAccess(t, tm, operatorIdentity())})
	req.Header.Set(tenant.HeaderName, "globex")
	resp, err = app.Test(req)
	require.NoError(t, err)
	body = decodeMap(t, resp)
	require.Equal(t, "globex", body["org_id"])
}
