package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/denisCazz/visitreport-service/internal/domain"
	"github.com/denisCazz/visitreport-service/internal/tenant"
	apperrors "github.com/denisCazz/visitreport-service/pkg/util"
)

const identityKey = "auth_identity"

var defaultPublicPrefixes = []string{
	"/api/auth/login",
	"/api/auth/refresh",
	"/api/auth/logout",
	"/health",
	"/static/",
	"/login",
	"/register",
}

var defaultAdminPrefixes = []string{
	"/api/admin/",
	"/admin",
}

// Gate is the edge middleware in front of every protected route. One
// synchronous pass per request: public-path check, cookie extraction,
// token verification, role enforcement, identity injection. The only
// computation beyond string matching is the local signature check.
type Gate struct {
	tokens         *TokenManager
	tenants        *tenant.Resolver
	cookies        *CookieWriter
	publicPrefixes []string
	adminPrefixes  []string
}

// NewGate constructs the middleware with the default path rules.
func NewGate(tokens *TokenManager, tenants *tenant.Resolver, cookies *CookieWriter) *Gate {
	return &Gate{
		tokens:         tokens,
		tenants:        tenants,
		cookies:        cookies,
		publicPrefixes: defaultPublicPrefixes,
		adminPrefixes:  defaultAdminPrefixes,
	}
}

// WithPaths overrides the public and admin prefix lists. Test hook.
func (g *Gate) WithPaths(public, admin []string) *Gate {
	g.publicPrefixes = public
	g.adminPrefixes = admin
	return g
}

// Handle enforces authentication for protected routes.
func (g *Gate) Handle(c *fiber.Ctx) error {
	path := c.Path()
	if g.isPublic(path) {
		return c.Next()
	}

	tokenStr := c.Cookies(AccessCookieName)
	if tokenStr == "" {
		return g.rejectUnauthenticated(c, false)
	}

	// A refresh token in the access slot must not authorize anything;
	// refreshing is the client's job, the gate only forces re-auth.
	claims, err := g.tokens.VerifyType(tokenStr, domain.TokenTypeAccess)
	if err != nil {
		return g.rejectUnauthenticated(c, true)
	}

	if g.isAdminOnly(path) && claims.Role != domain.RoleAdmin {
		if isAPIPath(path) {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	}

	identity := domain.Identity{
		SubjectID: claims.SubjectID,
		Username:  claims.Username,
		Role:      claims.Role,
		TenantID:  g.tenants.Resolve(c, claims.TenantID),
	}
	c.Locals(identityKey, identity)
	return c.Next()
}

// RequireAdmin is a route-level guard for handlers mounted outside the
// admin prefixes that still need the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if identity.Role != domain.RoleAdmin {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}

// IdentityFromContext retrieves the verified identity injected by the gate.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return domain.Identity{}, false
	}
	identity, ok := val.(domain.Identity)
	return identity, ok
}

func (g *Gate) rejectUnauthenticated(c *fiber.Ctx, clearCookies bool) error {
	if isAPIPath(c.Path()) {
		return apperrors.NewUnauthorized("authentication required")
	}
	// Page routes: an invalid access token is the same as no session.
	if clearCookies {
		g.cookies.ClearSession(c)
	}
	return c.Redirect("/login", fiber.StatusSeeOther)
}

func (g *Gate) isPublic(path string) bool {
	for _, prefix := range g.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (g *Gate) isAdminOnly(path string) bool {
	for _, prefix := range g.adminPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}
