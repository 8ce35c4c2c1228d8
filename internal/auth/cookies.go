package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/denisCazz/visitreport-service/internal/domain"
)

// Cookie names for the session transport. The http-only pair is what the
// gate reads; the "_client" copies exist for callers that cannot read
// http-only cookies and must mirror the canonical pair exactly.
const (
	AccessCookieName        = "access_token"
	RefreshCookieName       = "refresh_token"
	AccessClientCookieName  = "access_token_client"
	RefreshClientCookieName = "refresh_token_client"
)

// CookieWriter stamps and clears the session cookie set. Both
// representations are always replaced together on issuance and rotation.
type CookieWriter struct {
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCookieWriter builds a writer; secure should be true in production.
func NewCookieWriter(secure bool, accessTTL, refreshTTL time.Duration) *CookieWriter {
	return &CookieWriter{secure: secure, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// SetSession writes all four cookies for a freshly issued pair.
func (w *CookieWriter) SetSession(c *fiber.Ctx, pair domain.TokenPair) {
	c.Cookie(w.cookie(AccessCookieName, pair.AccessToken, w.accessTTL, true))
	c.Cookie(w.cookie(RefreshCookieName, pair.RefreshToken, w.refreshTTL, true))
	c.Cookie(w.cookie(AccessClientCookieName, pair.AccessToken, w.accessTTL, false))
	c.Cookie(w.cookie(RefreshClientCookieName, pair.RefreshToken, w.refreshTTL, false))
}

// ClearSession expires all four cookies.
func (w *CookieWriter) ClearSession(c *fiber.Ctx) {
	for _, name := range []string{AccessCookieName, RefreshCookieName, AccessClientCookieName, RefreshClientCookieName} {
		httpOnly := name == AccessCookieName || name == RefreshCookieName
		cleared := w.cookie(name, "", -time.Hour, httpOnly)
		cleared.Expires = time.Unix(0, 0)
		c.Cookie(cleared)
	}
}

func (w *CookieWriter) cookie(name, value string, ttl time.Duration, httpOnly bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Secure:   w.secure,
		HTTPOnly: httpOnly,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
