package tenant

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Header and query parameter names consulted when resolving the org scope.
// The legacy names are kept for clients that predate the X-Org-ID rename.
const (
	HeaderName       = "X-Org-ID"
	LegacyHeaderName = "X-Tenant-ID"
	QueryName        = "org_id"
	LegacyQueryName  = "tenant"
)

// Resolver extracts the org scope for a request, falling back to a
// compiled-in default so an empty tenant id can never leak downstream.
type Resolver struct {
	defaultOrg string
}

// NewResolver builds a resolver with the given default org.
func NewResolver(defaultOrg string) *Resolver {
	normalized := Normalize(defaultOrg)
	if normalized == "" {
		normalized = "default"
	}
	return &Resolver{defaultOrg: normalized}
}

// Resolve picks the first non-empty candidate in precedence order:
// primary header, legacy header, query param, legacy query param, the
// token claim supplied by the caller, then the default.
func (r *Resolver) Resolve(c *fiber.Ctx, claimTenant string) string {
	candidates := []string{
		c.Get(HeaderName),
		c.Get(LegacyHeaderName),
		c.Query(QueryName),
		c.Query(LegacyQueryName),
		claimTenant,
	}
	for _, candidate := range candidates {
		if normalized := Normalize(candidate); normalized != "" {
			return normalized
		}
	}
	return r.defaultOrg
}

// Default exposes the fallback org id.
func (r *Resolver) Default() string {
	return r.defaultOrg
}

// Normalize lower-cases, trims and strips every character outside
// [a-z0-9_-]. A value that strips to nothing is treated as absent.
func Normalize(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(trimmed))
	for _, ch := range trimmed {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '_', ch == '-':
			b.WriteRune(ch)
		}
	}
	return b.String()
}
