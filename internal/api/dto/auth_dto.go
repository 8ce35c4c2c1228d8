package dto

// LoginRequest payload for POST /api/auth/login.
type LoginRequest struct {
	Identifier string `json:"username_or_email"`
	Secret     string `json:"password"`
}

// RefreshRequest payload for non-cookie callers of POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// IdentityResponse is the public shape of a verified identity.
type IdentityResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	TenantID string `json:"org_id"`
}

// SessionResponse mirrors the cookie pair in the body for callers that
// cannot consume cookies.
type SessionResponse struct {
	Success      bool             `json:"success"`
	Identity     IdentityResponse `json:"identity"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
}
