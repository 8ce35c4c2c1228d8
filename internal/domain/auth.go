package domain

// TokenType discriminates the two token kinds issued per session.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Identity is the verified identity snapshot stamped onto tokens at issuance
// and onto requests by the gate middleware.
type Identity struct {
	SubjectID string
	Username  string
	Role      TechnicianRole
	TenantID  string
}

// TokenPair bundles the access and refresh tokens issued together. A refresh
// always replaces the whole pair rather than extending the old access token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
