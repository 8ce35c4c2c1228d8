package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret hashes a plaintext secret with the configured cost.
func HashSecret(secret string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// IsHashed reports whether the stored value is a bcrypt hash. Anything else
// is treated as a legacy plaintext secret from before the hashing migration.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

// VerifySecret checks a candidate secret against the stored value.
// It returns whether the secret matched and whether the legacy plaintext
// branch produced that match; callers log the latter so remaining
// unmigrated accounts stay visible until the fallback can be deleted.
func VerifySecret(stored, candidate string) (matched, legacy bool) {
	if IsHashed(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil, false
	}
	// Legacy plaintext comparison, constant-time.
	if subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1 {
		return true, true
	}
	return false, false
}
