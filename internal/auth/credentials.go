package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// CredentialValidator checks login attempts against the configured admin account.
type CredentialValidator struct {
	email        []byte
	password     []byte
	passwordHash []byte
}

// NewCredentialValidator builds a validator. When passwordHash is set it is a bcrypt
// hash and takes precedence over the plaintext password.
func NewCredentialValidator(email, password, passwordHash string) *CredentialValidator {
	return &CredentialValidator{
		email:        []byte(NormalizeEmail(email)),
		password:     []byte(password),
		passwordHash: []byte(strings.TrimSpace(passwordHash)),
	}
}

// Validate reports whether the pair matches the admin account. It never panics and
// returns false for any mismatch or empty input.
func (v *CredentialValidator) Validate(email, password string) bool {
	if v == nil || email == "" || password == "" || len(v.email) == 0 {
		return false
	}

	emailOK := subtle.ConstantTimeCompare([]byte(NormalizeEmail(email)), v.email) == 1

	var passwordOK bool
	if len(v.passwordHash) > 0 {
		passwordOK = bcrypt.CompareHashAndPassword(v.passwordHash, []byte(password)) == nil
	} else if len(v.password) > 0 {
		passwordOK = subtle.ConstantTimeCompare([]byte(password), v.password) == 1
	}

	return emailOK && passwordOK
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes a plaintext password with the given bcrypt cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
