package domain

import "time"

// AdminRole is the only role an admin token may carry.
const AdminRole = "admin"

// AdminPayload is the verified claim set of an admin token.
type AdminPayload struct {
	TokenID   string
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Remaining returns how long the token stays valid at now.
func (p AdminPayload) Remaining(now time.Time) time.Duration {
	return p.ExpiresAt.Sub(now)
}
