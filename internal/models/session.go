package models

import (
	"time"

	"github.com/google/uuid"
)

// Session binds an opaque identifier to an authenticated user.
// Validity is always re-checked against ExpiresAt at read time.
type Session struct {
	SessionID        string    `json:"session_id"`
	UserID           uuid.UUID `json:"user_id"`
	Phone            string    `json:"phone"`
	ExpiresAt        time.Time `json:"expires_at"`
	RequiresPinSetup bool      `json:"requires_pin_setup"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
