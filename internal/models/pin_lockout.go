package models

import (
	"time"

	"github.com/google/uuid"
)

// PinLockout for the pin_lockouts table: consecutive failed PIN login
// counter per user, with an optional lock expiry.
type PinLockout struct {
	UserID       uuid.UUID
	AttemptCount int
	LockedUntil  *time.Time
	UpdatedAt    time.Time
	CreatedAt    time.Time
}
