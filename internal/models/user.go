package models

import (
	"time"

	"github.com/google/uuid"
)

// User for the users table. PinHash is NULL until the user completes
// PIN setup after their first OTP login.
type User struct {
	ID          uuid.UUID
	Phone       string
	PinHash     *string
	CreatedAt   time.Time
	LastLoginAt time.Time
}

// HasPin reports whether a PIN credential has been configured.
func (u *User) HasPin() bool {
	return u.PinHash != nil && *u.PinHash != ""
}
