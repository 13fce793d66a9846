package models

import (
	"time"

	"github.com/google/uuid"
)

// OTPCode for the otp_codes table. At most one row per phone is live
// at any instant: issuing a new code deletes the previous row first.
type OTPCode struct {
	ID        uuid.UUID
	Phone     string
	Code      string
	ExpiresAt time.Time
	Attempts  int
	Verified  bool
	CreatedAt time.Time
}
