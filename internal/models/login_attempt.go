package models

import "time"

// Attempt types recorded in the login_attempts audit table.
const (
	AttemptTypeOTP = "otp"
	AttemptTypePin = "pin"
)

// LoginAttempt is an append-only audit record. Rows are never mutated
// by the request path; a retention sweep trims old ones.
type LoginAttempt struct {
	ID          int64
	Phone       string
	AttemptType string
	Success     bool
	IPAddress   string
	Timestamp   time.Time
}
