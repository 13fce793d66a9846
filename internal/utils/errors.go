// internal/utils/errors.go
package utils

import (
	"errors"
	"fmt"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrInvalidPhone      = errors.New("invalid_phone")
	ErrRateLimitExceeded = errors.New("rate_limit_exceeded")

	// OTP challenge failures
	ErrChallengeNotFound = errors.New("challenge_not_found")
	ErrAttemptsExceeded  = errors.New("attempts_exceeded")

	// PIN login failures
	ErrPinNotSet          = errors.New("pin_not_set")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountLocked      = errors.New("account_locked")

	// Session failures
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrSessionExpired  = errors.New("session_expired")

	// External service failures (e.g., Twilio)
	ErrExternalServiceFailure = errors.New("external_service_failure")

	// Database unavailable; fatal for the current request only.
	ErrStorageUnavailable = errors.New("storage_unavailable")
)

// CodeMismatchError reports a wrong OTP code together with how many
// attempts remain before the challenge is destroyed.
type CodeMismatchError struct {
	AttemptsLeft int
}

func (e *CodeMismatchError) Error() string {
	return fmt.Sprintf("code_mismatch: %d attempts left", e.AttemptsLeft)
}

// InvalidPINError carries the human-readable reason a PIN was rejected.
type InvalidPINError struct {
	Reason string
}

func (e *InvalidPINError) Error() string {
	return "invalid_pin: " + e.Reason
}
