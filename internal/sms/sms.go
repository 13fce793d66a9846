// internal/sms/sms.go
package sms

import "context"

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}
