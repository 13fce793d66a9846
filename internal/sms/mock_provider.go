// internal/sms/mock_provider.go
package sms

import (
	"context"
	"sync"

	"github.com/mzdss/sms-pin-auth/internal/utils"
)

const mockHistoryLimit = 100

// MockProvider logs outgoing messages instead of sending them. Useful
// for local development and tests; LastMessage lets callers inspect
// what would have been delivered.
type MockProvider struct {
	mu       sync.Mutex
	messages []mockMessage
}

type mockMessage struct {
	phone string
	body  string
}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Send(ctx context.Context, phone, message string) error {
	utils.Logger.Infof("[mock sms] to=%s body=%q", phone, message)

	p.mu.Lock()
	p.messages = append(p.messages, mockMessage{phone: phone, body: message})
	if len(p.messages) > mockHistoryLimit {
		p.messages = p.messages[len(p.messages)-mockHistoryLimit:]
	}
	p.mu.Unlock()
	return nil
}

// LastMessage returns the most recent message sent to phone, or ""
// when none was recorded.
func (p *MockProvider) LastMessage(phone string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.messages) - 1; i >= 0; i-- {
		if p.messages[i].phone == phone {
			return p.messages[i].body
		}
	}
	return ""
}
