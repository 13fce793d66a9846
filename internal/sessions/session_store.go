// internal/sessions/session_store.go
package sessions

import (
	"context"

	"github.com/mzdss/sms-pin-auth/internal/models"
)

// SessionStore persists sessions keyed by opaque session ID. Expired
// sessions behave exactly like missing ones. Shutdown is idempotent.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	// Get returns (nil, nil) when the session is absent or expired.
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	// Update overwrites the stored session. Updating an absent or
	// expired session returns utils.ErrSessionExpired.
	Update(ctx context.Context, session *models.Session) error
	// Delete is a no-op for unknown IDs.
	Delete(ctx context.Context, sessionID string) error
	Shutdown() error
}
