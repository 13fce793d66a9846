// internal/sessions/memory_store.go
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/mzdss/sms-pin-auth/internal/models"
	"github.com/mzdss/sms-pin-auth/internal/utils"
)

// memoryStore is the single-process session backend. A janitor evicts
// expired entries; reads also evict eagerly so expiry never depends on
// janitor timing.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session

	stopOnce sync.Once
	done     chan struct{}
}

func NewMemoryStore() SessionStore {
	s := &memoryStore{
		sessions: make(map[string]*models.Session),
		done:     make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *memoryStore) Create(ctx context.Context, session *models.Session) error {
	copied := *session
	s.mu.Lock()
	s.sessions[session.SessionID] = &copied
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	s.mu.RLock()
	stored, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if stored.Expired(time.Now()) {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return nil, nil
	}
	copied := *stored
	return &copied, nil
}

func (s *memoryStore) Update(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[session.SessionID]
	if !ok {
		return utils.ErrSessionExpired
	}
	if stored.Expired(time.Now()) {
		delete(s.sessions, session.SessionID)
		return utils.ErrSessionExpired
	}
	copied := *session
	s.sessions[session.SessionID] = &copied
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Shutdown() error {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	return nil
}

func (s *memoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for id, sess := range s.sessions {
				if sess.Expired(now) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
