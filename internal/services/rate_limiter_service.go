// internal/services/rate_limiter_service.go
package services

import (
	"sync"
	"time"

	"github.com/mzdss/sms-pin-auth/internal/config"
	"github.com/mzdss/sms-pin-auth/internal/utils"
)

// RateLimiterService enforces a fixed-window quota per key. Windows
// reset lazily on access; the background sweep only reclaims memory
// for keys that stopped arriving.
type RateLimiterService interface {
	// Allow records an attempt for key and reports whether it fits in
	// the current window.
	Allow(key string) bool
	// Remaining returns how many attempts are left in the current window.
	Remaining(key string) int
	Stop()
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

type rateLimiterService struct {
	limit config.RateLimit

	mu      sync.Mutex
	entries map[string]*windowEntry

	stopOnce sync.Once
	done     chan struct{}
}

func NewRateLimiterService(limit config.RateLimit) RateLimiterService {
	s := &rateLimiterService{
		limit:   limit,
		entries: make(map[string]*windowEntry),
		done:    make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *rateLimiterService) Allow(key string) bool {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !e.resetAt.After(now) {
		s.entries[key] = &windowEntry{count: 1, resetAt: now.Add(s.limit.Window)}
		return s.limit.MaxAttempts >= 1
	}
	if e.count >= s.limit.MaxAttempts {
		return false
	}
	e.count++
	return true
}

func (s *rateLimiterService) Remaining(key string) int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !e.resetAt.After(now) {
		return s.limit.MaxAttempts
	}
	left := s.limit.MaxAttempts - e.count
	if left < 0 {
		return 0
	}
	return left
}

func (s *rateLimiterService) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// sweep drops entries whose window already elapsed. Correctness does
// not depend on it; Allow resets stale windows on its own.
func (s *rateLimiterService) sweep() {
	interval := s.limit.Window
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			removed := 0
			for key, e := range s.entries {
				if !e.resetAt.After(now) {
					delete(s.entries, key)
					removed++
				}
			}
			s.mu.Unlock()
			if removed > 0 {
				utils.Logger.Debugf("rate limiter sweep removed %d stale keys", removed)
			}
		}
	}
}
