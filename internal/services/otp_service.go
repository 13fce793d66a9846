// internal/services/otp_service.go
package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/mzdss/sms-pin-auth/internal/config"
	"github.com/mzdss/sms-pin-auth/internal/models"
	"github.com/mzdss/sms-pin-auth/internal/repositories"
	"github.com/mzdss/sms-pin-auth/internal/utils"
)

// OTPService issues and verifies one-time codes. The database is the
// source of truth; an in-memory hint cache only short-circuits lookups
// for phones with no outstanding challenge.
type OTPService interface {
	// Issue generates a fresh code for the phone, replacing any
	// previous challenge, and returns the plaintext code for delivery.
	Issue(ctx context.Context, phone string) (string, error)
	// Verify checks the supplied code. On success the challenge is
	// consumed. Failures surface as utils.ErrChallengeNotFound,
	// utils.ErrAttemptsExceeded or *utils.CodeMismatchError.
	Verify(ctx context.Context, phone, code string) error
	CleanupExpired(ctx context.Context) error
	Shutdown()
}

type otpHint struct {
	expiresAt time.Time
}

type otpService struct {
	repo        repositories.OTPRepository
	codeLength  int
	expiration  time.Duration
	maxAttempts int

	mu    sync.Mutex
	hints map[string]otpHint

	stopOnce sync.Once
	done     chan struct{}
}

func NewOTPService(repo repositories.OTPRepository, cfg *config.Config) OTPService {
	s := &otpService{
		repo:        repo,
		codeLength:  cfg.OTPLength,
		expiration:  cfg.OTPExpiration,
		maxAttempts: cfg.MaxOTPAttempts,
		hints:       make(map[string]otpHint),
		done:        make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *otpService) Issue(ctx context.Context, phone string) (string, error) {
	code, err := generateNumericCode(s.codeLength)
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(s.expiration)
	if _, err := s.repo.Replace(ctx, phone, code, expiresAt); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.hints[phone] = otpHint{expiresAt: expiresAt}
	s.mu.Unlock()

	return code, nil
}

func (s *otpService) Verify(ctx context.Context, phone, code string) error {
	s.mu.Lock()
	hint, hinted := s.hints[phone]
	s.mu.Unlock()
	if hinted && !hint.expiresAt.After(time.Now()) {
		// Hint says the challenge expired; confirm against the DB
		// below in case a newer one was issued elsewhere.
		s.dropHint(phone)
	}

	rec, err := s.repo.GetActiveByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if rec == nil {
		s.dropHint(phone)
		return utils.ErrChallengeNotFound
	}

	// Count the attempt before comparing, so a storm of wrong guesses
	// cannot probe past the cap.
	attempts, err := s.repo.IncrementAttempts(ctx, rec.ID)
	if err != nil {
		return err
	}
	if attempts > s.maxAttempts {
		s.consume(ctx, rec)
		return utils.ErrAttemptsExceeded
	}

	if code != rec.Code {
		left := s.maxAttempts - attempts
		if left <= 0 {
			s.consume(ctx, rec)
			return utils.ErrAttemptsExceeded
		}
		return &utils.CodeMismatchError{AttemptsLeft: left}
	}

	s.consume(ctx, rec)
	return nil
}

func (s *otpService) consume(ctx context.Context, rec *models.OTPCode) {
	if err := s.repo.Delete(ctx, rec.ID); err != nil {
		utils.Logger.Error("Failed to delete consumed challenge: ", err)
	}
	s.dropHint(rec.Phone)
}

func (s *otpService) dropHint(phone string) {
	s.mu.Lock()
	delete(s.hints, phone)
	s.mu.Unlock()
}

func (s *otpService) CleanupExpired(ctx context.Context) error {
	return s.repo.CleanupExpired(ctx)
}

func (s *otpService) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

func (s *otpService) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for phone, hint := range s.hints {
				if !hint.expiresAt.After(now) {
					delete(s.hints, phone)
				}
			}
			s.mu.Unlock()
		}
	}
}

// generateNumericCode draws uniformly from [10^(length-1), 10^length-1]
// so every code has exactly `length` digits.
func generateNumericCode(length int) (string, error) {
	low := int64(1)
	for i := 1; i < length; i++ {
		low *= 10
	}
	span := low*10 - low
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", low+n.Int64()), nil
}
