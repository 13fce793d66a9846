// internal/services/cleanup_service.go
package services

import (
	"context"
	"time"

	"github.com/mzdss/sms-pin-auth/internal/config"
	"github.com/mzdss/sms-pin-auth/internal/repositories"
	"github.com/mzdss/sms-pin-auth/internal/utils"
)

// CleanupService owns the periodic maintenance jobs wired into cron
// from main: expired OTP removal and audit-log retention.
type CleanupService interface {
	CleanupExpiredOTPs()
	TrimLoginAttempts()
}

type cleanupService struct {
	otpService  OTPService
	attemptRepo repositories.LoginAttemptRepository
	retention   time.Duration
}

func NewCleanupService(
	otpService OTPService,
	attemptRepo repositories.LoginAttemptRepository,
	cfg *config.Config,
) CleanupService {
	return &cleanupService{
		otpService:  otpService,
		attemptRepo: attemptRepo,
		retention:   cfg.LoginAttemptRetention,
	}
}

func (s *cleanupService) CleanupExpiredOTPs() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.otpService.CleanupExpired(ctx); err != nil {
		utils.Logger.Error("Expired OTP cleanup failed: ", err)
		return
	}
	utils.Logger.Debug("Expired OTP cleanup completed")
}

func (s *cleanupService) TrimLoginAttempts() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.attemptRepo.DeleteOlderThan(ctx, s.retention); err != nil {
		utils.Logger.Error("Login attempt retention trim failed: ", err)
		return
	}
	utils.Logger.Infof("Trimmed login attempts older than %s", s.retention)
}
