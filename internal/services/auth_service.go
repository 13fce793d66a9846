// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mzdss/sms-pin-auth/internal/config"
	"github.com/mzdss/sms-pin-auth/internal/models"
	"github.com/mzdss/sms-pin-auth/internal/repositories"
	"github.com/mzdss/sms-pin-auth/internal/sessions"
	"github.com/mzdss/sms-pin-auth/internal/sms"
	"github.com/mzdss/sms-pin-auth/internal/utils"
)

// ---------------------------------------------------------------------
// AuthService interface
// ---------------------------------------------------------------------

// AuthService ties OTP delivery, PIN credentials and sessions into the
// login flows exposed over HTTP.
type AuthService interface {
	RequestOTP(ctx context.Context, phone string) error
	// VerifyOTP consumes the challenge and returns a fresh session.
	// First-time phones get a user row created here.
	VerifyOTP(ctx context.Context, phone, code, ipAddress string) (*models.Session, error)
	// SetupPIN sets the PIN for the session's user and clears the
	// session's pin-setup flag.
	SetupPIN(ctx context.Context, session *models.Session, pin string) (*models.Session, error)
	LoginWithPIN(ctx context.Context, phone, pin, ipAddress string) (*models.Session, error)
	// Logout is idempotent; unknown session IDs succeed.
	Logout(ctx context.Context, sessionID string) error
	// GetSession returns (nil, nil) for absent or expired sessions.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
}

type authService struct {
	userRepo     repositories.UserRepository
	attemptRepo  repositories.LoginAttemptRepository
	lockoutRepo  repositories.PinLockoutRepository
	otpService   OTPService
	pinService   PINService
	sessionStore sessions.SessionStore
	smsSender    sms.Sender

	otpSendLimiter   RateLimiterService
	otpVerifyLimiter RateLimiterService
	pinLoginLimiter  RateLimiterService

	cfg *config.Config
}

func NewAuthService(
	userRepo repositories.UserRepository,
	attemptRepo repositories.LoginAttemptRepository,
	lockoutRepo repositories.PinLockoutRepository,
	otpService OTPService,
	pinService PINService,
	sessionStore sessions.SessionStore,
	smsSender sms.Sender,
	otpSendLimiter RateLimiterService,
	otpVerifyLimiter RateLimiterService,
	pinLoginLimiter RateLimiterService,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:         userRepo,
		attemptRepo:      attemptRepo,
		lockoutRepo:      lockoutRepo,
		otpService:       otpService,
		pinService:       pinService,
		sessionStore:     sessionStore,
		smsSender:        smsSender,
		otpSendLimiter:   otpSendLimiter,
		otpVerifyLimiter: otpVerifyLimiter,
		pinLoginLimiter:  pinLoginLimiter,
		cfg:              cfg,
	}
}

// ---------------------------------------------------------------------
// RequestOTP
// ---------------------------------------------------------------------
func (s *authService) RequestOTP(ctx context.Context, phone string) error {
	if !utils.IsE164(phone) {
		return utils.ErrInvalidPhone
	}

	// Throttle rejections are not audited; they carry no credential.
	if !s.otpSendLimiter.Allow("otp_send:" + phone) {
		return utils.ErrRateLimitExceeded
	}

	code, err := s.otpService.Issue(ctx, phone)
	if err != nil {
		return err
	}

	message := fmt.Sprintf(
		"Ваш код подтверждения: %s. Действителен %d минут.",
		code,
		int(s.cfg.OTPExpiration/time.Minute),
	)
	if err := s.smsSender.Send(ctx, phone, message); err != nil {
		return err
	}

	utils.Logger.Infof("OTP issued for %s", phone)
	return nil
}

// ---------------------------------------------------------------------
// VerifyOTP
// ---------------------------------------------------------------------
func (s *authService) VerifyOTP(ctx context.Context, phone, code, ipAddress string) (*models.Session, error) {
	if !utils.IsE164(phone) {
		return nil, utils.ErrInvalidPhone
	}
	if !s.otpVerifyLimiter.Allow("otp_verify:" + phone) {
		return nil, utils.ErrRateLimitExceeded
	}

	if err := s.otpService.Verify(ctx, phone, code); err != nil {
		var mismatch *utils.CodeMismatchError
		if errors.Is(err, utils.ErrChallengeNotFound) ||
			errors.Is(err, utils.ErrAttemptsExceeded) ||
			errors.As(err, &mismatch) {
			s.audit(ctx, phone, models.AttemptTypeOTP, false, ipAddress)
		}
		return nil, err
	}

	user, err := s.userRepo.GetOrCreate(ctx, phone)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		utils.Logger.Error("Failed to update last login: ", err)
	}

	s.audit(ctx, phone, models.AttemptTypeOTP, true, ipAddress)

	return s.createSession(ctx, user)
}

// ---------------------------------------------------------------------
// SetupPIN
// ---------------------------------------------------------------------
func (s *authService) SetupPIN(ctx context.Context, session *models.Session, pin string) (*models.Session, error) {
	if session == nil {
		return nil, utils.ErrUnauthenticated
	}

	if err := s.pinService.ValidateFormat(pin); err != nil {
		return nil, err
	}

	hash, err := s.pinService.Hash(pin)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdatePin(ctx, session.UserID, hash); err != nil {
		return nil, err
	}

	updated := *session
	updated.RequiresPinSetup = false
	if err := s.sessionStore.Update(ctx, &updated); err != nil {
		return nil, err
	}

	utils.Logger.Infof("PIN configured for user %s", session.UserID)
	return &updated, nil
}

// ---------------------------------------------------------------------
// LoginWithPIN
// ---------------------------------------------------------------------
func (s *authService) LoginWithPIN(ctx context.Context, phone, pin, ipAddress string) (*models.Session, error) {
	if !utils.IsE164(phone) {
		return nil, utils.ErrInvalidPhone
	}
	if !s.pinLoginLimiter.Allow("pin_login:" + phone) {
		return nil, utils.ErrRateLimitExceeded
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Same failure as a wrong PIN, so unknown phones are not
		// distinguishable from bad credentials.
		s.audit(ctx, phone, models.AttemptTypePin, false, ipAddress)
		return nil, utils.ErrInvalidCredentials
	}
	if !user.HasPin() {
		s.audit(ctx, phone, models.AttemptTypePin, false, ipAddress)
		return nil, utils.ErrPinNotSet
	}

	if _, err := s.lockoutRepo.GetOrCreate(ctx, user.ID); err != nil {
		return nil, err
	}
	locked, until, err := s.lockoutRepo.IsLocked(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if locked {
		utils.Logger.Warnf("PIN login rejected for %s: locked until %s", phone, until.Format(time.RFC3339))
		s.audit(ctx, phone, models.AttemptTypePin, false, ipAddress)
		return nil, utils.ErrAccountLocked
	}

	if !s.pinService.Verify(pin, *user.PinHash) {
		if incErr := s.lockoutRepo.Increment(
			ctx, user.ID,
			s.cfg.PinLockDuration, s.cfg.PinFailureWindow, s.cfg.MaxPinFailures,
		); incErr != nil {
			utils.Logger.Error("Failed to record PIN failure: ", incErr)
		}
		s.audit(ctx, phone, models.AttemptTypePin, false, ipAddress)
		return nil, utils.ErrInvalidCredentials
	}

	if err := s.lockoutRepo.Reset(ctx, user.ID); err != nil {
		utils.Logger.Error("Failed to reset PIN lockout: ", err)
	}
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		utils.Logger.Error("Failed to update last login: ", err)
	}

	s.audit(ctx, phone, models.AttemptTypePin, true, ipAddress)

	return s.createSession(ctx, user)
}

// ---------------------------------------------------------------------
// Logout / GetSession
// ---------------------------------------------------------------------
func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessionStore.Delete(ctx, sessionID)
}

func (s *authService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	return s.sessionStore.Get(ctx, sessionID)
}

// ---------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------
func (s *authService) createSession(ctx context.Context, user *models.User) (*models.Session, error) {
	session := &models.Session{
		SessionID:        uuid.NewString(),
		UserID:           user.ID,
		Phone:            user.Phone,
		ExpiresAt:        time.Now().Add(s.cfg.SessionMaxAge),
		RequiresPinSetup: !user.HasPin(),
	}
	if err := s.sessionStore.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *authService) audit(ctx context.Context, phone, attemptType string, success bool, ipAddress string) {
	if err := s.attemptRepo.Log(ctx, phone, attemptType, success, ipAddress); err != nil {
		utils.Logger.Error("Failed to record login attempt: ", err)
	}
}
