// internal/controllers/auth_controller.go
package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mzdss/sms-pin-auth/internal/config"
	"github.com/mzdss/sms-pin-auth/internal/dtos"
	"github.com/mzdss/sms-pin-auth/internal/middleware"
	"github.com/mzdss/sms-pin-auth/internal/services"
	"github.com/mzdss/sms-pin-auth/internal/utils"
)

type AuthController struct {
	authService services.AuthService
	cfg         *config.Config
}

func NewAuthController(authService services.AuthService, cfg *config.Config) *AuthController {
	return &AuthController{authService: authService, cfg: cfg}
}

var authValidate = validator.New()

// ---------------------------------------------------------------------
// RequestOTP
// ---------------------------------------------------------------------
func (c *AuthController) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req dtos.RequestOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := authValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPhone, "Invalid phone format", nil, err,
		)
		return
	}

	if err := c.authService.RequestOTP(r.Context(), req.Phone); err != nil {
		c.respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.RequestOTPResponse{Message: "Code sent"})
}

// ---------------------------------------------------------------------
// VerifyOTP
// ---------------------------------------------------------------------
func (c *AuthController) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dtos.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := authValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid phone or code format", nil, err,
		)
		return
	}

	session, err := c.authService.VerifyOTP(r.Context(), req.Phone, req.Code, clientIP(r))
	if err != nil {
		c.respondAuthError(w, err)
		return
	}

	middleware.SetSessionCookie(w, session.SessionID, c.cfg.SessionMaxAge)
	utils.RespondWithJSON(w, http.StatusOK, dtos.VerifyOTPResponse{
		Success:          true,
		UserID:           session.UserID.String(),
		RequiresPinSetup: session.RequiresPinSetup,
	})
}

// ---------------------------------------------------------------------
// SetupPin
// ---------------------------------------------------------------------
func (c *AuthController) SetupPin(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r)
	if session == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required", nil,
		)
		return
	}

	var req dtos.SetupPinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}

	if _, err := c.authService.SetupPIN(r.Context(), session, req.Pin); err != nil {
		c.respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.SetupPinResponse{Message: "PIN configured"})
}

// ---------------------------------------------------------------------
// LoginPin
// ---------------------------------------------------------------------
func (c *AuthController) LoginPin(w http.ResponseWriter, r *http.Request) {
	var req dtos.LoginPinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err,
		)
		return
	}
	if err := authValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid phone or PIN format", nil, err,
		)
		return
	}

	session, err := c.authService.LoginWithPIN(r.Context(), req.Phone, req.Pin, clientIP(r))
	if err != nil {
		c.respondAuthError(w, err)
		return
	}

	middleware.SetSessionCookie(w, session.SessionID, c.cfg.SessionMaxAge)
	utils.RespondWithJSON(w, http.StatusOK, dtos.LoginPinResponse{
		Success: true,
		UserID:  session.UserID.String(),
	})
}

// ---------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := ""
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessionID = cookie.Value
	}

	if err := c.authService.Logout(r.Context(), sessionID); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Logout failed", nil, err,
		)
		return
	}

	middleware.ClearSessionCookie(w)
	utils.RespondWithJSON(w, http.StatusOK, dtos.LogoutResponse{Success: true})
}

// ---------------------------------------------------------------------
// GetSession
// ---------------------------------------------------------------------
func (c *AuthController) GetSession(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r)
	if session == nil {
		utils.RespondWithJSON(w, http.StatusOK, dtos.SessionResponse{Authenticated: false})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.SessionResponse{
		Authenticated:    true,
		UserID:           session.UserID.String(),
		Phone:            session.Phone,
		RequiresPinSetup: session.RequiresPinSetup,
	})
}

// respondAuthError maps service errors onto stable HTTP codes.
func (c *AuthController) respondAuthError(w http.ResponseWriter, err error) {
	var mismatch *utils.CodeMismatchError
	var invalidPin *utils.InvalidPINError

	switch {
	case errors.Is(err, utils.ErrInvalidPhone):
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPhone, "Invalid phone format", nil,
		)
	case errors.As(err, &invalidPin):
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPIN, invalidPin.Reason, nil,
		)
	case errors.Is(err, utils.ErrRateLimitExceeded):
		utils.RespondErrorWithCode(
			w, http.StatusTooManyRequests, utils.ErrCodeRateLimitExceeded, "Too many requests. Please try again later.", nil,
		)
	case errors.Is(err, utils.ErrChallengeNotFound):
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeCodeNotFound, "No active code for this phone", nil,
		)
	case errors.As(err, &mismatch):
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeCodeMismatch, "Incorrect code",
			map[string]int{"attempts_left": mismatch.AttemptsLeft},
		)
	case errors.Is(err, utils.ErrAttemptsExceeded):
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeAttemptsExceeded, "Too many incorrect attempts. Request a new code.", nil,
		)
	case errors.Is(err, utils.ErrPinNotSet):
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodePinNotSet, "PIN login is not configured for this account", nil,
		)
	case errors.Is(err, utils.ErrInvalidCredentials):
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeInvalidCredentials, "Invalid phone or PIN", nil,
		)
	case errors.Is(err, utils.ErrAccountLocked):
		utils.RespondErrorWithCode(
			w, http.StatusLocked, utils.ErrCodeLockedAccount, "Account temporarily locked. Try again later.", nil,
		)
	case errors.Is(err, utils.ErrUnauthenticated), errors.Is(err, utils.ErrSessionExpired):
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required", nil,
		)
	case errors.Is(err, utils.ErrExternalServiceFailure):
		utils.RespondErrorWithCode(
			w, http.StatusBadGateway, utils.ErrCodeProviderFailure, "Failed to deliver SMS. Please try again.", nil, err,
		)
	default:
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Internal server error", nil, err,
		)
	}
}
