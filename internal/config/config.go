package config

import (
	"os"
	"strconv"
	"time"

	"github.com/mzdss/sms-pin-auth/internal/utils"
)

const AppName = "sms-pin-auth"

// RateLimit is one fixed-window quota: at most MaxAttempts requests
// per Window for a single key.
type RateLimit struct {
	MaxAttempts int
	Window      time.Duration
}

// Config holds all application configuration.
type Config struct {
	AppPort string
	AppUrl  string
	DBUrl   string

	// Empty RedisAddr selects the in-memory session store.
	RedisAddr     string
	RedisPassword string

	OTPLength     int
	OTPExpiration time.Duration
	MaxOTPAttempts int

	PinMinLength int
	PinMaxLength int

	SessionMaxAge           time.Duration
	SessionRenewalThreshold time.Duration

	OTPSendLimit   RateLimit
	OTPVerifyLimit RateLimit
	PinLoginLimit  RateLimit

	MaxPinFailures   int
	PinFailureWindow time.Duration
	PinLockDuration  time.Duration

	SMSProvider     string // "mock" or "twilio"
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromPhone  string

	LoginAttemptRetention time.Duration
}

// Defaults for time- and attempt-based configuration.
const (
	DefaultOTPLength       = 6
	DefaultOTPExpiration   = 5 * time.Minute
	DefaultMaxOTPAttempts  = 3
	DefaultPinMinLength    = 4
	DefaultPinMaxLength    = 6
	DefaultSessionMaxAge   = 24 * time.Hour
	DefaultRenewalThreshold = 2 * time.Hour

	DefaultOTPSendMax      = 3
	DefaultOTPSendWindow   = 1 * time.Minute
	DefaultOTPVerifyMax    = 5
	DefaultOTPVerifyWindow = 1 * time.Minute
	DefaultPinLoginMax     = 5
	DefaultPinLoginWindow  = 15 * time.Minute

	DefaultMaxPinFailures   = 5
	DefaultPinFailureWindow = 15 * time.Minute
	DefaultPinLockDuration  = 15 * time.Minute

	DefaultLoginAttemptRetention = 90 * 24 * time.Hour
)

// LoadConfig reads the environment and returns a *Config. Missing
// required values are fatal; everything else falls back to defaults.
func LoadConfig() *Config {
	utils.Logger.Info("Loading config for app: ", AppName)

	dbUrl := os.Getenv("DB_URL")
	if dbUrl == "" {
		utils.Logger.Fatal("DB_URL env var is missing")
	}

	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		appPort = "8080"
	}
	appUrl := os.Getenv("APP_URL")
	if appUrl == "" {
		appUrl = "http://localhost:" + appPort
	}

	smsProvider := os.Getenv("SMS_PROVIDER")
	if smsProvider == "" {
		smsProvider = "mock"
	}

	cfg := &Config{
		AppPort: appPort,
		AppUrl:  appUrl,
		DBUrl:   dbUrl,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		OTPLength:      envInt("OTP_LENGTH", DefaultOTPLength),
		OTPExpiration:  time.Duration(envInt("OTP_EXPIRATION_MINUTES", int(DefaultOTPExpiration/time.Minute))) * time.Minute,
		MaxOTPAttempts: envInt("MAX_OTP_ATTEMPTS", DefaultMaxOTPAttempts),

		PinMinLength: envInt("PIN_MIN_LENGTH", DefaultPinMinLength),
		PinMaxLength: envInt("PIN_MAX_LENGTH", DefaultPinMaxLength),

		SessionMaxAge:           time.Duration(envInt("SESSION_MAX_AGE", int(DefaultSessionMaxAge/time.Second))) * time.Second,
		SessionRenewalThreshold: time.Duration(envInt("SESSION_RENEWAL_THRESHOLD", int(DefaultRenewalThreshold/time.Second))) * time.Second,

		OTPSendLimit: RateLimit{
			MaxAttempts: envInt("RATE_LIMIT_OTP_SEND_MAX", DefaultOTPSendMax),
			Window:      time.Duration(envInt("RATE_LIMIT_OTP_SEND_WINDOW_MS", int(DefaultOTPSendWindow/time.Millisecond))) * time.Millisecond,
		},
		OTPVerifyLimit: RateLimit{
			MaxAttempts: envInt("RATE_LIMIT_OTP_VERIFY_MAX", DefaultOTPVerifyMax),
			Window:      time.Duration(envInt("RATE_LIMIT_OTP_VERIFY_WINDOW_MS", int(DefaultOTPVerifyWindow/time.Millisecond))) * time.Millisecond,
		},
		PinLoginLimit: RateLimit{
			MaxAttempts: envInt("RATE_LIMIT_PIN_LOGIN_MAX", DefaultPinLoginMax),
			Window:      time.Duration(envInt("RATE_LIMIT_PIN_LOGIN_WINDOW_MS", int(DefaultPinLoginWindow/time.Millisecond))) * time.Millisecond,
		},

		MaxPinFailures:   envInt("MAX_PIN_FAILURES", DefaultMaxPinFailures),
		PinFailureWindow: time.Duration(envInt("PIN_FAILURE_WINDOW_SECONDS", int(DefaultPinFailureWindow/time.Second))) * time.Second,
		PinLockDuration:  time.Duration(envInt("PIN_LOCK_DURATION_SECONDS", int(DefaultPinLockDuration/time.Second))) * time.Second,

		SMSProvider:      smsProvider,
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromPhone:  os.Getenv("TWILIO_FROM_PHONE"),

		LoginAttemptRetention: DefaultLoginAttemptRetention,
	}

	if cfg.SMSProvider == "twilio" {
		if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromPhone == "" {
			utils.Logger.Fatal("SMS_PROVIDER=twilio requires TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_PHONE")
		}
	}

	return cfg
}

func envInt(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		utils.Logger.Warnf("Invalid %s '%s', using default %d", name, raw, def)
		return def
	}
	return v
}
