package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/mzdss/sms-pin-auth/internal/app"
	"github.com/mzdss/sms-pin-auth/internal/config"
	"github.com/mzdss/sms-pin-auth/internal/controllers"
	"github.com/mzdss/sms-pin-auth/internal/middleware"
	"github.com/mzdss/sms-pin-auth/internal/repositories"
	"github.com/mzdss/sms-pin-auth/internal/services"
	"github.com/mzdss/sms-pin-auth/internal/sessions"
	"github.com/mzdss/sms-pin-auth/internal/sms"
	"github.com/mzdss/sms-pin-auth/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application:", err)
	}
	defer application.Close()

	//----------------------------------------------------------------------
	// Repositories
	//----------------------------------------------------------------------
	userRepo := repositories.NewUserRepository(application.DB)
	otpRepo := repositories.NewOTPRepository(application.DB)
	attemptRepo := repositories.NewLoginAttemptRepository(application.DB)
	lockoutRepo := repositories.NewPinLockoutRepository(application.DB)

	//----------------------------------------------------------------------
	// Session store
	//----------------------------------------------------------------------
	var sessionStore sessions.SessionStore
	if cfg.RedisAddr != "" {
		sessionStore, err = sessions.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			utils.Logger.Fatal("Failed to connect to redis:", err)
		}
		utils.Logger.Info("Using redis session store at ", cfg.RedisAddr)
	} else {
		sessionStore = sessions.NewMemoryStore()
		utils.Logger.Info("Using in-memory session store")
	}

	//----------------------------------------------------------------------
	// SMS provider
	//----------------------------------------------------------------------
	var smsSender sms.Sender
	switch cfg.SMSProvider {
	case "twilio":
		smsSender = sms.NewTwilioProvider(cfg)
	default:
		smsSender = sms.NewMockProvider()
	}

	//----------------------------------------------------------------------
	// Services
	//----------------------------------------------------------------------
	otpSendLimiter := services.NewRateLimiterService(cfg.OTPSendLimit)
	otpVerifyLimiter := services.NewRateLimiterService(cfg.OTPVerifyLimit)
	pinLoginLimiter := services.NewRateLimiterService(cfg.PinLoginLimit)

	otpService := services.NewOTPService(otpRepo, cfg)
	pinService := services.NewPINService(cfg)

	authService := services.NewAuthService(
		userRepo,
		attemptRepo,
		lockoutRepo,
		otpService,
		pinService,
		sessionStore,
		smsSender,
		otpSendLimiter,
		otpVerifyLimiter,
		pinLoginLimiter,
		cfg,
	)

	cleanupService := services.NewCleanupService(otpService, attemptRepo, cfg)

	//----------------------------------------------------------------------
	// Controllers
	//----------------------------------------------------------------------
	authController := controllers.NewAuthController(authService, cfg)
	healthController := controllers.NewHealthController(application)

	//----------------------------------------------------------------------
	// Router & Endpoints
	//----------------------------------------------------------------------
	router := mux.NewRouter()
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.SessionResolver(sessionStore, cfg))

	// Health
	router.HandleFunc("/health", healthController.HealthCheckHandler).Methods("GET")

	// /auth/v1
	authRouter := router.PathPrefix("/auth").Subrouter()
	v1Router := authRouter.PathPrefix("/v1").Subrouter()

	v1Router.HandleFunc("/request_otp", authController.RequestOTP).Methods("POST")
	v1Router.HandleFunc("/verify_otp", authController.VerifyOTP).Methods("POST")
	v1Router.HandleFunc("/setup_pin", authController.SetupPin).Methods("POST")
	v1Router.HandleFunc("/login_pin", authController.LoginPin).Methods("POST")
	v1Router.HandleFunc("/logout", authController.Logout).Methods("POST")
	v1Router.HandleFunc("/session", authController.GetSession).Methods("GET")

	//----------------------------------------------------------------------
	// Scheduled cleanup via cron
	//----------------------------------------------------------------------
	c := cron.New()

	_, schErr1 := c.AddFunc("@every 5m", cleanupService.CleanupExpiredOTPs)
	if schErr1 != nil {
		utils.Logger.WithError(schErr1).Fatal("Failed to schedule OTP cleanup job")
	}

	_, schErr2 := c.AddFunc("0 3 * * *", cleanupService.TrimLoginAttempts)
	if schErr2 != nil {
		utils.Logger.WithError(schErr2).Fatal("Failed to schedule login attempt retention job")
	}

	c.Start()

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: co.Handler(router),
	}

	go func() {
		utils.Logger.Infof("Starting %s on port: %s", config.AppName, cfg.AppPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("Failed to start server:", err)
		}
	}()

	//----------------------------------------------------------------------
	// Graceful shutdown
	//----------------------------------------------------------------------
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.Logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.Logger.WithError(err).Error("HTTP server shutdown failed")
	}

	c.Stop()
	otpSendLimiter.Stop()
	otpVerifyLimiter.Stop()
	pinLoginLimiter.Stop()
	otpService.Shutdown()
	if err := sessionStore.Shutdown(); err != nil {
		utils.Logger.WithError(err).Error("Session store shutdown failed")
	}
}
