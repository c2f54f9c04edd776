package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tote-sponsor-system/config"
	"tote-sponsor-system/handlers"
	"tote-sponsor-system/logger"
	"tote-sponsor-system/metrics"
	"tote-sponsor-system/middleware"
	"tote-sponsor-system/models"
	"tote-sponsor-system/services"
	"tote-sponsor-system/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	gormLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		gormLevel = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLevel),
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	var sender services.CodeSender = services.LogCodeSender{}
	if cfg.CodeRelayURL != "" {
		sender = services.NewCodeRelayClient(cfg.CodeRelayURL, cfg.CodeRelayToken)
	}

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTExpiryDays)
	authService := services.NewAuthService(db, tokens, 0)
	causeService := services.NewCauseService(db, cfg.FrontendURL)
	sponsorshipService := services.NewSponsorshipService(db, rec)
	verificationService := services.NewVerificationService(db, []byte(cfg.IdentifierSecret), services.VerificationOptions{
		TTL:         cfg.OTPTTL,
		VerifiedTTL: cfg.OTPVerifiedTTL,
		MaxAttempts: cfg.OTPMaxAttempts,
	}, sender, rec)
	claimService := services.NewClaimService(db, sponsorshipService, rec)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("failed to seed admin account", "error", err)
		os.Exit(1)
	}

	authLimiter := middleware.NewRateLimiter("auth", cfg.AuthRate, 5*time.Minute)
	challengeLimiter := middleware.NewRateLimiter("challenge", cfg.ChallengeRate, 5*time.Minute)
	defer authLimiter.Stop()
	defer challengeLimiter.Stop()

	sweeper := workers.NewSessionSweeper(verificationService, cfg.SessionSweep)
	if err := sweeper.Start(ctx); err != nil {
		logger.Error("failed to start session sweeper", "error", err)
		os.Exit(1)
	}

	app := handlers.NewApp(cfg.IsDevelopment(), cfg.OriginList(), rec)
	handlers.SetupRoutes(app, handlers.Deps{
		Tokens:           tokens,
		Auth:             authService,
		Causes:           causeService,
		Sponsorships:     sponsorshipService,
		Verification:     verificationService,
		Claims:           claimService,
		AuthLimiter:      authLimiter,
		ChallengeLimiter: challengeLimiter,
		Gatherer:         reg,
		ExposeCodes:      cfg.IsDevelopment(),
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	logger.Info("server running", "port", cfg.Port, "env", cfg.Env, "origins", cfg.OriginList())

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := sweeper.Stop(); err != nil {
		logger.Error("session sweeper shutdown failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
