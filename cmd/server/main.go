package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"familylink/internal/config"
	"familylink/internal/database"
	"familylink/internal/handlers"
	"familylink/internal/logger"
	"familylink/internal/repository"
	"familylink/internal/security"
	"familylink/internal/service"
)

func main() {
	startedAt := time.Now()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	log.Info().Str("type", cfg.DatabaseType).Msg("Database connection established")

	if err := db.RunMigrations(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	sessions, closeSessions := newSessionStore(ctx, cfg, db)
	defer closeSessions()

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize email service")
	}

	// Initialize services
	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	authService := service.NewAuthService(db, userRepo, sessions, tokens, emailService, cfg.SessionDuration)
	parentService := service.NewParentService(db, userRepo, sessions)
	childService := service.NewChildService(db, userRepo)

	limiter := security.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	go limiter.Run(ctx, 5*time.Minute)

	scheduler, err := startSessionCleanup(authService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule session cleanup")
	}

	router := handlers.NewRouter(handlers.Deps{
		Auth:        authService,
		Parents:     parentService,
		Children:    childService,
		Limiter:     limiter,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		StartedAt:   startedAt,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.Environment).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Server shutting down...")

	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// newSessionStore picks the SQL or Redis session store. The returned func
// releases the store's resources.
func newSessionStore(ctx context.Context, cfg *config.Config, db *database.DB) (repository.SessionStore, func()) {
	if cfg.SessionStore != "redis" {
		return repository.NewSessionRepository(db), func() {}
	}

	store, err := repository.NewRedisSessionStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis session store")

	return store, func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
}

// startSessionCleanup removes expired sessions every hour
func startSessionCleanup(authService *service.AuthService) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := authService.CleanupExpiredSessions(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Error cleaning up expired sessions")
			return
		}
		log.Info().Int64("deleted", n).Msg("Expired sessions cleaned up")
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
