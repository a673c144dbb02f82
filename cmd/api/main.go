package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"llm-insurance/internal/config"
	"llm-insurance/internal/db"
	"llm-insurance/internal/email"
	apihttp "llm-insurance/internal/http"
	"llm-insurance/internal/repository"
	"llm-insurance/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if cfg.DBAutoMigrate {
		if err := db.MigratePool(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		logger.Info("database migrations applied")
	}

	var accountRepo repository.AccountRepository = repository.NewPgAccountRepository(pool)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()

		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, account cache disabled", zap.Error(err))
		} else {
			accountRepo = repository.NewCachedAccountRepository(accountRepo, redisClient, cfg.ProfileCacheTTL(), logger)
		}
		cancel()
	}

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	tokenSvc := service.NewTokenService(cfg.JWTSecret, cfg.AccessTTL())
	accountSvc := service.NewAccountService(logger, accountRepo, service.NewBcryptHasher(cfg.BcryptCost), tokenSvc, emailSender)

	authHandler := apihttp.NewAuthHandler(logger, accountSvc)
	healthHandler := apihttp.NewHealthHandler(logger, func(ctx context.Context) error {
		return db.Ping(ctx, pool)
	})
	router := apihttp.NewRouter(logger, authHandler, healthHandler, tokenSvc)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.Duration("token_ttl", tokenSvc.TTL()))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
