package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkpay/internal/config"
	"checkpay/internal/db"
	"checkpay/internal/email"
	apihttp "checkpay/internal/http"
	"checkpay/internal/repository"
	"checkpay/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("db schema", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	paymentRepo := repository.NewPgPaymentRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}
	if cfg.NotifyEmail == "" {
		logger.Warn("NOTIFY_EMAIL not set, payment notifications disabled")
	}

	loginLimiter := service.NewLoginLimiter(cfg.LoginWindow(), cfg.LoginMaxAttempts)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory login limiter", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginLimiter(redisClient, cfg.LoginWindow(), cfg.LoginMaxAttempts)
		}
		cancel()
	}

	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.JWTTTL())
	authSvc := service.NewAuthService(logger, userRepo, jwtSvc, loginLimiter)
	if len(cfg.BootstrapUsers) > 0 {
		if err := authSvc.BootstrapUsers(ctx, cfg.BootstrapUsers); err != nil {
			logger.Fatal("bootstrap users", zap.Error(err))
		}
	}
	paymentSvc := service.NewPaymentService(logger, paymentRepo, emailSender, cfg.NotifyEmail, cfg.MaxImageBytes)

	metrics := apihttp.NewMetrics()
	router := apihttp.NewRouter(logger, metrics, authSvc,
		apihttp.NewAuthHandler(logger, authSvc, metrics),
		apihttp.NewPaymentHandler(logger, paymentSvc, metrics),
		apihttp.NewHealthHandler(logger, func(ctx context.Context) error { return db.Ping(ctx, pool) }),
	)

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

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
