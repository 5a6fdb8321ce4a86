package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"papaya-users/internal/config"
	"papaya-users/internal/db"
	"papaya-users/internal/events"
	apihttp "papaya-users/internal/http"
	"papaya-users/internal/logging"
	"papaya-users/internal/repository"
	"papaya-users/internal/service"

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
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	var userRepo repository.UserRepository
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory user store")
		userRepo = repository.NewMemoryUserRepository()
	} else {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.Ping(ctx, pool); err != nil {
			logger.Fatal("db ping", zap.Error(err))
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("db schema", zap.Error(err))
		}
		userRepo = repository.NewPgUserRepository(pool)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		}
		cancel()
	}

	var publisher events.Publisher
	switch cfg.EventsDriver {
	case config.EventsDriverRedis:
		publisher = events.NewRedisStreamPublisher(redisClient, cfg.EventsStream)
	case config.EventsDriverAMQP:
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			logger.Fatal("amqp publisher", zap.Error(err))
		}
		defer amqpPub.Close()
		publisher = amqpPub
	case config.EventsDriverNone:
		publisher = events.NopPublisher{}
	default:
		publisher = events.NewLogPublisher(logger)
	}

	var loginLimiter service.LoginRateLimiter
	if redisClient != nil {
		loginLimiter = service.NewRedisLoginRateLimiter(redisClient, cfg.LoginFailureWindow, cfg.LoginMaxFailures)
	} else {
		loginLimiter = service.NewLoginRateLimiter(cfg.LoginFailureWindow, cfg.LoginMaxFailures)
	}

	hasher, err := service.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		logger.Fatal("password hasher", zap.Error(err))
	}
	tokenIssuer, err := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn, cfg.JWTIssuer)
	if err != nil {
		logger.Fatal("token issuer", zap.Error(err))
	}

	commandBus, queryBus, err := service.NewBuses(service.Dependencies{
		Logger:    logger,
		Users:     userRepo,
		Hasher:    hasher,
		Tokens:    tokenIssuer,
		Publisher: publisher,
		Limiter:   loginLimiter,
	})
	if err != nil {
		logger.Fatal("register handlers", zap.Error(err))
	}

	userSvc := service.NewUserService(logger, commandBus, queryBus)
	userHandler := apihttp.NewUserHandler(logger, userSvc, cfg.AuthCookieName, !cfg.IsDevelopment())
	router := apihttp.NewRouter(logger, userHandler, tokenIssuer, cfg.AuthCookieName)

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

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("events_driver", cfg.EventsDriver),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
