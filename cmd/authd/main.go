package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/arnavchau/authd/internal/auth"
	"github.com/arnavchau/authd/internal/clickhouse"
	"github.com/arnavchau/authd/internal/config"
	"github.com/arnavchau/authd/internal/events"
	"github.com/arnavchau/authd/internal/handlers"
	"github.com/arnavchau/authd/internal/logger"
	"github.com/arnavchau/authd/internal/middleware"
	"github.com/arnavchau/authd/internal/redis"
	"github.com/arnavchau/authd/internal/service"
	"github.com/arnavchau/authd/internal/storage"
)

func main() {
	log := logger.New("authd")
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: %v", err)
	}

	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-in-production"
		log.Warn("JWT_SECRET not set, using default (insecure for production)")
	}

	store, cleanup, err := newUserStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to set up storage: %v", err)
	}
	defer cleanup()

	var producer *events.Producer
	var limiter *middleware.RateLimiter
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.NewRedisClient(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		producer = events.NewProducer(redisClient.GetClient(), cfg.Redis.StreamName)
		limiter = middleware.NewRateLimiter(redisClient.GetClient(), cfg.RateLimit.Requests, cfg.RateLimit.Window)
	} else {
		log.Warn("REDIS_ADDR not set, audit events and rate limiting disabled")
	}

	jwtManager := auth.NewJWTManager(jwtSecret, cfg.JWT.TokenDuration)
	userService := service.NewUserService(store, jwtManager, cfg.Password.BcryptCost, producer)
	gate := middleware.NewGate(jwtManager)
	authHandler := handlers.NewAuthHandler(userService)

	var activityHandler *handlers.ActivityHandler
	chClient, err := clickhouse.NewClient(clickhouse.Config{
		Addr:     cfg.ClickHouse.Addr,
		Database: cfg.ClickHouse.Database,
		Username: cfg.ClickHouse.Username,
		Password: cfg.ClickHouse.Password,
		MaxConns: cfg.ClickHouse.MaxConns,
	})
	if err != nil {
		log.Warn("ClickHouse unavailable, activity endpoint disabled: %v", err)
	} else {
		defer chClient.Close()
		activityHandler = handlers.NewActivityHandler(userService, chClient)
	}

	throttled := func(h http.HandlerFunc) http.HandlerFunc {
		if limiter == nil {
			return h
		}
		return limiter.Middleware(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/register", throttled(authHandler.Register))
	mux.HandleFunc("/login", throttled(authHandler.Login))
	mux.HandleFunc("/profile", gate.RequireAuth(authHandler.Profile))
	if activityHandler != nil {
		mux.HandleFunc("/profile/activity", gate.RequireAuth(activityHandler.Activity))
	}
	mux.HandleFunc("/health", authHandler.Health)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: middleware.CORS(cfg.Server.CORSOrigin, mux),
	}

	go func() {
		log.Info("Listening on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error: %v", err)
	}
	log.Info("Server stopped")
}

func newUserStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (storage.UserStore, func(), error) {
	switch cfg.Storage.Backend {
	case "postgres":
		store, err := storage.NewPostgresUserStorage(ctx, storage.PostgresConfig{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using postgres account store")
		return store, store.Close, nil

	case "memory":
		log.Warn("Using in-memory account store, data will not survive restarts")
		return storage.NewMemoryUserStorage(), func() {}, nil

	default:
		store, err := storage.NewMongoUserStorage(ctx, storage.MongoConfig{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using mongo account store")
		return store, func() { _ = store.Close(context.Background()) }, nil
	}
}
