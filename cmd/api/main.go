package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"github.com/osadchyi/contacts-api/internal/http/handlers"
	"github.com/osadchyi/contacts-api/internal/notify"
	"github.com/osadchyi/contacts-api/internal/platform/cache"
	"github.com/osadchyi/contacts-api/internal/platform/mailer"
	"github.com/osadchyi/contacts-api/internal/platform/storage"
	"github.com/osadchyi/contacts-api/internal/repo/postgres"
	"github.com/osadchyi/contacts-api/internal/service"
	"github.com/osadchyi/contacts-api/pkg/config"
	"github.com/osadchyi/contacts-api/pkg/database"
	"github.com/osadchyi/contacts-api/pkg/events"
	"github.com/osadchyi/contacts-api/pkg/logger"
	"github.com/osadchyi/contacts-api/pkg/middleware"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Connected to PostgreSQL")

	rdb := connectRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	bus := connectBus(cfg.NATS.URL)
	defer bus.Close()

	var imageHost storage.ImageHost
	if cfg.Cloudinary.URL != "" {
		cld, err := storage.NewCloudinary(cfg.Cloudinary.URL)
		if err != nil {
			logger.Warn("Cloudinary unavailable, avatar uploads disabled", "error", err)
		} else {
			imageHost = cld
		}
	} else {
		logger.Warn("CLOUDINARY_URL not set, avatar uploads disabled")
	}

	var mailSvc mailer.Service
	if cfg.Email.DevMode || cfg.Email.MailerSendKey == "" {
		mailSvc = mailer.NewDevMailer()
	} else {
		mailSvc = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	worker := notify.NewWorker(bus, mailSvc)
	if err := worker.Start(); err != nil {
		logger.Error("Failed to start notification worker", "error", err)
		os.Exit(1)
	}

	userRepo := postgres.NewUserRepository(pool)
	contactRepo := postgres.NewContactRepository(pool)

	userCache := cache.NewUserCache(rdb, cfg.Redis.UserCacheTTL)
	limiter := cache.NewRateLimiter(rdb)

	authService := service.NewAuthService(userRepo, userCache, bus, cfg)
	userService := service.NewUserService(userRepo, userCache, imageHost, cfg.Cloudinary.DefaultAvatarURL)
	contactService := service.NewContactService(contactRepo)

	h := handlers.New(authService, userService, contactService, userRepo, limiter, cfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Health)
	r.Use(middleware.CORS)
	r.Mount("/", h.Routes())

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped")
}

// connectRedis pings Redis with a bounded retry loop. Redis is an
// accelerator here, not a dependency: on failure the server starts with
// caching and rate limiting disabled.
func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		logger.Warn("Invalid REDIS_URL, running without Redis", "error", err)
		return nil
	}

	client := redis.NewClient(opts)

	backoff := retry.WithMaxRetries(uint64(cfg.ConnectAttempts), retry.NewConstant(cfg.ConnectBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		logger.Warn("Redis unreachable, running without cache and rate limits", "error", err)
		client.Close()
		return nil
	}

	logger.Info("Connected to Redis")
	return client
}

// connectBus prefers NATS and falls back to the in-process bus so mail
// dispatch keeps working in single-node deployments.
func connectBus(url string) events.EventBus {
	bus, err := events.NewNATSEventBus(url)
	if err != nil {
		logger.Warn("NATS unreachable, using in-process event bus", "error", err)
		return events.NewLocalBus()
	}
	logger.Info("Connected to NATS")
	return bus
}
