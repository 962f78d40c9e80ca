// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, database, storage, cache,
// token verification, generative model) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"

	"github.com/JaimeStill/ineed/internal/config"
	"github.com/JaimeStill/ineed/pkg/auth"
	"github.com/JaimeStill/ineed/pkg/database"
	"github.com/JaimeStill/ineed/pkg/gemini"
	"github.com/JaimeStill/ineed/pkg/lifecycle"
	"github.com/JaimeStill/ineed/pkg/ratelimit"
	"github.com/JaimeStill/ineed/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle   *lifecycle.Coordinator
	Logger      *slog.Logger
	Database    database.System
	Storage     storage.System
	Redis       *goredis.Client
	RateLimiter *ratelimit.Limiter
	Verifier    auth.Verifier
	Gemini      *gemini.Client
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	verifier, err := auth.New(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("auth init failed: %w", err)
	}

	model, err := gemini.New(context.Background(), gemini.Options{
		APIKey:            cfg.GenAI.APIKey,
		Model:             cfg.GenAI.Model,
		RequestsPerMinute: cfg.GenAI.RequestsPerMinute,
		Burst:             cfg.GenAI.Burst,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("gemini init failed: %w", err)
	}

	rdb := goredis.NewClient(cfg.Redis.Options())

	return &Infrastructure{
		Lifecycle:   lc,
		Logger:      logger,
		Database:    db,
		Storage:     store,
		Redis:       rdb,
		RateLimiter: ratelimit.New(rdb, &cfg.API.RateLimit, logger),
		Verifier:    verifier,
		Gemini:      model,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	i.startRedis()
	return nil
}

func (i *Infrastructure) startRedis() {
	logger := i.Logger.With("system", "redis")

	i.Lifecycle.OnStartup(func() {
		if err := i.Redis.Ping(i.Lifecycle.Context()).Err(); err != nil {
			logger.Warn("redis ping failed, rate limiting will fail open", "error", err)
			return
		}
		logger.Info("redis connection established")
	})

	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		if err := i.Redis.Close(); err != nil {
			logger.Error("redis close failed", "error", err)
			return
		}
		logger.Info("redis connection closed")
	})
}
