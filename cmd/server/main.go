package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/prudhvinik1/storyline/internal/api"
	"github.com/prudhvinik1/storyline/internal/config"
	"github.com/prudhvinik1/storyline/internal/database"
	"github.com/prudhvinik1/storyline/internal/demo"
	"github.com/prudhvinik1/storyline/internal/models"
	"github.com/prudhvinik1/storyline/internal/repositories"
	"github.com/prudhvinik1/storyline/internal/services"
	"github.com/prudhvinik1/storyline/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)
	logger.Info("logger initialized", slog.String("level", cfg.LogLevel), slog.String("format", cfg.LogFormat))

	telemetry.Init()

	kv, contacts, cleanup, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Error("failed to open storage", slog.String("backend", string(cfg.StorageBackend)), slog.Any("err", err))
		os.Exit(1)
	}
	defer cleanup()

	store := services.NewStoryStore(cfg.LocalUserID, cfg.LocalAvatar)
	if cfg.StorageBackend != config.BackendPostgres {
		if err := demo.SeedFeed(store); err != nil {
			logger.Error("failed to seed demo feed", slog.Any("err", err))
			os.Exit(1)
		}
	}

	local := models.Contact{ID: cfg.LocalUserID, Name: "Me", AvatarRef: cfg.LocalAvatar}
	if n, err := demo.SeedContacts(ctx, contacts, local); err != nil {
		logger.Error("failed to seed contacts", slog.Any("err", err))
		os.Exit(1)
	} else if n > 0 {
		logger.Info("seeded contact directory", slog.Int("count", n))
	}

	var trackerOpts []services.ViewTrackerOption
	if cfg.OnlineSnapshot == config.SnapshotPresence {
		trackerOpts = append(trackerOpts, services.WithStoredPresence())
	}
	tracker := services.NewViewTracker(
		repositories.NewKVViewRepository(kv),
		repositories.NewKVPresenceRepository(kv),
		contacts,
		logger,
		trackerOpts...,
	)
	identity := services.NewIdentityService(cfg.JWTSecret, cfg.JWTExpiry)
	handlers := api.NewHandlers(store, tracker, services.NewReactionTracker(nil), identity, contacts, logger)

	go purgeExpired(ctx, store, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           api.NewRouter(handlers),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.Any("err", err))
		}
	}()

	logger.Info("starting server", slog.String("port", cfg.ServerPort), slog.String("backend", string(cfg.StorageBackend)))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Error("server error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// openStorage builds the key-value store and contact repository for the
// configured backend. The returned cleanup closes any connections.
func openStorage(ctx context.Context, cfg *config.Config) (repositories.KeyValueStore, repositories.ContactRepository, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		client, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		kv := repositories.NewRedisKeyValueStore(client, cfg.KVNamespace)
		return kv, repositories.NewMemoryContactDirectory(), closeRedis(client), nil

	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		contacts := repositories.NewCachedContactRepository(repositories.NewPostgresContactRepository(pool), repositories.DefaultContactCacheTTL)
		return repositories.NewPostgresKeyValueStore(pool), contacts, closePool(pool), nil

	default:
		return repositories.NewMemoryKeyValueStore(), repositories.NewMemoryContactDirectory(), func() {}, nil
	}
}

func closeRedis(client *redis.Client) func() {
	return func() { client.Close() }
}

func closePool(pool *pgxpool.Pool) func() {
	return func() { pool.Close() }
}

// purgeExpired erases expired items once an hour.
func purgeExpired(ctx context.Context, store *services.StoryStore, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.PurgeExpired(); n > 0 {
				logger.Info("purged expired story items", slog.Int("count", n))
			}
		}
	}
}
