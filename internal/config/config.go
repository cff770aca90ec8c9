package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

type StorageBackend string

const (
	BackendMemory   StorageBackend = "memory"
	BackendRedis    StorageBackend = "redis"
	BackendPostgres StorageBackend = "postgres"
)

type OnlineSnapshotSource string

const (
	SnapshotDemo     OnlineSnapshotSource = "demo"
	SnapshotPresence OnlineSnapshotSource = "presence"
)

type Config struct {
	ServerPort      string
	StorageBackend  StorageBackend
	DatabaseURL     string
	RedisURL        string
	KVNamespace     string
	JWTSecret       string
	JWTExpiry       time.Duration
	LocalUserID     string
	LocalAvatar     string
	AdvanceInterval time.Duration
	OnlineSnapshot  OnlineSnapshotSource
	LogLevel        string
	LogFormat       string
}

// LoadConfig reads the server configuration and validates the storage
// backend and token secret.
func LoadConfig() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	switch cfg.StorageBackend {
	case BackendMemory:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required for the redis backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// LoadPlayerConfig reads the same environment for the terminal player,
// which always runs in memory and only needs a secret to mint tokens.
func LoadPlayerConfig() (*Config, error) {
	return load()
}

func load() (*Config, error) {
	expiry, err := time.ParseDuration(getEnv("JWT_EXPIRY", "24h"))
	if err != nil {
		return nil, errors.New("invalid JWT_EXPIRY format")
	}

	interval, err := time.ParseDuration(getEnv("ADVANCE_INTERVAL", "5s"))
	if err != nil || interval <= 0 {
		return nil, errors.New("invalid ADVANCE_INTERVAL format")
	}

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		StorageBackend:  StorageBackend(getEnv("STORAGE_BACKEND", string(BackendMemory))),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KVNamespace:     getEnv("KV_NAMESPACE", "storyline:"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTExpiry:       expiry,
		LocalUserID:     getEnv("LOCAL_USER_ID", "me"),
		LocalAvatar:     getEnv("LOCAL_AVATAR", "asset://avatars/me.png"),
		AdvanceInterval: interval,
		OnlineSnapshot:  OnlineSnapshotSource(getEnv("ONLINE_SNAPSHOT", string(SnapshotDemo))),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
	}

	if cfg.OnlineSnapshot != SnapshotDemo && cfg.OnlineSnapshot != SnapshotPresence {
		return nil, fmt.Errorf("unknown ONLINE_SNAPSHOT %q", cfg.OnlineSnapshot)
	}
	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
