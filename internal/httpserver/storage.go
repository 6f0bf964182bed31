package httpserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/fdg312/diet-planner/internal/config"
	"github.com/fdg312/diet-planner/internal/storage"
	"github.com/fdg312/diet-planner/internal/storage/memory"
	"github.com/fdg312/diet-planner/internal/storage/postgres"
	redisstore "github.com/fdg312/diet-planner/internal/storage/redis"
	"github.com/fdg312/diet-planner/internal/storage/sqlite"
)

const storageConnectTimeout = 10 * time.Second

// initStorage opens the KV store selected by STORE_MODE.
// A failed connection falls back to in-memory storage.
func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.KV, string) {
	logger = logger.With("component", "storage")

	ctx, cancel := context.WithTimeout(ctx, storageConnectTimeout)
	defer cancel()

	switch cfg.StoreMode {
	case config.StoreModeMemory:
		logger.Info("using in-memory storage")
		return memory.New(), config.StoreModeMemory

	case config.StoreModePostgres:
		if cfg.DatabaseURL == "" {
			logger.Warn("STORE_MODE=postgres without DATABASE_URL, fallback to in-memory storage")
			return memory.New(), config.StoreModeMemory
		}
		logger.Info("connecting to PostgreSQL")
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("PostgreSQL unavailable, fallback to in-memory storage", "error", err)
			return memory.New(), config.StoreModeMemory
		}
		logger.Info("PostgreSQL connected")
		return pg, config.StoreModePostgres

	case config.StoreModeRedis:
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		rs, err := redisstore.New(ctx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.KeyPrefix,
		})
		if err != nil {
			logger.Warn("Redis unavailable, fallback to in-memory storage", "error", err)
			return memory.New(), config.StoreModeMemory
		}
		logger.Info("Redis connected")
		return rs, config.StoreModeRedis

	default:
		path := cfg.SQLitePath
		if path == "" {
			path = config.DefaultSQLitePath
		}
		st, err := sqlite.New(path)
		if err != nil {
			logger.Warn("SQLite unavailable, fallback to in-memory storage", "path", path, "error", err)
			return memory.New(), config.StoreModeMemory
		}
		logger.Info("SQLite storage opened", "path", path)
		return st, config.StoreModeSQLite
	}
}
