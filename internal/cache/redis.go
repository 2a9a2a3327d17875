package cache

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"dtindex/internal/config"
)

// NewRedisClient connects to the configured Redis. An empty address disables
// caching and returns a nil client.
func NewRedisClient(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (*redis.Client, error) {
	if cfg.Addr == "" {
		logger.Info("Query cache disabled, no redis address configured")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Redis connection failed", "address", cfg.Addr, "error", err)
		_ = rdb.Close()
		return nil, err
	}

	logger.Info("Redis connection successful", "address", cfg.Addr)
	return rdb, nil
}
