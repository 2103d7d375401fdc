// Package bootstrap wires the database, cache and optional demo data shared
// by the command binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"mungboard/internal/cache"
	"mungboard/internal/config"
	"mungboard/internal/database"
	"mungboard/internal/middleware"
	"mungboard/internal/models"
	"mungboard/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty development database with Preset.
	SeedDemo bool
	Preset   *seed.Preset
}

// InitRuntime connects to the database and Redis. A nil Redis client means
// the board runs without a list cache.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := cache.InitRedis(cfg.RedisURL)

	if opts.SeedDemo {
		if err := seedDemo(ctx, cfg, db, opts.Preset); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo board: %w", err)
		}
	}

	return db, rdb, nil
}

func seedDemo(ctx context.Context, cfg *config.Config, db *gorm.DB, preset *seed.Preset) error {
	if cfg.Env != "development" {
		middleware.Logger.Warn("Demo seeding skipped outside development", slog.String("env", cfg.Env))
		return nil
	}

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.Info("Demo seeding skipped, database already has users", slog.Int64("users", users))
		return nil
	}

	if preset == nil {
		preset = seed.DefaultPreset()
	}
	_, err := seed.NewSeeder(db).Run(ctx, preset)
	return err
}
