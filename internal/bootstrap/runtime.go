// Package bootstrap wires the process-wide runtime dependencies.
package bootstrap

import (
	"errors"
	"fmt"

	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty database with seed.DefaultOptions.
	SeedDemo bool
}

// InitRuntime connects to the database and Redis and optionally seeds demo data.
// The Redis client is nil when Redis is unconfigured or unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	r := cache.NewRedisClient(cfg.RedisURL, nil)

	if opts.SeedDemo {
		if err := seedIfEmpty(cfg, db); err != nil {
			return nil, nil, errors.Join(fmt.Errorf("demo seeding failed: %w", err), closeRedis(r))
		}
	}

	return db, r, nil
}

func seedIfEmpty(cfg *config.Config, db *gorm.DB) error {
	if cfg.IsProduction() {
		return errors.New("refusing to seed demo data in production")
	}
	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.Info("Skipping demo seed, database already has users", "users", users)
		return nil
	}
	opts := seed.DefaultOptions
	opts.BcryptCost = cfg.BcryptCost
	_, err := seed.Run(db, opts)
	return err
}

func closeRedis(r *redis.Client) error {
	if r == nil {
		return nil
	}
	return r.Close()
}
