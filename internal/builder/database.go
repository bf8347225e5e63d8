package builder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/futig/jd-assessment/internal/config"
	"github.com/futig/jd-assessment/internal/repository"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// kvBackend opens key-value stores over one shared connection.
type kvBackend struct {
	open  func(ttl time.Duration) repository.KVStore
	close func() error
}

// setupKVBackend connects the configured question cache backend.
func setupKVBackend(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (*kvBackend, error) {
	switch cfg.Backend {
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}

		logger.Info("redis connection established", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))

		return &kvBackend{
			open: func(ttl time.Duration) repository.KVStore {
				return repository.NewRedisKVStore(client, ttl)
			},
			close: client.Close,
		}, nil

	case config.CacheBackendPostgres:
		db, err := setupDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}

		logger.Info("Running database migrations")
		if err := repository.RunMigrations(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("Database migrations completed successfully")

		return &kvBackend{
			open: func(ttl time.Duration) repository.KVStore {
				return repository.NewPostgresKVStore(db, ttl)
			},
			close: db.Close,
		}, nil

	case config.CacheBackendMemory:
		return &kvBackend{
			open: func(ttl time.Duration) repository.KVStore {
				return repository.NewMemoryKVStore(ttl)
			},
			close: func() error { return nil },
		}, nil
	}

	return nil, errors.New("unknown cache backend " + cfg.Backend)
}

// setupDatabase opens a pgx-backed database/sql pool
func setupDatabase(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(int(cfg.DBMaxConns))
	db.SetMaxIdleConns(int(cfg.DBMaxConns))
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection pool established", zap.Int32("max_conns", cfg.DBMaxConns))

	return db, nil
}
