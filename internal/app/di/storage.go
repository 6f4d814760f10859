// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"fmt"
	"log/slog"

	"stock_repository/internal/feature/stocks/domain/entity"
	"stock_repository/internal/platform/config"
	"stock_repository/internal/platform/db"
	"stock_repository/internal/platform/logging"
	platformredis "stock_repository/internal/platform/redis"
	"stock_repository/internal/platform/storage"
	"stock_repository/internal/platform/storage/gormstore"
	"stock_repository/internal/platform/storage/instrumented"
	"stock_repository/internal/platform/storage/memory"
	"stock_repository/internal/platform/storage/redisstore"
)

// StockStorage bundles the storage client for stocks with its lifecycle hooks.
type StockStorage struct {
	Client storage.Client[entity.Stock]
	// Ping reports whether the backend is reachable; used by /readyz.
	Ping   func(ctx context.Context) error
	// Close releases connections held by the backend.
	Close  func() error
}

func noopPing(context.Context) error { return nil }
func noopClose() error { return nil }

// NewStockStorage selects the backend named by cfg.StorageDriver and wraps it
// with metrics and logging.
func NewStockStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger, rec instrumented.Recorder) (*StockStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		st  *StockStorage
		err error
	)
	switch cfg.StorageDriver {
	case config.DriverMemory:
		st = &StockStorage{Client: memory.New[entity.Stock](), Ping: noopPing, Close: noopClose}
	case config.DriverSQLite, config.DriverPostgres, config.DriverMySQL:
		st, err = newGormStorage(ctx, cfg, logger)
	case config.DriverRedis:
		st, err = newRedisStorage(ctx, cfg)
	default:
		err = fmt.Errorf("%w: unknown storage driver %q", config.ErrInvalidConfig, cfg.StorageDriver)
	}
	if err != nil {
		return nil, err
	}

	st.Client = instrumented.New(st.Client, rec, logger)
	logger.Info("storage ready", "driver", cfg.StorageDriver)
	return st, nil
}

// newGormStorage opens a relational database and migrates the stocks table
// when requested. SQLite is always migrated since it is only used locally.
func newGormStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*StockStorage, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("%w: log_level: %w", config.ErrInvalidConfig, err)
	}

	gdb, err := db.Open(cfg.Database(), cfg.ConnectTimeout(), logging.NewGormLogger(logger, logging.GormLevel(lvl)))
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	s, err := gormstore.New[entity.Stock](gdb)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if cfg.RunMigrations || cfg.StorageDriver == config.DriverSQLite {
		if err := s.Migrate(ctx, entity.CollectionName); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}

	return &StockStorage{Client: s, Ping: sqlDB.PingContext, Close: sqlDB.Close}, nil
}

func newRedisStorage(ctx context.Context, cfg *config.Config) (*StockStorage, error) {
	rdb, err := platformredis.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return nil, err
	}
	s, err := redisstore.New[entity.Stock](rdb, cfg.RedisNamespace, entity.FieldPopularity)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &StockStorage{
		Client: s,
		Ping:   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		Close:  rdb.Close,
	}, nil
}
