// Package config はサービス全体の設定を定義し、koanfで読み込みます。
package config

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"stock_repository/internal/platform/db"
	platformredis "stock_repository/internal/platform/redis"
)

// ストレージドライバの識別子です。
const (
	DriverMemory   = "memory"
	DriverSQLite   = db.DriverSQLite
	DriverPostgres = db.DriverPostgres
	DriverMySQL    = db.DriverMySQL
	DriverRedis    = "redis"
)

var drivers = []string{DriverMemory, DriverSQLite, DriverPostgres, DriverMySQL, DriverRedis}

// Config はプロセス全体の設定値を保持します。キーはフラットで、環境変数名と1対1に対応します。
type Config struct {
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// Addr はHTTPサーバーの待ち受けアドレスです。
	Addr            string `koanf:"addr"`
	ShutdownTimeout int    `koanf:"shutdown_timeout_sec"`

	// StorageDriver は memory / sqlite / postgres / mysql / redis のいずれかです。
	StorageDriver string `koanf:"storage_driver"`

	DBHost           string `koanf:"db_host"`
	DBPort           string `koanf:"db_port"`
	DBUser           string `koanf:"db_user"`
	DBPassword       string `koanf:"db_password"`
	DBName           string `koanf:"db_name"`
	DBInstance       string `koanf:"db_instance"`
	DBSSLMode        string `koanf:"db_sslmode"`
	SQLitePath       string `koanf:"sqlite_path"`
	DBConnectTimeout int    `koanf:"db_connect_timeout_sec"`
	RunMigrations    bool   `koanf:"run_migrations"`

	RedisAddr      string `koanf:"redis_addr"`
	RedisPassword  string `koanf:"redis_password"`
	RedisDB        int    `koanf:"redis_db"`
	RedisNamespace string `koanf:"redis_namespace"`

	JWTSecret string `koanf:"jwt_secret"`

	MetricsNamespace string `koanf:"metrics_namespace"`
}

// New はデフォルト値で埋めた Config を返します。
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":8080",
		ShutdownTimeout:  10,
		StorageDriver:    DriverMemory,
		DBSSLMode:        "disable",
		SQLitePath:       "stocks.db",
		DBConnectTimeout: 60,
		RedisAddr:        "localhost:6379",
		RedisNamespace:   "stocks",
		MetricsNamespace: "stocks",
	}
}

// Validate は設定値の整合性を検証します。
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if !slices.Contains(drivers, c.StorageDriver) {
		return fmt.Errorf("%w: unknown storage_driver %q", ErrInvalidConfig, c.StorageDriver)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalidConfig, err)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown_timeout_sec must be positive", ErrInvalidConfig)
	}
	if c.DBConnectTimeout <= 0 {
		return fmt.Errorf("%w: db_connect_timeout_sec must be positive", ErrInvalidConfig)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("%w: redis_db must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Database はDB接続設定を組み立てます。
func (c *Config) Database() db.Config {
	return db.Config{
		Driver:       c.StorageDriver,
		User:         c.DBUser,
		Password:     c.DBPassword,
		Name:         c.DBName,
		Host:         c.DBHost,
		Port:         c.DBPort,
		InstanceName: c.DBInstance,
		SSLMode:      c.DBSSLMode,
		Path:         c.SQLitePath,
	}
}

// Redis はRedis接続設定を組み立てます。
func (c *Config) Redis() platformredis.Config {
	return platformredis.Config{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// ConnectTimeout はDB接続リトライの上限時間です。
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.DBConnectTimeout) * time.Second
}

// ShutdownGrace はグレースフルシャットダウンの待ち時間です。
func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}
