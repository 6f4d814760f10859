// Package db はgormによるデータベース接続の構築を提供します。
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	gmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// サポートするドライバです。
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// retryInterval は接続リトライの間隔です。
const retryInterval = 3 * time.Second

// ErrUnsupportedDriver は未知のドライバが指定された場合に返されます。
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Config はデータベース接続設定を保持します。
type Config struct {
	Driver       string
	User         string
	Password     string
	Name         string
	Host         string
	Port         string
	InstanceName string // Cloud SQL のインスタンス接続名。設定時はUnixソケットで接続する
	SSLMode      string // postgres のみ
	Path         string // sqlite のみ
}

// BuildDSN はドライバに応じたDSN文字列を生成します。
func BuildDSN(cfg Config) (string, error) {
	switch cfg.Driver {
	case DriverSQLite:
		if cfg.Path == "" {
			return "", fmt.Errorf("sqlite: path must not be empty")
		}
		return cfg.Path, nil
	case DriverMySQL:
		return mysqlDSN(cfg), nil
	case DriverPostgres:
		return postgresDSN(cfg)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// mysqlDSN はMySQL用DSNを生成します。
// clientFoundRows を有効にし、値が変わらない UPDATE でも一致行数が返るようにします。
func mysqlDSN(cfg Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.DBName = cfg.Name
	if cfg.InstanceName != "" {
		mc.Net = "unix"
		mc.Addr = "/cloudsql/" + cfg.InstanceName
	} else {
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	}
	mc.ParseTime = true
	mc.ClientFoundRows = true
	mc.Loc = time.Local
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// postgresDSN はPostgreSQL用の接続URLを生成し、pgxで解釈できることを確認します。
func postgresDSN(cfg Config) (string, error) {
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Path:   "/" + cfg.Name,
	}
	if cfg.InstanceName != "" {
		q.Set("host", "/cloudsql/"+cfg.InstanceName)
	} else {
		u.Host = net.JoinHostPort(cfg.Host, cfg.Port)
	}
	u.RawQuery = q.Encode()

	dsn := u.String()
	if _, err := pgx.ParseConfig(dsn); err != nil {
		return "", fmt.Errorf("postgres: invalid connection settings: %w", err)
	}
	return dsn, nil
}

// Dialector はドライバに対応するgormのDialectorを返します。
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	case DriverMySQL:
		return gmysql.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// ConnectWithRetry は opener で接続を試み、timeout を過ぎるまで一定間隔でリトライします。
func ConnectWithRetry(dsn string, timeout time.Duration, opener func(string) (*gorm.DB, error)) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "interval", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Open は設定からDSNを組み立て、リトライ付きで接続します。
// 重複キーなどのドライバエラーは gorm の TranslateError で共通エラーに変換されます。
func Open(cfg Config, timeout time.Duration, logger gormlogger.Interface) (*gorm.DB, error) {
	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(dsn, timeout, func(dsn string) (*gorm.DB, error) {
		dialector, err := Dialector(cfg.Driver, dsn)
		if err != nil {
			return nil, err
		}
		gcfg := &gorm.Config{TranslateError: true}
		if logger != nil {
			gcfg.Logger = logger
		}
		return gorm.Open(dialector, gcfg)
	})
	if err != nil {
		return nil, err
	}

	if cfg.Driver == DriverSQLite {
		// SQLite は同時書き込みで database is locked になるため接続を1本に絞る
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	slog.Info("DB connection successful", "driver", cfg.Driver)
	return db, nil
}
