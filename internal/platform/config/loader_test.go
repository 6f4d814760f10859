package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"stock_repository/internal/platform/config"
)

// clearEnv はテストに影響する環境変数を空にします。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvConfigFile, "STOCKS_ADDR", "STOCKS_STORAGE_DRIVER", "STOCKS_DB_HOST",
		"STOCKS_REDIS_DB", "STOCKS_RUN_MIGRATIONS", "STOCKS_LOG_LEVEL", "STOCKS_LOG_FORMAT",
	} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	convey.Convey("Given no config file and no environment overrides", t, func() {
		cfg, err := config.Load()

		convey.Convey("Then defaults are used", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.StorageDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.RedisNamespace, convey.ShouldEqual, "stocks")
			convey.So(cfg.RunMigrations, convey.ShouldBeFalse)
		})
	})
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("STOCKS_ADDR", ":9090")
	t.Setenv("STOCKS_STORAGE_DRIVER", "postgres")
	t.Setenv("STOCKS_DB_HOST", "db.internal")
	t.Setenv("STOCKS_REDIS_DB", "3")
	t.Setenv("STOCKS_RUN_MIGRATIONS", "true")

	convey.Convey("Given environment overrides", t, func() {
		cfg, err := config.Load()

		convey.Convey("Then they replace the defaults", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.StorageDriver, convey.ShouldEqual, config.DriverPostgres)
			convey.So(cfg.DBHost, convey.ShouldEqual, "db.internal")
			convey.So(cfg.RedisDB, convey.ShouldEqual, 3)
			convey.So(cfg.RunMigrations, convey.ShouldBeTrue)
		})

		convey.Convey("Then the database config follows the driver", func() {
			dbCfg := cfg.Database()
			convey.So(dbCfg.Driver, convey.ShouldEqual, "postgres")
			convey.So(dbCfg.Host, convey.ShouldEqual, "db.internal")
			convey.So(cfg.Redis().DB, convey.ShouldEqual, 3)
		})
	})
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
addr: ":7070"
storage_driver: redis
redis_addr: "cache:6379"
log_format: json
`)
	t.Setenv(config.EnvConfigFile, path)
	t.Setenv("STOCKS_ADDR", ":6060")

	convey.Convey("Given a YAML file and an environment override", t, func() {
		cfg, err := config.Load()

		convey.Convey("Then file values apply and environment wins", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			convey.So(cfg.StorageDriver, convey.ShouldEqual, config.DriverRedis)
			convey.So(cfg.RedisAddr, convey.ShouldEqual, "cache:6379")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
		})
	})
}

func TestLoad_Errors(t *testing.T) {
	convey.Convey("Given broken configuration", t, func() {
		convey.Convey("When the file does not exist", func() {
			clearEnv(t)
			t.Setenv(config.EnvConfigFile, filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load()

			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the driver is unknown", func() {
			clearEnv(t)
			t.Setenv("STOCKS_STORAGE_DRIVER", "cassandra")

			_, err := config.Load()

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.So(cfg.Validate(), convey.ShouldBeNil)

		convey.Convey("Then an empty addr is rejected", func() {
			cfg.Addr = ""
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
		convey.Convey("Then an unknown log level is rejected", func() {
			cfg.LogLevel = "loud"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
		convey.Convey("Then an unknown log format is rejected", func() {
			cfg.LogFormat = "xml"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
		convey.Convey("Then a negative redis db is rejected", func() {
			cfg.RedisDB = -1
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
