package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"stock_repository/internal/app/di"
	"stock_repository/internal/app/router"
	"stock_repository/internal/platform/config"
	platformhttp "stock_repository/internal/platform/http"
	"stock_repository/internal/platform/logging"
	"stock_repository/internal/platform/metrics"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewManager(metrics.WithNamespace(cfg.MetricsNamespace), metrics.WithRuntimeCollectors())

	// Storage
	st, err := di.NewStockStorage(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	// JWT_SECRETチェック（開発中の注意喚起）
	if cfg.JWTSecret == "" {
		logger.Warn("jwt_secret is not set; write routes will answer 500. Set STOCKS_JWT_SECRET in production.")
	}

	// ルータ生成
	r := router.NewRouter(router.Deps{
		Logger:    logger,
		Metrics:   m,
		Stocks:    di.NewStockHandler(st.Client),
		JWTSecret: cfg.JWTSecret,
		Ready:     st.Ping,
	})

	return platformhttp.Serve(ctx, platformhttp.NewServer(cfg.Addr, r), cfg.ShutdownGrace())
}
