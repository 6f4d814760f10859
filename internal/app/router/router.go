package router

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	stockhandler "stock_repository/internal/feature/stocks/transport/handler"
	"stock_repository/internal/platform/http/handler"
	jwtmw "stock_repository/internal/platform/jwt"
	"stock_repository/internal/platform/logging"
	"stock_repository/internal/platform/metrics"
)

// Deps はルーター構築に必要な依存をまとめたものです。
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Manager
	Stocks    *stockhandler.StockHandler
	JWTSecret string
	// Ready はストレージの疎通確認です。nil の場合は常に ready を返します。
	Ready     func(ctx context.Context) error
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.GinMiddleware(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.GinMiddleware())
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.GET("/readyz", handler.Readiness(d.Ready))

	// 参照系は公開
	r.GET("/stocks", d.Stocks.List)
	r.GET("/stocks/popular", d.Stocks.Popular)
	r.GET("/stocks/:name", d.Stocks.Get)

	// 更新系は JWT 必須
	auth := r.Group("/stocks")
	auth.Use(jwtmw.AuthRequired(d.JWTSecret))
	{
		auth.POST("", d.Stocks.Create)
		auth.PUT("/:name", d.Stocks.Update)
		auth.PATCH("/:name/popularity", d.Stocks.SetPopularity)
		auth.PATCH("/:name/price", d.Stocks.SetPrice)
		auth.DELETE("/:name", d.Stocks.Delete)
	}

	return r
}
