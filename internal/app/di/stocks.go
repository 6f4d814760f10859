package di

import (
	"stock_repository/internal/feature/stocks/adapters"
	"stock_repository/internal/feature/stocks/domain/entity"
	"stock_repository/internal/feature/stocks/transport/handler"
	"stock_repository/internal/feature/stocks/usecase"
	"stock_repository/internal/platform/storage"
)

// NewStockHandler wires repository, usecase and handler on top of client.
func NewStockHandler(client storage.Client[entity.Stock]) *handler.StockHandler {
	repo := adapters.NewStockRepository(client)
	uc := usecase.NewStockUsecase(repo)
	return handler.NewStockHandler(uc)
}
