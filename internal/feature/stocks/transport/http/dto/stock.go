// Package dto defines data transfer objects for the stocks HTTP API.
package dto

import "stock_repository/internal/feature/stocks/domain/entity"

// CreateStockRequest is the body of POST /stocks.
// Price is a pointer so that an explicit 0 passes the required check.
type CreateStockRequest struct {
	Name       string   `json:"name" binding:"required,max=64"`
	Price      *float64 `json:"price" binding:"required,gte=0"`
	Popularity int64    `json:"popularity"`
}

// UpdateStockRequest is the body of PUT /stocks/:name.
type UpdateStockRequest struct {
	Price      *float64 `json:"price" binding:"required,gte=0"`
	Popularity int64    `json:"popularity"`
}

// PopularityRequest is the body of PATCH /stocks/:name/popularity.
type PopularityRequest struct {
	Popularity *int64 `json:"popularity" binding:"required"`
}

// PriceRequest is the body of PATCH /stocks/:name/price.
type PriceRequest struct {
	Price *float64 `json:"price" binding:"required,gte=0"`
}

// StockResponse represents a stock in API responses.
type StockResponse struct {
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Popularity int64   `json:"popularity"`
}

// FromEntity converts a domain stock into its response form.
func FromEntity(s entity.Stock) StockResponse {
	return StockResponse{Name: s.Name, Price: s.Price, Popularity: s.Popularity}
}

// FromEntities converts a slice of stocks; the result is never nil.
func FromEntities(stocks []entity.Stock) []StockResponse {
	out := make([]StockResponse, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, FromEntity(s))
	}
	return out
}
