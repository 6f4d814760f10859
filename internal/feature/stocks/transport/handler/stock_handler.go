package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stock_repository/internal/feature/stocks/domain/entity"
	"stock_repository/internal/feature/stocks/transport/http/dto"
	"stock_repository/internal/feature/stocks/usecase"
)

// StockUsecase は銘柄操作に関するユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type StockUsecase interface {
	Create(ctx context.Context, name string, price float64, popularity int64) (entity.Stock, error)
	Get(ctx context.Context, name string) (entity.Stock, error)
	List(ctx context.Context) ([]entity.Stock, error)
	Replace(ctx context.Context, name string, price float64, popularity int64) (entity.Stock, error)
	SetPopularity(ctx context.Context, name string, popularity int64) (entity.Stock, error)
	SetPrice(ctx context.Context, name string, price float64) (entity.Stock, error)
	Delete(ctx context.Context, name string) error
	Popular(ctx context.Context, limit int) ([]entity.Stock, error)
}

// StockHandler は銘柄に関するHTTPリクエストを処理します。
type StockHandler struct {
	uc StockUsecase
}

// NewStockHandler は新しい StockHandler を作成します。
func NewStockHandler(uc StockUsecase) *StockHandler {
	return &StockHandler{uc: uc}
}

// List は全銘柄の一覧を返します。
func (h *StockHandler) List(c *gin.Context) {
	stocks, err := h.uc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromEntities(stocks))
}

// Popular は人気順の銘柄を返します。
// クエリ limit が省略された場合はユースケースのデフォルト件数を使います。
func (h *StockHandler) Popular(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	stocks, err := h.uc.Popular(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromEntities(stocks))
}

// Get は指定された名前の銘柄を返します。存在しない場合は404です。
func (h *StockHandler) Get(c *gin.Context) {
	s, err := h.uc.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromEntity(s))
}

// Create は銘柄を登録します。同名の銘柄が既にある場合は409です。
func (h *StockHandler) Create(c *gin.Context) {
	var req dto.CreateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.uc.Create(c.Request.Context(), req.Name, *req.Price, req.Popularity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromEntity(s))
}

// Update は既存の銘柄の価格と人気度を置き換えます。
func (h *StockHandler) Update(c *gin.Context) {
	var req dto.UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.uc.Replace(c.Request.Context(), c.Param("name"), *req.Price, req.Popularity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromEntity(s))
}

// SetPopularity は人気度のみを更新します。
func (h *StockHandler) SetPopularity(c *gin.Context) {
	var req dto.PopularityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.uc.SetPopularity(c.Request.Context(), c.Param("name"), *req.Popularity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromEntity(s))
}

// SetPrice は価格のみを更新し、人気度は保持します。
func (h *StockHandler) SetPrice(c *gin.Context) {
	var req dto.PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.uc.SetPrice(c.Request.Context(), c.Param("name"), *req.Price)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromEntity(s))
}

// Delete は銘柄を削除します。
func (h *StockHandler) Delete(c *gin.Context) {
	if err := h.uc.Delete(c.Request.Context(), c.Param("name")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeError はユースケースのエラーをHTTPステータスに変換します。
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrStockNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrStockAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrInvalidStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.ErrorContext(c.Request.Context(), "stock request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
