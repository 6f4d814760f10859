// Package usecase implements the business logic for stock operations.
package usecase

import (
	"context"
	"errors"
	"fmt"

	"stock_repository/internal/feature/stocks/domain/entity"
	"stock_repository/internal/platform/storage"
)

const (
	// DefaultPopularLimit は人気銘柄のデフォルト返却件数です。
	DefaultPopularLimit = 10
	// MaxPopularLimit は人気銘柄の最大返却件数です。
	MaxPopularLimit = 100
)

// StockRepository abstracts the persistence layer for stocks.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type StockRepository interface {
	Add(ctx context.Context, s entity.Stock) (bool, error)
	Get(ctx context.Context, name string) (entity.Stock, bool, error)
	List(ctx context.Context) ([]entity.Stock, error)
	Update(ctx context.Context, s entity.Stock) (bool, error)
	Delete(ctx context.Context, name string) (bool, error)
	GetPopularStocks(ctx context.Context, limit int) ([]entity.Stock, error)
}

// StockUsecase provides business logic for stock operations.
type StockUsecase struct {
	repo StockRepository
}

// NewStockUsecase creates a new StockUsecase with the given repository.
func NewStockUsecase(r StockRepository) *StockUsecase {
	return &StockUsecase{repo: r}
}

// Create registers a new stock. A stock with the same name yields ErrStockAlreadyExists.
func (u *StockUsecase) Create(ctx context.Context, name string, price float64, popularity int64) (entity.Stock, error) {
	if name == "" {
		return entity.Stock{}, ErrInvalidStock
	}
	if err := checkPopularity(popularity); err != nil {
		return entity.Stock{}, err
	}
	s := entity.NewStock(name, price)
	s.SetPopularity(popularity)

	if _, err := u.repo.Add(ctx, s); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return entity.Stock{}, fmt.Errorf("%w: %s", ErrStockAlreadyExists, name)
		}
		return entity.Stock{}, err
	}
	return s, nil
}

// Get returns the stock with the given name or ErrStockNotFound.
func (u *StockUsecase) Get(ctx context.Context, name string) (entity.Stock, error) {
	s, found, err := u.repo.Get(ctx, name)
	if err != nil {
		return entity.Stock{}, err
	}
	if !found {
		return entity.Stock{}, fmt.Errorf("%w: %s", ErrStockNotFound, name)
	}
	return s, nil
}

// List returns every stock.
func (u *StockUsecase) List(ctx context.Context) ([]entity.Stock, error) {
	return u.repo.List(ctx)
}

// Replace overwrites price and popularity of an existing stock.
func (u *StockUsecase) Replace(ctx context.Context, name string, price float64, popularity int64) (entity.Stock, error) {
	if err := checkPopularity(popularity); err != nil {
		return entity.Stock{}, err
	}
	s := entity.NewStock(name, price)
	s.SetPopularity(popularity)
	if err := u.update(ctx, s); err != nil {
		return entity.Stock{}, err
	}
	return s, nil
}

// SetPopularity changes only the popularity of an existing stock.
func (u *StockUsecase) SetPopularity(ctx context.Context, name string, popularity int64) (entity.Stock, error) {
	if err := checkPopularity(popularity); err != nil {
		return entity.Stock{}, err
	}
	s, err := u.Get(ctx, name)
	if err != nil {
		return entity.Stock{}, err
	}
	s.SetPopularity(popularity)
	if err := u.update(ctx, s); err != nil {
		return entity.Stock{}, err
	}
	return s, nil
}

// SetPrice changes only the price of an existing stock.
func (u *StockUsecase) SetPrice(ctx context.Context, name string, price float64) (entity.Stock, error) {
	s, err := u.Get(ctx, name)
	if err != nil {
		return entity.Stock{}, err
	}
	s.SetPrice(price)
	if err := u.update(ctx, s); err != nil {
		return entity.Stock{}, err
	}
	return s, nil
}

// Delete removes the stock with the given name.
func (u *StockUsecase) Delete(ctx context.Context, name string) error {
	if _, err := u.repo.Delete(ctx, name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrStockNotFound, name)
		}
		return err
	}
	return nil
}

// Popular returns the most popular stocks.
// limit <= 0 or limit > MaxPopularLimit falls back to DefaultPopularLimit.
func (u *StockUsecase) Popular(ctx context.Context, limit int) ([]entity.Stock, error) {
	if limit <= 0 || limit > MaxPopularLimit {
		limit = DefaultPopularLimit
	}
	return u.repo.GetPopularStocks(ctx, limit)
}

// checkPopularity はどのバックエンドでも正確に順位付けできる範囲かを確認します。
func checkPopularity(p int64) error {
	if p > storage.MaxExactScore || p < -storage.MaxExactScore {
		return fmt.Errorf("%w: popularity %d is outside ±%d", ErrInvalidStock, p, int64(storage.MaxExactScore))
	}
	return nil
}

func (u *StockUsecase) update(ctx context.Context, s entity.Stock) error {
	if _, err := u.repo.Update(ctx, s); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrStockNotFound, s.Name)
		}
		return err
	}
	return nil
}
