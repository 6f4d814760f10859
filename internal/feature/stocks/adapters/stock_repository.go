// Package adapters はstocksフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"stock_repository/internal/feature/stocks/domain/entity"
	"stock_repository/internal/feature/stocks/usecase"
	"stock_repository/internal/platform/storage"
)

// DefaultPopularLimit はGetPopularStocksでlimitが指定されない場合の件数です。
const DefaultPopularLimit = 10

// StockRepository はstorage.Clientを"stocks"コレクションに固定した型付きファサードです。
// キーは常にStock.Nameで、ストレージの結果とエラーは変換せずにそのまま返します。
type StockRepository struct {
	client storage.Client[entity.Stock]
}

// StockRepositoryがusecase.StockRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.StockRepository = (*StockRepository)(nil)

// NewStockRepository は指定されたストレージクライアントでStockRepositoryを生成します。
func NewStockRepository(client storage.Client[entity.Stock]) *StockRepository {
	return &StockRepository{client: client}
}

// Add はStock.Nameをキーとして銘柄を追加します。
// キーが既に存在する場合はストレージのstorage.ErrDuplicateKeyがそのまま返ります。
func (r *StockRepository) Add(ctx context.Context, s entity.Stock) (bool, error) {
	return r.client.Insert(ctx, entity.CollectionName, s.Name, s)
}

// Get はnameの銘柄を返します。存在しない場合はfound=falseで、エラーにはなりません。
func (r *StockRepository) Get(ctx context.Context, name string) (entity.Stock, bool, error) {
	return r.client.GetByID(ctx, entity.CollectionName, name)
}

// List はすべての銘柄を返します。順序はストレージ依存です。
func (r *StockRepository) List(ctx context.Context) ([]entity.Stock, error) {
	stocks, err := r.client.FindAll(ctx, entity.CollectionName)
	if err != nil {
		return nil, err
	}
	if stocks == nil {
		stocks = []entity.Stock{}
	}
	return stocks, nil
}

// Update はStock.Nameのレコードを上書きします。
func (r *StockRepository) Update(ctx context.Context, s entity.Stock) (bool, error) {
	return r.client.Update(ctx, entity.CollectionName, s.Name, s)
}

// Delete はnameのレコードを削除します。
func (r *StockRepository) Delete(ctx context.Context, name string) (bool, error) {
	return r.client.Delete(ctx, entity.CollectionName, name)
}

// GetPopularStocks はPopularityの降順で最大limit件の銘柄を返します。
// limitが0以下の場合はDefaultPopularLimitを使います。
func (r *StockRepository) GetPopularStocks(ctx context.Context, limit int) ([]entity.Stock, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	stocks, err := r.client.GetTopByField(ctx, entity.CollectionName, entity.FieldPopularity, limit, true)
	if err != nil {
		return nil, err
	}
	if stocks == nil {
		stocks = []entity.Stock{}
	}
	return stocks, nil
}
