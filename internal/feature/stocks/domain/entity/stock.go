// Package entity defines the domain models for the stocks feature.
package entity

import "stock_repository/internal/platform/storage"

// CollectionName はStockを保存するコレクション（テーブル）名です。
const CollectionName = "stocks"

// FieldPopularity はPopularityでランキングする際のフィールド指定です。
const FieldPopularity storage.Field = "Popularity"

// Stock represents a tradable stock tracked by the service.
// Name is the natural key within the "stocks" collection.
type Stock struct {
	Name       string  `gorm:"primaryKey;size:64" json:"name"`
	Price      float64 `gorm:"not null" json:"price"`
	Popularity int64   `gorm:"not null;default:0;index" json:"popularity"`
}

// NewStock は名前と初期価格からStockを生成します。Popularityは0から始まります。
func NewStock(name string, price float64) Stock {
	return Stock{Name: name, Price: price}
}

// SetPopularity はランキングに使うPopularityを設定します。
func (s *Stock) SetPopularity(p int64) {
	s.Popularity = p
}

// SetPrice は現在価格を更新します。
func (s *Stock) SetPrice(price float64) {
	s.Price = price
}
