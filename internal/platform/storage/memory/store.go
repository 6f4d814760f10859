// Package memory はプロセス内マップによるstorage.Clientの実装を提供します。
// テストおよび STORAGE_DRIVER=memory での起動時に使用します。
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"stock_repository/internal/platform/storage"
)

// Store はコレクションごとにレコードを保持するインメモリストアです。
type Store[T any] struct {
	mu          sync.RWMutex
	collections map[string]map[string]T
}

// New は空のStoreを生成します。
func New[T any]() *Store[T] {
	return &Store[T]{collections: make(map[string]map[string]T)}
}

// Insert はキーが未使用の場合のみレコードを追加します。
func (s *Store[T]) Insert(ctx context.Context, collection, key string, record T) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		c = make(map[string]T)
		s.collections[collection] = c
	}
	if _, exists := c[key]; exists {
		return false, fmt.Errorf("%s/%s: %w", collection, key, storage.ErrDuplicateKey)
	}
	c[key] = record
	return true, nil
}

// GetByID はキーのレコードを返します。
func (s *Store[T]) GetByID(ctx context.Context, collection, key string) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.collections[collection][key]
	if !ok {
		return zero, false, nil
	}
	return rec, true, nil
}

// Update は既存キーのレコードを置き換えます。
func (s *Store[T]) Update(ctx context.Context, collection, key string, record T) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collections[collection]
	if _, ok := c[key]; !ok {
		return false, fmt.Errorf("%s/%s: %w", collection, key, storage.ErrNotFound)
	}
	c[key] = record
	return true, nil
}

// Delete は既存キーのレコードを削除します。
func (s *Store[T]) Delete(ctx context.Context, collection, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collections[collection]
	if _, ok := c[key]; !ok {
		return false, fmt.Errorf("%s/%s: %w", collection, key, storage.ErrNotFound)
	}
	delete(c, key)
	return true, nil
}

// FindAll はキー昇順で全レコードを返します。
func (s *Store[T]) FindAll(ctx context.Context, collection string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.collections[collection]
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, c[k])
	}
	return out, nil
}

type ranked[T any] struct {
	key   string
	score float64
	rec   T
}

// GetTopByField はfieldの値で並べた上位limit件を返します。
func (s *Store[T]) GetTopByField(ctx context.Context, collection string, field storage.Field, limit int, descending bool) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", storage.ErrInvalidLimit, limit)
	}
	if err := storage.ValidateField[T](field); err != nil {
		return nil, err
	}

	s.mu.RLock()
	c := s.collections[collection]
	rows := make([]ranked[T], 0, len(c))
	for k, rec := range c {
		score, err := storage.NumericValue(rec, field)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		rows = append(rows, ranked[T]{key: k, score: score, rec: rec})
	}
	s.mu.RUnlock()

	slices.SortFunc(rows, func(a, b ranked[T]) int {
		order := cmp.Compare(a.score, b.score)
		if descending {
			order = -order
		}
		if order != 0 {
			return order
		}
		return cmp.Compare(a.key, b.key)
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.rec)
	}
	return out, nil
}

// Len はコレクション内のレコード数を返します。
func (s *Store[T]) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}
