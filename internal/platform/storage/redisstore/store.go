// Package redisstore provides a Redis-backed storage.Client.
//
// Records are stored as JSON in one hash per collection ("<namespace>:<collection>"),
// and every registered score field keeps a sorted set
// ("<namespace>:<collection>:idx:<field>") used by GetTopByField.
package redisstore

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"stock_repository/internal/platform/storage"
)

// maxTxAttempts bounds optimistic-lock retries when a watched key changes mid-transaction.
const maxTxAttempts = 5

// Store implements storage.Client on top of Redis.
type Store[T any] struct {
	rdb       *redis.Client
	namespace string
	fields    []storage.Field
}

// New creates a Store. Each field in scoreFields must be a numeric field of T;
// only those fields can be ranked with GetTopByField.
// If namespace is empty, it uses "store".
func New[T any](rdb *redis.Client, namespace string, scoreFields ...storage.Field) (*Store[T], error) {
	if namespace == "" {
		namespace = "store"
	}
	for _, f := range scoreFields {
		if err := storage.ValidateField[T](f); err != nil {
			return nil, err
		}
	}
	return &Store[T]{
		rdb:       rdb,
		namespace: namespace,
		fields:    slices.Clone(scoreFields),
	}, nil
}

// hashKey returns the hash holding every record of a collection.
func (s *Store[T]) hashKey(collection string) string {
	return fmt.Sprintf("%s:%s", s.namespace, safe(collection))
}

// indexKey returns the sorted set ranking a collection by field.
func (s *Store[T]) indexKey(collection string, field storage.Field) string {
	return fmt.Sprintf("%s:%s:idx:%s", s.namespace, safe(collection), safe(string(field)))
}

// Insert stores record under key unless the key already exists.
func (s *Store[T]) Insert(ctx context.Context, collection, key string, record T) (bool, error) {
	data, scores, err := s.encode(record)
	if err != nil {
		return false, err
	}
	hk := s.hashKey(collection)

	err = s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, hk, key).Result()
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%s/%s: %w", collection, key, storage.ErrDuplicateKey)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			s.write(ctx, p, collection, key, data, scores)
			return nil
		})
		return err
	}, hk)
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByID returns the record stored under key. A missing key is reported as found=false.
func (s *Store[T]) GetByID(ctx context.Context, collection, key string) (T, bool, error) {
	var zero T
	b, err := s.rdb.HGet(ctx, s.hashKey(collection), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, false, nil
		}
		return zero, false, err
	}
	var rec T
	if err := json.Unmarshal(b, &rec); err != nil {
		return zero, false, fmt.Errorf("failed to unmarshal %s/%s: %w", collection, key, err)
	}
	return rec, true, nil
}

// Update replaces the record stored under an existing key.
func (s *Store[T]) Update(ctx context.Context, collection, key string, record T) (bool, error) {
	data, scores, err := s.encode(record)
	if err != nil {
		return false, err
	}
	hk := s.hashKey(collection)

	err = s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, hk, key).Result()
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%s/%s: %w", collection, key, storage.ErrNotFound)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			s.write(ctx, p, collection, key, data, scores)
			return nil
		})
		return err
	}, hk)
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes an existing key and its index entries.
func (s *Store[T]) Delete(ctx context.Context, collection, key string) (bool, error) {
	hk := s.hashKey(collection)

	err := s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, hk, key).Result()
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%s/%s: %w", collection, key, storage.ErrNotFound)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HDel(ctx, hk, key)
			for _, f := range s.fields {
				p.ZRem(ctx, s.indexKey(collection, f), key)
			}
			return nil
		})
		return err
	}, hk)
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindAll returns every record of a collection ordered by key.
func (s *Store[T]) FindAll(ctx context.Context, collection string) ([]T, error) {
	m, err := s.rdb.HGetAll(ctx, s.hashKey(collection)).Result()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		var rec T
		if err := json.Unmarshal([]byte(m[k]), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s/%s: %w", collection, k, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetTopByField returns up to limit records ordered by a registered score field.
// Equal scores are ordered by key ascending in both directions.
// The index reads and the record fetch run under WATCH, so a concurrent write
// retries the whole read instead of mixing two snapshots.
func (s *Store[T]) GetTopByField(ctx context.Context, collection string, field storage.Field, limit int, descending bool) ([]T, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", storage.ErrInvalidLimit, limit)
	}
	if !slices.Contains(s.fields, field) {
		return nil, fmt.Errorf("%w: %s is not indexed", storage.ErrUnknownField, field)
	}
	ik := s.indexKey(collection, field)
	hk := s.hashKey(collection)

	var (
		keys []string
		vals []any
	)
	err := s.watch(ctx, func(tx *redis.Tx) error {
		var err error
		if descending {
			keys, err = topDescending(ctx, tx, ik, limit)
		} else {
			// ZRANGE already orders equal scores by member ascending.
			keys, err = tx.ZRange(ctx, ik, 0, int64(limit-1)).Result()
		}
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			vals = nil
			return nil
		}
		// HMGET is queued inside MULTI so EXEC fails if a watched key changed.
		var cmd *redis.SliceCmd
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			cmd = p.HMGet(ctx, hk, keys...)
			return nil
		})
		if err != nil {
			return err
		}
		vals = cmd.Val()
		return nil
	}, ik, hk)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s/%s: %w", collection, keys[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// topDescending reads the highest scores. ZREVRANGE orders ties by member descending,
// so members sharing the boundary score are re-read in ascending order.
func topDescending(ctx context.Context, tx *redis.Tx, ik string, limit int) ([]string, error) {
	top, err := tx.ZRevRangeWithScores(ctx, ik, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(top) == 0 {
		return nil, nil
	}

	boundary := top[len(top)-1].Score
	keys := make([]string, 0, len(top))
	above := make([]redis.Z, 0, len(top))
	for _, z := range top {
		if z.Score > boundary {
			above = append(above, z)
		}
	}
	slices.SortStableFunc(above, func(a, b redis.Z) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Member.(string), b.Member.(string))
	})
	for _, z := range above {
		keys = append(keys, z.Member.(string))
	}

	score := strconv.FormatFloat(boundary, 'f', -1, 64)
	ties, err := tx.ZRangeByScore(ctx, ik, &redis.ZRangeBy{
		Min:   score,
		Max:   score,
		Count: int64(limit - len(keys)),
	}).Result()
	if err != nil {
		return nil, err
	}
	return append(keys, ties...), nil
}

// encode marshals record and extracts the score of every indexed field.
// Scores are kept as float64, so integers beyond storage.MaxExactScore are rejected.
func (s *Store[T]) encode(record T) ([]byte, map[storage.Field]float64, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	scores := make(map[storage.Field]float64, len(s.fields))
	for _, f := range s.fields {
		v, err := storage.NumericValue(record, f)
		if err != nil {
			return nil, nil, err
		}
		scores[f] = v
	}
	return data, scores, nil
}

// write queues the record and its index entries on a transaction pipeline.
func (s *Store[T]) write(ctx context.Context, p redis.Pipeliner, collection, key string, data []byte, scores map[storage.Field]float64) {
	p.HSet(ctx, s.hashKey(collection), key, data)
	for f, score := range scores {
		p.ZAdd(ctx, s.indexKey(collection, f), redis.Z{Score: score, Member: key})
	}
}

// watch runs fn in a WATCH/MULTI transaction, retrying when a watched key changed.
func (s *Store[T]) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	var err error
	for range maxTxAttempts {
		err = s.rdb.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

// keyEscaper percent-encodes the key separator and spaces. "%" is escaped too,
// so distinct names never map to the same key.
var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A", " ", "%20")

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	return keyEscaper.Replace(s)
}
