// Package gormstore はGORM（SQLite / PostgreSQL / MySQL）によるstorage.Clientの実装を提供します。
// コレクションごとに1テーブルを使用し、テーブル定義はレコード型Tのスキーマから生成します。
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"stock_repository/internal/platform/storage"
)

// MySQLエラー1062: ユニークキーの重複エントリ
const mysqlDuplicateEntry = 1062

// PostgreSQL unique_violation
const pgUniqueViolation = "23505"

// Store はstorage.ClientのGORM実装です。
type Store[T any] struct {
	db        *gorm.DB
	schema    *schema.Schema
	keyColumn string
}

// Option はStoreの設定を変更します。
type Option func(*options)

type options struct {
	keyColumn string
}

// WithKeyColumn はキーとして使う列名を指定します。未指定の場合は主キー列を使います。
func WithKeyColumn(column string) Option {
	return func(o *options) {
		if column != "" {
			o.keyColumn = column
		}
	}
}

// New はレコード型Tのスキーマを解析してStoreを生成します。
func New[T any](db *gorm.DB, opts ...Option) (*Store[T], error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	sch, err := schema.Parse(new(T), &sync.Map{}, db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("failed to parse record schema: %w", err)
	}

	key := o.keyColumn
	if key == "" {
		if sch.PrioritizedPrimaryField == nil {
			return nil, fmt.Errorf("record %s has no primary key; use WithKeyColumn", sch.Name)
		}
		key = sch.PrioritizedPrimaryField.DBName
	} else if f := sch.LookUpField(key); f == nil {
		return nil, fmt.Errorf("key column %q not found in %s", key, sch.Name)
	} else {
		key = f.DBName
	}

	return &Store[T]{db: db, schema: sch, keyColumn: key}, nil
}

// Migrate はコレクションごとのテーブルを作成・更新します。
func (s *Store[T]) Migrate(ctx context.Context, collections ...string) error {
	for _, c := range collections {
		if err := s.db.WithContext(ctx).Table(c).AutoMigrate(new(T)); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", c, err)
		}
	}
	return nil
}

func (s *Store[T]) keyEq(key string) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: s.keyColumn}, Value: key}
}

// Insert はレコードを追加します。主キー・ユニーク制約違反はstorage.ErrDuplicateKeyになります。
func (s *Store[T]) Insert(ctx context.Context, collection, key string, record T) (bool, error) {
	if err := s.db.WithContext(ctx).Table(collection).Create(&record).Error; err != nil {
		if isDuplicate(err) {
			return false, fmt.Errorf("%s/%s: %w", collection, key, storage.ErrDuplicateKey)
		}
		return false, err
	}
	return true, nil
}

// GetByID はキーでレコードを取得します。
func (s *Store[T]) GetByID(ctx context.Context, collection, key string) (T, bool, error) {
	var rec T
	err := s.db.WithContext(ctx).Table(collection).Where(s.keyEq(key)).Take(&rec).Error
	if err != nil {
		var zero T
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return rec, true, nil
}

// Update はキーのレコードの全列を上書きします。
// MySQLでは変更のない更新でも件数を得るためDSNにclientFoundRows=trueが必要です（platform/dbで設定）。
func (s *Store[T]) Update(ctx context.Context, collection, key string, record T) (bool, error) {
	res := s.db.WithContext(ctx).Table(collection).
		Where(s.keyEq(key)).
		Select("*").
		Updates(&record)
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return false, fmt.Errorf("%s/%s: %w", collection, key, storage.ErrDuplicateKey)
		}
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, fmt.Errorf("%s/%s: %w", collection, key, storage.ErrNotFound)
	}
	return true, nil
}

// Delete はキーのレコードを削除します。
func (s *Store[T]) Delete(ctx context.Context, collection, key string) (bool, error) {
	res := s.db.WithContext(ctx).Table(collection).Where(s.keyEq(key)).Delete(new(T))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, fmt.Errorf("%s/%s: %w", collection, key, storage.ErrNotFound)
	}
	return true, nil
}

// FindAll はキー昇順で全レコードを返します。
func (s *Store[T]) FindAll(ctx context.Context, collection string) ([]T, error) {
	var rows []T
	if err := s.db.WithContext(ctx).Table(collection).
		Order(clause.OrderByColumn{Column: clause.Column{Name: s.keyColumn}}).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// GetTopByField はfieldに対応する列でORDER BYし、上位limit件を返します。
func (s *Store[T]) GetTopByField(ctx context.Context, collection string, field storage.Field, limit int, descending bool) ([]T, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", storage.ErrInvalidLimit, limit)
	}
	column, err := s.rankColumn(field)
	if err != nil {
		return nil, err
	}

	var rows []T
	if err := s.db.WithContext(ctx).Table(collection).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: descending}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: s.keyColumn}}).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// rankColumn はfieldを数値列の列名に解決します。Goのフィールド名と列名のどちらも受け付けます。
func (s *Store[T]) rankColumn(field storage.Field) (string, error) {
	f := s.schema.LookUpField(string(field))
	if f == nil || f.DBName == "" {
		return "", fmt.Errorf("%w: %s", storage.ErrUnknownField, field)
	}
	switch f.DataType {
	case schema.Int, schema.Uint, schema.Float:
		return f.DBName, nil
	default:
		return "", fmt.Errorf("%w: %s is %s, not numeric", storage.ErrUnknownField, field, f.DataType)
	}
}

// isDuplicate はドライバーごとの一意制約違反を判定します。
// TranslateErrorが有効な接続ではgorm.ErrDuplicatedKeyに変換済みです。
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	return false
}
