// Package storage はコレクション単位のキーバリュー型ストレージ境界を定義します。
// 各バックエンド（memory, gormstore, redisstore）はClientを実装します。
package storage

import "context"

// Field はランキング対象となるレコードのフィールド名です。
// 構造体のGoフィールド名（例: "Popularity"）で指定します。
type Field string

// String はフィールド名を返します。
func (f Field) String() string { return string(f) }

// Client はレコード型Tを名前付きコレクションに保存するストレージクライアントです。
// 各操作は単一レコードまたは単一クエリ単位でアトミックです。
type Client[T any] interface {
	// Insert はキーでレコードを追加します。キーが既に存在する場合はErrDuplicateKeyを返します。
	Insert(ctx context.Context, collection, key string, record T) (bool, error)

	// GetByID はキーでレコードを取得します。存在しない場合はfound=falseを返し、エラーにはしません。
	GetByID(ctx context.Context, collection, key string) (T, bool, error)

	// Update はキーのレコードを上書きします。キーが存在しない場合はErrNotFoundを返します。
	Update(ctx context.Context, collection, key string, record T) (bool, error)

	// Delete はキーのレコードを削除します。キーが存在しない場合はErrNotFoundを返します。
	Delete(ctx context.Context, collection, key string) (bool, error)

	// FindAll はコレクション内の全レコードを返します。順序はバックエンド依存です。
	FindAll(ctx context.Context, collection string) ([]T, error)

	// GetTopByField はfieldの値で並べた上位limit件を返します。
	// 同値の場合はキーの昇順で並べます。
	// スコアを float64 で保持するバックエンドでは、絶対値が MaxExactScore を超える整数値は ErrScoreOutOfRange になります。
	GetTopByField(ctx context.Context, collection string, field Field, limit int, descending bool) ([]T, error)
}
