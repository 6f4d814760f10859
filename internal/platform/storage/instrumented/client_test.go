package instrumented

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_repository/internal/platform/metrics"
	"stock_repository/internal/platform/storage"
	"stock_repository/internal/platform/storage/memory"
)

type item struct {
	Code  string
	Score int
}

type observation struct {
	collection, operation, outcome string
}

// fakeRecorder はObserveStorageの呼び出しを記録します。
type fakeRecorder struct {
	mu   sync.Mutex
	seen []observation
}

func (r *fakeRecorder) ObserveStorage(collection, operation, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, observation{collection, operation, outcome})
}

// failingClient は常に同じエラーを返すstorage.Clientです。
type failingClient struct {
	err error
}

func (f failingClient) Insert(context.Context, string, string, item) (bool, error) {
	return false, f.err
}

func (f failingClient) GetByID(context.Context, string, string) (item, bool, error) {
	return item{}, false, f.err
}

func (f failingClient) Update(context.Context, string, string, item) (bool, error) {
	return false, f.err
}

func (f failingClient) Delete(context.Context, string, string) (bool, error) {
	return false, f.err
}

func (f failingClient) FindAll(context.Context, string) ([]item, error) {
	return nil, f.err
}

func (f failingClient) GetTopByField(context.Context, string, storage.Field, int, bool) ([]item, error) {
	return nil, f.err
}

func TestClient_RecordsOutcomes(t *testing.T) {
	t.Parallel()

	rec := &fakeRecorder{}
	c := New[item](memory.New[item](), rec, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	_, err := c.Insert(ctx, "items", "a", item{Code: "a", Score: 1})
	require.NoError(t, err)
	_, err = c.Insert(ctx, "items", "a", item{Code: "a"})
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
	_, found, err := c.GetByID(ctx, "items", "zzz")
	require.NoError(t, err)
	require.False(t, found)
	_, err = c.Update(ctx, "items", "zzz", item{})
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = c.FindAll(ctx, "items")
	require.NoError(t, err)
	_, err = c.GetTopByField(ctx, "items", "Score", 1, true)
	require.NoError(t, err)
	_, err = c.Delete(ctx, "items", "a")
	require.NoError(t, err)

	assert.Equal(t, []observation{
		{"items", "insert", metrics.OutcomeOK},
		{"items", "insert", metrics.OutcomeDuplicate},
		{"items", "get", metrics.OutcomeAbsent},
		{"items", "update", metrics.OutcomeNotFound},
		{"items", "find_all", metrics.OutcomeOK},
		{"items", "top_by_field", metrics.OutcomeOK},
		{"items", "delete", metrics.OutcomeOK},
	}, rec.seen)
}

// TestClient_PassesErrorsThrough は内部クライアントのエラーがそのまま返されることを検証します。
func TestClient_PassesErrorsThrough(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	var buf bytes.Buffer
	rec := &fakeRecorder{}
	c := New[item](failingClient{err: boom}, rec, slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()

	_, err := c.Insert(ctx, "items", "a", item{})
	assert.Same(t, boom, err)
	_, _, err = c.GetByID(ctx, "items", "a")
	assert.Same(t, boom, err)
	_, err = c.Update(ctx, "items", "a", item{})
	assert.Same(t, boom, err)
	_, err = c.Delete(ctx, "items", "a")
	assert.Same(t, boom, err)
	_, err = c.FindAll(ctx, "items")
	assert.Same(t, boom, err)
	_, err = c.GetTopByField(ctx, "items", "Score", 1, true)
	assert.Same(t, boom, err)

	require.Len(t, rec.seen, 6)
	for _, o := range rec.seen {
		assert.Equal(t, metrics.OutcomeError, o.outcome)
	}
	assert.Contains(t, buf.String(), "storage operation failed")
	assert.Contains(t, buf.String(), "connection reset")
}

func TestClient_NilRecorderAndLogger(t *testing.T) {
	t.Parallel()

	c := New[item](memory.New[item](), nil, nil)
	ok, err := c.Insert(context.Background(), "items", "a", item{Code: "a"})
	require.NoError(t, err)
	assert.True(t, ok)
}
