// Package instrumented decorates a storage.Client with metrics and debug logging.
// Results and errors from the inner client are returned unchanged.
package instrumented

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stock_repository/internal/platform/metrics"
	"stock_repository/internal/platform/storage"
)

// Recorder receives one observation per storage call.
type Recorder interface {
	ObserveStorage(collection, operation, outcome string, elapsed time.Duration)
}

// Client wraps a storage.Client.
type Client[T any] struct {
	inner    storage.Client[T]
	recorder Recorder
	logger   *slog.Logger
}

var _ storage.Client[any] = (*Client[any])(nil)

// New decorates inner. A nil logger falls back to slog.Default().
func New[T any](inner storage.Client[T], recorder Recorder, logger *slog.Logger) *Client[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client[T]{
		inner:    inner,
		recorder: recorder,
		logger:   logger.With("component", "storage"),
	}
}

func (c *Client[T]) observe(ctx context.Context, collection, op string, start time.Time, outcome string, err error) {
	elapsed := time.Since(start)
	if c.recorder != nil {
		c.recorder.ObserveStorage(collection, op, outcome, elapsed)
	}
	if outcome == metrics.OutcomeError {
		c.logger.WarnContext(ctx, "storage operation failed",
			"collection", collection, "operation", op, "elapsed", elapsed, "error", err)
		return
	}
	c.logger.DebugContext(ctx, "storage operation",
		"collection", collection, "operation", op, "outcome", outcome, "elapsed", elapsed)
}

// outcomeOf classifies err into a metrics outcome label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, storage.ErrDuplicateKey):
		return metrics.OutcomeDuplicate
	case errors.Is(err, storage.ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}

func (c *Client[T]) Insert(ctx context.Context, collection, key string, record T) (bool, error) {
	start := time.Now()
	ok, err := c.inner.Insert(ctx, collection, key, record)
	c.observe(ctx, collection, "insert", start, outcomeOf(err), err)
	return ok, err
}

func (c *Client[T]) GetByID(ctx context.Context, collection, key string) (T, bool, error) {
	start := time.Now()
	rec, found, err := c.inner.GetByID(ctx, collection, key)
	outcome := outcomeOf(err)
	if err == nil && !found {
		outcome = metrics.OutcomeAbsent
	}
	c.observe(ctx, collection, "get", start, outcome, err)
	return rec, found, err
}

func (c *Client[T]) Update(ctx context.Context, collection, key string, record T) (bool, error) {
	start := time.Now()
	ok, err := c.inner.Update(ctx, collection, key, record)
	c.observe(ctx, collection, "update", start, outcomeOf(err), err)
	return ok, err
}

func (c *Client[T]) Delete(ctx context.Context, collection, key string) (bool, error) {
	start := time.Now()
	ok, err := c.inner.Delete(ctx, collection, key)
	c.observe(ctx, collection, "delete", start, outcomeOf(err), err)
	return ok, err
}

func (c *Client[T]) FindAll(ctx context.Context, collection string) ([]T, error) {
	start := time.Now()
	out, err := c.inner.FindAll(ctx, collection)
	c.observe(ctx, collection, "find_all", start, outcomeOf(err), err)
	return out, err
}

func (c *Client[T]) GetTopByField(ctx context.Context, collection string, field storage.Field, limit int, descending bool) ([]T, error) {
	start := time.Now()
	out, err := c.inner.GetTopByField(ctx, collection, field, limit, descending)
	c.observe(ctx, collection, "top_by_field", start, outcomeOf(err), err)
	return out, err
}
