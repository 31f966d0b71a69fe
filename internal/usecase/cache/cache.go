// Package cache implements the read-through, write-invalidating cache that
// sits in front of the user and role managers.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kanehiroyuu/user-role-api/internal/common/logging"
	"github.com/kanehiroyuu/user-role-api/internal/domain"
	"github.com/kanehiroyuu/user-role-api/internal/usecase/port"
	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// Cache wraps a CacheRepository with JSON encoding and the coherence rules:
// loader results are stored only under a fresh ticket, loader failures are
// never stored, and invalidation failures are reported to the caller.
type Cache struct {
	Logger port.Logger
	Store  port.CacheRepository
}

// New creates a Cache over store
func New(store port.CacheRepository, logger port.Logger) *Cache {
	return &Cache{
		Logger: logger,
		Store:  store,
	}
}

// GetOrCompute returns the cached value for segment/key or loads, stores and returns it.
// A cache read failure degrades to a plain load.
func GetOrCompute[T any](ctx context.Context, c *Cache, segment, key string, load func(ctx context.Context) (T, error)) (T, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "cache.get_or_compute")
	defer span.Finish()

	span.SetTag("cache.segment", segment)
	span.SetTag("cache.key", key)

	var zero T

	raw, ticket, err := c.Store.Get(ctx, segment, key)
	switch {
	case err == nil:
		var value T
		uerr := json.Unmarshal(raw, &value)
		if uerr == nil {
			span.SetTag("cache.hit", true)
			return value, nil
		}
		logging.LogWarnWithTrace(ctx, c.Logger, "cache", "Discarding undecodable cache entry", logrus.Fields{
			"cache.segment": segment,
			"cache.key":     key,
			"error":         uerr.Error(),
		})
	case errors.Is(err, port.ErrCacheMiss):
	default:
		// Without a trustworthy ticket the result must not be stored.
		logging.LogErrorWithTrace(ctx, c.Logger, "cache", "Cache lookup failed, loading from storage", err, logrus.Fields{
			"cache.segment": segment,
			"cache.key":     key,
		})
		span.SetTag("cache.hit", false)
		return load(ctx)
	}

	span.SetTag("cache.hit", false)

	value, err := load(ctx)
	if err != nil {
		return zero, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		logging.LogErrorWithTrace(ctx, c.Logger, "cache", "Failed to encode value for cache", err, logrus.Fields{
			"cache.segment": segment,
			"cache.key":     key,
		})
		return value, nil
	}

	stored, err := c.Store.Set(ctx, segment, key, encoded, ticket)
	if err != nil {
		span.SetTag("cache.set", false)
		logging.LogErrorWithTrace(ctx, c.Logger, "cache", "Failed to set cache", err, logrus.Fields{
			"cache.segment": segment,
			"cache.key":     key,
		})
		return value, nil
	}
	span.SetTag("cache.set", stored)

	return value, nil
}

// Invalidate removes one entry. It must run after the mutation has committed
// and before the mutating call returns.
func (c *Cache) Invalidate(ctx context.Context, segment, key string) error {
	if err := c.Store.Delete(ctx, segment, key); err != nil {
		logging.LogErrorWithTrace(ctx, c.Logger, "cache", "Cache invalidation failed", err, logrus.Fields{
			"cache.segment": segment,
			"cache.key":     key,
		})
		return domain.NewUnexpected("cache invalidation failed", fmt.Errorf("invalidate %s/%s: %w", segment, key, err))
	}
	return nil
}

// InvalidateSegment removes every entry of segment
func (c *Cache) InvalidateSegment(ctx context.Context, segment string) error {
	if err := c.Store.DeleteSegment(ctx, segment); err != nil {
		logging.LogErrorWithTrace(ctx, c.Logger, "cache", "Cache segment invalidation failed", err, logrus.Fields{
			"cache.segment": segment,
		})
		return domain.NewUnexpected("cache invalidation failed", fmt.Errorf("invalidate %s: %w", segment, err))
	}
	return nil
}
