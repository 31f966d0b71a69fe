package tracing

import (
	"context"
	"errors"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/kanehiroyuu/user-role-api/internal/usecase/port"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// CacheRepositoryTracer wraps a CacheRepository with tracing and hit/miss counters
type CacheRepositoryTracer struct {
	repo    port.CacheRepository
	backend string
	ttl     time.Duration
	metrics statsd.ClientInterface
}

// NewCacheRepositoryTracer creates a new tracing decorator for CacheRepository.
// metrics may be nil.
func NewCacheRepositoryTracer(repo port.CacheRepository, backend string, ttl time.Duration, metrics statsd.ClientInterface) port.CacheRepository {
	return &CacheRepositoryTracer{
		repo:    repo,
		backend: backend,
		ttl:     ttl,
		metrics: metrics,
	}
}

// Get wraps the Get method with tracing
func (r *CacheRepositoryTracer) Get(ctx context.Context, segment, key string) ([]byte, port.Ticket, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, r.backend+".get")
	defer span.Finish()

	r.tag(span, "GET", segment, key)

	value, ticket, err := r.repo.Get(ctx, segment, key)
	switch {
	case err == nil:
		span.SetTag("cache.hit", true)
		r.incr("cache.hit", segment)
	case errors.Is(err, port.ErrCacheMiss):
		span.SetTag("cache.hit", false)
		r.incr("cache.miss", segment)
	default:
		AddSpanError(span, err)
		r.incr("cache.error", segment)
	}
	return value, ticket, err
}

// Set wraps the Set method with tracing
func (r *CacheRepositoryTracer) Set(ctx context.Context, segment, key string, value []byte, ticket port.Ticket) (bool, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, r.backend+".set")
	defer span.Finish()

	r.tag(span, "SET", segment, key)
	span.SetTag("cache.ttl", r.ttl.Seconds())

	stored, err := r.repo.Set(ctx, segment, key, value, ticket)
	if err != nil {
		AddSpanError(span, err)
		r.incr("cache.error", segment)
		return false, err
	}

	span.SetTag("cache.stored", stored)
	if !stored {
		r.incr("cache.fill_skipped", segment)
	}
	return stored, nil
}

// Delete wraps the Delete method with tracing
func (r *CacheRepositoryTracer) Delete(ctx context.Context, segment, key string) error {
	span, ctx := tracer.StartSpanFromContext(ctx, r.backend+".delete")
	defer span.Finish()

	r.tag(span, "DELETE", segment, key)

	err := r.repo.Delete(ctx, segment, key)
	AddSpanError(span, err)
	return err
}

// DeleteSegment wraps the DeleteSegment method with tracing
func (r *CacheRepositoryTracer) DeleteSegment(ctx context.Context, segment string) error {
	span, ctx := tracer.StartSpanFromContext(ctx, r.backend+".delete_segment")
	defer span.Finish()

	r.tag(span, "DELETE_SEGMENT", segment, "")

	err := r.repo.DeleteSegment(ctx, segment)
	AddSpanError(span, err)
	if err == nil {
		r.incr("cache.segment_invalidated", segment)
	}
	return err
}

func (r *CacheRepositoryTracer) tag(span tracer.Span, op, segment, key string) {
	AddSpanTags(span, map[string]interface{}{
		"db.type":       r.backend,
		"db.operation":  op,
		"cache.segment": segment,
	})
	if key != "" {
		span.SetTag("cache.key", key)
	}
}

func (r *CacheRepositoryTracer) incr(name, segment string) {
	if r.metrics == nil {
		return
	}
	_ = r.metrics.Incr(name, []string{"segment:" + segment, "backend:" + r.backend}, 1)
}
