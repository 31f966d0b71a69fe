package tracing

import (
	"context"
	"errors"

	"github.com/kanehiroyuu/user-role-api/internal/domain"
	"github.com/kanehiroyuu/user-role-api/internal/usecase/port"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// SpanFunc is a function that executes within a traced span
type SpanFunc func(ctx context.Context, span tracer.Span) error

// TraceOperation creates a span and executes the given function
func TraceOperation(ctx context.Context, operationName string, tags map[string]interface{}, fn SpanFunc) error {
	span, ctx := tracer.StartSpanFromContext(ctx, operationName)
	defer span.Finish()

	AddSpanTags(span, tags)

	err := fn(ctx, span)
	AddSpanError(span, err)
	if err == nil {
		span.SetTag("query.success", true)
	}

	return err
}

// AddSpanTags adds multiple tags to a span
func AddSpanTags(span tracer.Span, tags map[string]interface{}) {
	for key, value := range tags {
		span.SetTag(key, value)
	}
}

// AddSpanError adds error information to a span.
// A cache miss is a normal outcome and is not flagged.
func AddSpanError(span tracer.Span, err error) {
	if err == nil || errors.Is(err, port.ErrCacheMiss) {
		return
	}
	span.SetTag("error", true)
	span.SetTag("error.msg", err.Error())
	span.SetTag("error.kind", string(domain.KindOf(err)))
	span.SetTag("query.success", false)
}
