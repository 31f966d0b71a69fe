package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/mocktracer"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/kanehiroyuu/user-role-api/internal/domain"
)

func TestTraceOperation(t *testing.T) {
	mt := mocktracer.Start()
	defer mt.Stop()

	err := TraceOperation(context.Background(), "sqlite3.find_user_by_id", map[string]interface{}{
		"db.type": "sqlite3",
	}, func(ctx context.Context, span tracer.Span) error {
		span.SetTag("user.id", "u1")
		return nil
	})
	require.NoError(t, err)

	spans := mt.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "sqlite3.find_user_by_id", spans[0].OperationName())
	assert.Equal(t, "sqlite3", spans[0].Tag("db.type"))
	assert.Equal(t, "u1", spans[0].Tag("user.id"))
}

func TestTraceOperation_Error(t *testing.T) {
	mt := mocktracer.Start()
	defer mt.Stop()

	want := domain.NewConstraintViolation("user", "phone_number", "+79990000001", errors.New("dup"))
	err := TraceOperation(context.Background(), "sqlite3.create_user", nil, func(context.Context, tracer.Span) error {
		return want
	})
	require.ErrorIs(t, err, want)

	spans := mt.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, string(domain.KindConstraintViolation), spans[0].Tag("error.kind"))
}
