package logging

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// New creates a JSON logrus logger at the given level.
// An unknown level falls back to info.
func New(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// LogWithTrace logs a message with trace information and caller details
func LogWithTrace(ctx context.Context, logger *logrus.Logger, layer, message string, fields logrus.Fields) {
	entry, formattedMessage := traceEntry(ctx, logger, layer, message, fields)
	entry.Info(formattedMessage)
}

// LogWarnWithTrace logs a warning with trace information and caller details
func LogWarnWithTrace(ctx context.Context, logger *logrus.Logger, layer, message string, fields logrus.Fields) {
	entry, formattedMessage := traceEntry(ctx, logger, layer, message, fields)
	entry.Warn(formattedMessage)
}

// LogErrorWithTrace logs an error with trace information and caller details
func LogErrorWithTrace(ctx context.Context, logger *logrus.Logger, layer, message string, err error, fields logrus.Fields) {
	entry, formattedMessage := traceEntry(ctx, logger, layer, message, fields)
	entry.WithError(err).Error(formattedMessage)
}

// LogErrorWithTraceNotNotify logs an expected error (conflict, not found, validation).
// error.notify=false keeps it out of Datadog alerting.
func LogErrorWithTraceNotNotify(ctx context.Context, logger *logrus.Logger, layer, message string, err error, fields logrus.Fields) {
	entry, formattedMessage := traceEntry(ctx, logger, layer, message, fields)
	entry.WithError(err).WithField("error.notify", false).Warn(formattedMessage)
}

// LogSQL logs an executed statement in a GORM-like single line
func LogSQL(ctx context.Context, logger *logrus.Logger, query string, args []interface{}, duration time.Duration, rowsAffected int64, err error) {
	fields := logrus.Fields{
		"component":       "sql",
		"sql.query":       query,
		"sql.args":        fmt.Sprint(args...),
		"sql.duration_ms": float64(duration.Microseconds()) / 1000,
	}
	if rowsAffected >= 0 {
		fields["sql.rows_affected"] = rowsAffected
	}

	message := fmt.Sprintf("[%.3fms] [rows:%s] %s", float64(duration.Microseconds())/1000, rows(rowsAffected), compact(query))
	entry, formattedMessage := traceEntry(ctx, logger, "database", message, fields)
	if err != nil {
		entry.WithError(err).Error(formattedMessage)
		return
	}
	entry.Debug(formattedMessage)
}

// traceEntry must be called directly from an exported helper so that the
// reported caller is the helper's caller.
func traceEntry(ctx context.Context, logger *logrus.Logger, layer, message string, fields logrus.Fields) (*logrus.Entry, string) {
	if fields == nil {
		fields = logrus.Fields{}
	}

	var formattedMessage string
	if _, file, line, ok := runtime.Caller(2); ok {
		fields["file"] = file
		fields["line"] = line
		formattedMessage = fmt.Sprintf("[%s] %s:%d | %s", layer, file, line, message)
	} else {
		formattedMessage = fmt.Sprintf("[%s] %s", layer, message)
	}

	if span, ok := tracer.SpanFromContext(ctx); ok {
		spanContext := span.Context()
		fields["dd.trace_id"] = spanContext.TraceID()
		fields["dd.span_id"] = spanContext.SpanID()
	}

	fields["layer"] = layer

	return logger.WithFields(fields), formattedMessage
}

func rows(n int64) string {
	if n < 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
