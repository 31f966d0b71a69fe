package context

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	loggerKey contextKey = "logger"
)

// SetLogger sets logger in context
func SetLogger(ctx context.Context, logger *logrus.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLogger retrieves logger from context
func GetLogger(ctx context.Context) *logrus.Logger {
	if logger, ok := ctx.Value(loggerKey).(*logrus.Logger); ok {
		return logger
	}
	return logrus.StandardLogger() // fallback
}
