package middleware

import (
	"time"

	appcontext "github.com/kanehiroyuu/user-role-api/internal/common/context"
	"github.com/kanehiroyuu/user-role-api/internal/common/logging"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// EchoLoggerMiddleware sets logger in context and writes one access log line per request
func EchoLoggerMiddleware(logger *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := appcontext.SetLogger(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := logrus.Fields{
				"http.method":      c.Request().Method,
				"http.url":         c.Request().URL.Path,
				"http.status_code": c.Response().Status,
				"duration_ms":      float64(time.Since(start).Microseconds()) / 1000,
			}
			if c.Response().Status >= 500 {
				logging.LogWarnWithTrace(c.Request().Context(), logger, "middleware", "Request completed with server error", fields)
			} else {
				logging.LogWithTrace(c.Request().Context(), logger, "middleware", "Request completed", fields)
			}
			return nil
		}
	}
}
