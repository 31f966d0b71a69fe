package middleware

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// EchoCORSMiddleware creates a CORS middleware with Datadog tracing.
// No origins means any origin.
func EchoCORSMiddleware(origins ...string) echo.MiddlewareFunc {
	cfg := echomiddleware.DefaultCORSConfig
	if len(origins) > 0 {
		cfg.AllowOrigins = origins
	}
	corsHandler := echomiddleware.CORSWithConfig(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		handler := corsHandler(next)
		return func(c echo.Context) error {
			span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "middleware.cors")
			defer span.Finish()

			c.SetRequest(c.Request().WithContext(ctx))
			return handler(c)
		}
	}
}
