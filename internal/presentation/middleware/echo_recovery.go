package middleware

import (
	"fmt"
	"runtime/debug"
	"strconv"

	appcontext "github.com/kanehiroyuu/user-role-api/internal/common/context"
	"github.com/kanehiroyuu/user-role-api/internal/common/logging"
	"github.com/kanehiroyuu/user-role-api/internal/presentation/interface-adapter/response"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// EchoRecoveryMiddleware recovers from panics and logs them with trace information
func EchoRecoveryMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (returnErr error) {
			span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "middleware.recovery")
			defer span.Finish()

			c.SetRequest(c.Request().WithContext(ctx))

			// Extract trace info BEFORE any panic can occur
			spanContext := span.Context()
			traceID := strconv.FormatUint(spanContext.TraceID(), 10)
			spanID := strconv.FormatUint(spanContext.SpanID(), 10)

			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}

				logger := appcontext.GetLogger(ctx)
				stackTrace := string(debug.Stack())
				panicErr := fmt.Errorf("panic recovered: %v", recovered)

				logging.LogErrorWithTrace(ctx, logger, "middleware", "Panic recovered", panicErr, logrus.Fields{
					"panic.value":       fmt.Sprintf("%v", recovered),
					"panic.stack_trace": stackTrace,
					"http.method":       c.Request().Method,
					"http.url":          c.Request().URL.Path,
					"dd.trace_id":       traceID,
					"dd.span_id":        spanID,
				})

				span.SetTag("error", true)
				span.SetTag("error.type", "panic")
				span.SetTag("error.msg", panicErr.Error())
				span.SetTag("error.stack", stackTrace)
				span.SetTag("error.notify", true)

				if c.Response().Committed {
					return
				}
				returnErr = response.RespondProblemWithTrace(c, response.NewInternalErrorProblem(
					"An unexpected error occurred",
					c.Request().URL.Path,
					true,
				))
			}()

			return next(c)
		}
	}
}
