package handler

import (
	"context"
	"net/http"
	"time"

	appcontext "github.com/kanehiroyuu/user-role-api/internal/common/context"
	"github.com/kanehiroyuu/user-role-api/internal/common/logging"
	"github.com/kanehiroyuu/user-role-api/internal/presentation/interface-adapter/response"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// Dependency is a backing service the health check pings
type Dependency interface {
	PingContext(ctx context.Context) error
}

// DependencyFunc adapts a function to Dependency
type DependencyFunc func(ctx context.Context) error

// PingContext calls f
func (f DependencyFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

const healthTimeout = 2 * time.Second

// HealthHandler handles health check requests
type HealthHandler struct {
	deps map[string]Dependency
}

// NewHealthHandler creates a new HealthHandler probing deps by name
func NewHealthHandler(deps map[string]Dependency) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	span, ctx := tracer.StartSpanFromContext(c.Request().Context(), "handler.health_check")
	defer span.Finish()

	logger := appcontext.GetLogger(ctx)
	tagRequest(span, c)

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	status := make(map[string]string, len(h.deps))
	healthy := true
	for name, dep := range h.deps {
		if err := dep.PingContext(ctx); err != nil {
			healthy = false
			status[name] = "unavailable"
			logging.LogErrorWithTrace(ctx, logger, "handler", "Health check dependency failed", err, logrus.Fields{
				"dependency": name,
			})
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		span.SetTag("health.status", "unhealthy")
		problem := response.NewServiceUnavailableProblem("One or more dependencies are unavailable", c.Request().URL.Path)
		problem.Extra["dependencies"] = status
		return response.RespondProblemWithTrace(c, problem)
	}

	span.SetTag("health.status", "healthy")
	logging.LogWithTrace(ctx, logger, "handler", "Health check endpoint called", nil)

	return response.RespondSuccessWithTrace(c, http.StatusOK, status, "Service is healthy")
}
