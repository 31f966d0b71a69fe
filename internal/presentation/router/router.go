package router

import (
	echotrace "github.com/DataDog/dd-trace-go/contrib/labstack/echo.v4/v2"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/kanehiroyuu/user-role-api/internal/presentation/interface-adapter/handler"
	"github.com/kanehiroyuu/user-role-api/internal/presentation/interface-adapter/validation"
	"github.com/kanehiroyuu/user-role-api/internal/presentation/middleware"
)

// Options configures the router
type Options struct {
	Service     string
	CORSOrigins []string
}

// Setup configures all routes with Datadog tracing
func Setup(userHandler *handler.UserHandler, healthHandler *handler.HealthHandler, logger *logrus.Logger, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	// Middleware order: trace span first so every log line carries its ids
	e.Use(echotrace.Middleware(echotrace.WithService(opts.Service)))
	e.Use(middleware.EchoLoggerMiddleware(logger))
	e.Use(middleware.EchoRecoveryMiddleware())
	e.Use(middleware.EchoCORSMiddleware(opts.CORSOrigins...))

	// Health endpoints
	e.GET("/", healthHandler.HealthCheck)
	e.GET("/health", healthHandler.HealthCheck)

	// User endpoints
	api := e.Group("/api")
	api.POST("/createNewUser", userHandler.CreateUser)
	api.GET("/users", userHandler.GetUser)
	api.PUT("/userDetailsUpdate", userHandler.UpdateUser)
	api.DELETE("/users", userHandler.DeleteUser)

	return e
}
