package main

import (
	"context"
	"database/sql"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/kanehiroyuu/user-role-api/internal/config"
	"github.com/kanehiroyuu/user-role-api/internal/infrastructure/database"
	"github.com/kanehiroyuu/user-role-api/internal/infrastructure/memory"
	"github.com/kanehiroyuu/user-role-api/internal/infrastructure/mysql"
	infraredis "github.com/kanehiroyuu/user-role-api/internal/infrastructure/redis"
	"github.com/kanehiroyuu/user-role-api/internal/infrastructure/tracing"
	"github.com/kanehiroyuu/user-role-api/internal/presentation/interface-adapter/handler"
	"github.com/kanehiroyuu/user-role-api/internal/presentation/router"
	"github.com/kanehiroyuu/user-role-api/internal/usecase"
	"github.com/kanehiroyuu/user-role-api/internal/usecase/cache"
	"github.com/kanehiroyuu/user-role-api/internal/usecase/port"
)

// Setup wires gateways, cache, managers and handlers into the router.
// redisClient is nil when the memory cache backend is configured.
func Setup(cfg config.App, db *sql.DB, redisClient redis.UniversalClient, metrics statsd.ClientInterface, logger *logrus.Logger) *echo.Echo {
	executor := database.NewLoggingDB(db, logger)
	userRepo := tracing.NewUserRepositoryTracer(mysql.NewUserRepository(executor, logger), cfg.DBDriver)
	roleRepo := tracing.NewRoleRepositoryTracer(mysql.NewRoleRepository(executor, logger), cfg.DBDriver)

	store := setupCacheStore(cfg, redisClient, metrics)
	c := cache.New(store, logger)

	roles := usecase.NewRoleUseCase(logger, roleRepo, c)
	users := usecase.NewUserUseCase(logger, userRepo, roles, c)

	deps := map[string]handler.Dependency{"database": db}
	if redisClient != nil {
		deps["redis"] = handler.DependencyFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	return router.Setup(
		handler.NewUserHandler(users),
		handler.NewHealthHandler(deps),
		logger,
		router.Options{
			Service:     cfg.Service,
			CORSOrigins: cfg.CORSOrigins,
		},
	)
}

func setupCacheStore(cfg config.App, redisClient redis.UniversalClient, metrics statsd.ClientInterface) port.CacheRepository {
	if cfg.CacheBackend == config.CacheMemory || redisClient == nil {
		return tracing.NewCacheRepositoryTracer(memory.NewCacheRepository(), config.CacheMemory, 0, metrics)
	}
	base := infraredis.NewCacheRepository(redisClient, cfg.Service, cfg.CacheTTL)
	return tracing.NewCacheRepositoryTracer(base, config.CacheRedis, base.GetTTL(), metrics)
}
