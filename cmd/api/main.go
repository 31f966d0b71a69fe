package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	sqltrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/database/sql"
	redistrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/redis/go-redis.v9"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"

	"github.com/kanehiroyuu/user-role-api/internal/common/logging"
	"github.com/kanehiroyuu/user-role-api/internal/config"
	"github.com/kanehiroyuu/user-role-api/internal/infrastructure/database"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.New(cfg.LogLevel)

	// Start Datadog tracer (APM)
	// Spans are flushed to the agent on span.Finish(): Handler → UseCase → Repository
	tracer.Start(
		tracer.WithEnv(cfg.Env),
		tracer.WithService(cfg.Service),
		tracer.WithServiceVersion(cfg.Version),
		tracer.WithLogStartup(true),
	)
	defer tracer.Stop()

	// Start Datadog profiler (CPU and heap)
	if cfg.Profiling {
		err := profiler.Start(
			profiler.WithService(cfg.Service),
			profiler.WithEnv(cfg.Env),
			profiler.WithVersion(cfg.Version),
			profiler.WithProfileTypes(
				profiler.CPUProfile,
				profiler.HeapProfile,
			),
		)
		if err != nil {
			logger.WithError(err).Warn("Failed to start profiler")
		}
		defer profiler.Stop()
	}

	// Initialize DogStatsD client
	statsdClient, err := statsd.New(cfg.StatsdAddr(),
		statsd.WithTags([]string{
			"env:" + cfg.Env,
			"service:" + cfg.Service,
		}),
	)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize StatsD client")
	}
	defer statsdClient.Close()

	// Initialize the database with tracing
	db, err := sqltrace.Open(cfg.DBDriver, cfg.DSN(), sqltrace.WithServiceName(cfg.DBDriver))
	if err != nil {
		logger.WithError(err).Fatal("Failed to open database")
	}
	defer db.Close()
	if cfg.DBDriver == config.DriverSQLite {
		// One connection keeps an in-memory database alive and serializes writers.
		db.SetMaxOpenConns(1)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to ping database")
	}
	if err := database.Migrate(ctx, db); err != nil {
		logger.WithError(err).Fatal("Failed to migrate schema")
	}
	logger.WithField("db.driver", cfg.DBDriver).Info("Successfully connected to database")

	// Initialize Redis with tracing
	var redisClient redis.UniversalClient
	if cfg.CacheBackend == config.CacheRedis {
		redisClient = redistrace.NewClient(&redis.Options{
			Addr: cfg.RedisAddr(),
		}, redistrace.WithServiceName("redis"))
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		logger.Info("Successfully connected to Redis")
	}

	app := Setup(cfg, db, redisClient, statsdClient, logger)

	go func() {
		logger.WithField("port", cfg.HTTPPort).Info("Starting server")
		if err := app.Start(":" + cfg.HTTPPort); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
	logger.Info("Server stopped")
}
