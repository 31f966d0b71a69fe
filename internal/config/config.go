package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Database drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// Cache backends
const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

type App struct {
	// Datadog
	Env       string `envconfig:"DD_ENV" default:"local"`
	Service   string `envconfig:"DD_SERVICE" default:"user-role-api"`
	Version   string `envconfig:"DD_VERSION" default:"dev"`
	AgentHost string `envconfig:"DD_AGENT_HOST" default:"localhost"`
	StatsPort string `envconfig:"DD_DOGSTATSD_PORT" default:"8125"`
	Profiling bool   `envconfig:"DD_PROFILING_ENABLED" default:"true"`

	// DB
	DBDriver      string `envconfig:"DB_DRIVER" default:"mysql"`
	MySQLUser     string `envconfig:"MYSQL_USER" default:"root"`
	MySQLPassword string `envconfig:"MYSQL_PASSWORD"`
	MySQLHost     string `envconfig:"MYSQL_HOST" default:"localhost"`
	MySQLPort     string `envconfig:"MYSQL_PORT" default:"3306"`
	MySQLDatabase string `envconfig:"MYSQL_DATABASE" default:"app"`
	SQLiteDSN     string `envconfig:"SQLITE_DSN" default:"file:app.db?_foreign_keys=on"`

	// Cache
	CacheBackend string        `envconfig:"CACHE_BACKEND" default:"redis"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	RedisHost    string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort    string        `envconfig:"REDIS_PORT" default:"6379"`

	// Network
	HTTPPort    string   `envconfig:"HTTP_PORT" default:"8080"`
	CORSOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (App, error) {
	var c App
	if err := envconfig.Process("", &c); err != nil {
		return c, err
	}
	return c, c.validate()
}

func (c App) validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.CacheBackend {
	case CacheRedis, CacheMemory:
	default:
		return fmt.Errorf("config: unsupported CACHE_BACKEND %q", c.CacheBackend)
	}
	return nil
}

// DSN returns the data source name for the configured driver
func (c App) DSN() string {
	if c.DBDriver == DriverSQLite {
		return c.SQLiteDSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&clientFoundRows=true",
		c.MySQLUser,
		c.MySQLPassword,
		c.MySQLHost,
		c.MySQLPort,
		c.MySQLDatabase,
	)
}

// RedisAddr returns host:port of the Redis server
func (c App) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// StatsdAddr returns host:port of the DogStatsD agent
func (c App) StatsdAddr() string {
	return fmt.Sprintf("%s:%s", c.AgentHost, c.StatsPort)
}
