// Package dbtest opens throwaway SQLite databases carrying the application schema.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/kanehiroyuu/user-role-api/internal/infrastructure/database"
)

// Open returns a migrated in-memory database private to t, closed on cleanup.
// Foreign keys are enforced.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	// Shared cache with a unique name keeps the database alive across
	// connections while isolating tests from each other
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000", uuid.NewString())
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// OpenLogging is Open wrapped in a LoggingDB with a quiet logger
func OpenLogging(t testing.TB) (*database.LoggingDB, *logrus.Logger) {
	t.Helper()

	logger := Logger()
	return database.NewLoggingDB(Open(t), logger), logger
}

// Logger returns a logger that discards its output
func Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
