package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/kanehiroyuu/user-role-api/internal/common/logging"
	"github.com/sirupsen/logrus"
)

// Executor is the subset of *sql.DB the repositories depend on
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// unknownRows marks statements whose row count is not known when they return
const unknownRows int64 = -1

// LoggingDB is an Executor over *sql.DB that writes one debug entry per
// statement with its arguments, duration and, for writes, rows affected.
// Failed statements are logged at error level.
type LoggingDB struct {
	*sql.DB
	logger *logrus.Logger
}

var _ Executor = (*LoggingDB)(nil)

// NewLoggingDB wraps db
func NewLoggingDB(db *sql.DB, logger *logrus.Logger) *LoggingDB {
	return &LoggingDB{DB: db, logger: logger}
}

func (db *LoggingDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := db.DB.ExecContext(ctx, query, args...)

	rows := unknownRows
	if err == nil {
		if n, rerr := result.RowsAffected(); rerr == nil {
			rows = n
		}
	}
	db.log(ctx, query, args, start, rows, err)
	return result, err
}

func (db *LoggingDB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.DB.QueryContext(ctx, query, args...)
	db.log(ctx, query, args, start, unknownRows, err)
	return rows, err
}

// QueryRowContext logs without an error; row errors only surface on Scan
func (db *LoggingDB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := db.DB.QueryRowContext(ctx, query, args...)
	db.log(ctx, query, args, start, unknownRows, nil)
	return row
}

func (db *LoggingDB) log(ctx context.Context, query string, args []interface{}, start time.Time, rows int64, err error) {
	logging.LogSQL(ctx, db.logger, query, args, time.Since(start), rows, err)
}
