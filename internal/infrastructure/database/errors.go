package database

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// Constraint is the class of integrity constraint a driver error reports
type Constraint int

const (
	ConstraintNone Constraint = iota
	ConstraintUnique
	ConstraintForeignKey
)

// MySQL server error numbers
const (
	mysqlDupEntry           = 1062
	mysqlRowIsReferenced    = 1451
	mysqlNoReferencedRow    = 1452
	mysqlRowIsReferencedOld = 1217
	mysqlNoReferencedRowOld = 1216
)

// ClassifyConstraint reports which integrity constraint err violated, for
// both the MySQL and the SQLite driver.
func ClassifyConstraint(err error) Constraint {
	if err == nil {
		return ConstraintNone
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDupEntry:
			return ConstraintUnique
		case mysqlRowIsReferenced, mysqlNoReferencedRow, mysqlRowIsReferencedOld, mysqlNoReferencedRowOld:
			return ConstraintForeignKey
		}
		return ConstraintNone
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ConstraintUnique
		case sqlite3.ErrConstraintForeignKey:
			return ConstraintForeignKey
		}
	}

	return ConstraintNone
}
