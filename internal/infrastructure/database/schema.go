package database

import (
	"context"
	"fmt"
)

// schema is portable between MySQL (InnoDB) and SQLite.
// MySQL rejects multi-statement strings by default, so each statement runs alone.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS roles (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(50) NOT NULL,
		CONSTRAINT uq_roles_name UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		full_name VARCHAR(255) NOT NULL,
		phone_number VARCHAR(16) NOT NULL,
		avatar_url VARCHAR(2048) NULL,
		role_id VARCHAR(36) NOT NULL,
		CONSTRAINT uq_users_phone_number UNIQUE (phone_number),
		CONSTRAINT fk_users_role FOREIGN KEY (role_id) REFERENCES roles (id)
	)`,
}

// Migrate creates the users and roles tables when they do not exist
func Migrate(ctx context.Context, db Executor) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
