package mysql

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/kanehiroyuu/user-role-api/internal/common/logging"
	"github.com/kanehiroyuu/user-role-api/internal/domain"
	"github.com/kanehiroyuu/user-role-api/internal/domain/entities"
	"github.com/kanehiroyuu/user-role-api/internal/infrastructure/database"
	"github.com/sirupsen/logrus"
)

// RoleRepository implements domain.RoleRepository for MySQL (without tracing)
type RoleRepository struct {
	db     database.Executor
	logger *logrus.Logger
}

// NewRoleRepository creates a new RoleRepository
func NewRoleRepository(db database.Executor, logger *logrus.Logger) *RoleRepository {
	return &RoleRepository{
		db:     db,
		logger: logger,
	}
}

// FindByID finds a role by ID
func (r *RoleRepository) FindByID(ctx context.Context, id string) (*entities.Role, bool, error) {
	return r.findOne(ctx, "SELECT id, name FROM roles WHERE id = ?", id)
}

// FindByName finds a role by name
func (r *RoleRepository) FindByName(ctx context.Context, name string) (*entities.Role, bool, error) {
	return r.findOne(ctx, "SELECT id, name FROM roles WHERE name = ?", name)
}

func (r *RoleRepository) findOne(ctx context.Context, query string, arg string) (*entities.Role, bool, error) {
	var role entities.Role
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&role.ID, &role.Name)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		r.logErrorWithTrace(ctx, "Failed to execute SQL query", err, logrus.Fields{
			"query": query,
			"arg":   arg,
		})
		return nil, false, domain.NewUnexpected("failed to query role", err)
	}
	return &role, true, nil
}

// ExistsByName reports whether a role with name exists
func (r *RoleRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	query := "SELECT COUNT(*) FROM roles WHERE name = ?"

	var n int
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&n); err != nil {
		r.logErrorWithTrace(ctx, "Failed to execute SQL query", err, logrus.Fields{
			"query":     query,
			"role.name": name,
		})
		return false, domain.NewUnexpected("failed to check role name", err)
	}
	return n > 0, nil
}

// Save inserts a new role. Roles are never updated.
func (r *RoleRepository) Save(ctx context.Context, role *entities.Role) error {
	query := "INSERT INTO roles (id, name) VALUES (?, ?)"

	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx, query, id, role.Name); err != nil {
		if database.ClassifyConstraint(err) == database.ConstraintUnique {
			return domain.NewConstraintViolation("role", "name", role.Name, err)
		}
		r.logErrorWithTrace(ctx, "Failed to execute SQL query", err, logrus.Fields{
			"query":     query,
			"role.name": role.Name,
		})
		return domain.NewUnexpected("failed to save role", err)
	}

	role.ID = id

	r.logWithTrace(ctx, "Role created in database", logrus.Fields{
		"role.id":   role.ID,
		"role.name": role.Name,
	})
	return nil
}

// DeleteByID removes a role unconditionally.
// The users foreign key still rejects the delete while the role is referenced.
func (r *RoleRepository) DeleteByID(ctx context.Context, id string) error {
	query := "DELETE FROM roles WHERE id = ?"

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return r.deleteError(ctx, query, id, err)
	}
	return nil
}

// DeleteIfUnused removes the role only when no user references it
func (r *RoleRepository) DeleteIfUnused(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM roles WHERE id = ?
		AND NOT EXISTS (SELECT 1 FROM users WHERE role_id = ?)`

	result, err := r.db.ExecContext(ctx, query, id, id)
	if err != nil {
		return false, r.deleteError(ctx, query, id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, domain.NewUnexpected("failed to read deleted rows", err)
	}

	if n > 0 {
		r.logWithTrace(ctx, "Role deleted from database", logrus.Fields{
			"role.id": id,
		})
	}
	return n > 0, nil
}

// CountUsers counts the users referencing roleID
func (r *RoleRepository) CountUsers(ctx context.Context, roleID string) (int, error) {
	return countUsersByRole(ctx, r.db, roleID)
}

func (r *RoleRepository) deleteError(ctx context.Context, query, id string, err error) error {
	if database.ClassifyConstraint(err) == database.ConstraintForeignKey {
		return domain.NewConstraintViolation("role", "id", id, err)
	}
	r.logErrorWithTrace(ctx, "Failed to execute SQL query", err, logrus.Fields{
		"query":   query,
		"role.id": id,
	})
	return domain.NewUnexpected("failed to delete role", err)
}

// logWithTrace logs a message with trace information
func (r *RoleRepository) logWithTrace(ctx context.Context, message string, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["component"] = "mysql"
	logging.LogWithTrace(ctx, r.logger, "repository", message, fields)
}

// logErrorWithTrace logs an error with trace information
func (r *RoleRepository) logErrorWithTrace(ctx context.Context, message string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["component"] = "mysql"
	logging.LogErrorWithTrace(ctx, r.logger, "repository", message, err, fields)
}
