package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/kanehiroyuu/user-role-api/internal/common/logging"
	"github.com/kanehiroyuu/user-role-api/internal/domain"
	"github.com/kanehiroyuu/user-role-api/internal/domain/entities"
	"github.com/kanehiroyuu/user-role-api/internal/infrastructure/database"
	"github.com/sirupsen/logrus"
)

// UserRepository implements domain.UserRepository for MySQL (without tracing)
type UserRepository struct {
	db     database.Executor
	logger *logrus.Logger
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db database.Executor, logger *logrus.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// FindByID finds a user by ID. Only the role id is populated.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*entities.User, bool, error) {
	query := "SELECT id, full_name, phone_number, avatar_url, role_id FROM users WHERE id = ?"

	var (
		user   entities.User
		avatar sql.NullString
		roleID string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.FullName,
		&user.PhoneNumber,
		&avatar,
		&roleID,
	)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		r.logErrorWithTrace(ctx, "Failed to execute SQL query", err, logrus.Fields{
			"query":   query,
			"user.id": id,
		})
		return nil, false, domain.NewUnexpected("failed to query user", err)
	}

	user.AvatarURL = avatar.String
	user.Role = &entities.Role{ID: roleID}
	return &user, true, nil
}

// FindWithRoleByID finds a user by ID together with its role
func (r *UserRepository) FindWithRoleByID(ctx context.Context, id string) (*entities.User, bool, error) {
	query := `SELECT u.id, u.full_name, u.phone_number, u.avatar_url, r.id, r.name
		FROM users u JOIN roles r ON r.id = u.role_id
		WHERE u.id = ?`

	var (
		user   entities.User
		role   entities.Role
		avatar sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.FullName,
		&user.PhoneNumber,
		&avatar,
		&role.ID,
		&role.Name,
	)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		r.logErrorWithTrace(ctx, "Failed to execute SQL query", err, logrus.Fields{
			"query":   query,
			"user.id": id,
		})
		return nil, false, domain.NewUnexpected("failed to query user", err)
	}

	user.AvatarURL = avatar.String
	user.Role = &role
	return &user, true, nil
}

// ExistsByPhoneNumber reports whether any user owns phone
func (r *UserRepository) ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error) {
	query := "SELECT COUNT(*) FROM users WHERE phone_number = ?"

	var n int
	if err := r.db.QueryRowContext(ctx, query, phone).Scan(&n); err != nil {
		r.logErrorWithTrace(ctx, "Failed to execute SQL query", err, logrus.Fields{
			"query": query,
		})
		return false, domain.NewUnexpected("failed to check phone number", err)
	}
	return n > 0, nil
}

// Save inserts a new user (ID empty) or updates an existing one.
// Updating a user that no longer exists fails with NotFound.
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	if user.ID == "" {
		return r.insert(ctx, user)
	}
	return r.update(ctx, user)
}

func (r *UserRepository) insert(ctx context.Context, user *entities.User) error {
	query := "INSERT INTO users (id, full_name, phone_number, avatar_url, role_id) VALUES (?, ?, ?, ?, ?)"

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, query, id, user.FullName, user.PhoneNumber, nullable(user.AvatarURL), user.RoleID())
	if err != nil {
		return r.writeError(ctx, query, user, err)
	}

	user.ID = id

	r.logWithTrace(ctx, "User created in database", logrus.Fields{
		"user.id": user.ID,
	})
	return nil
}

func (r *UserRepository) update(ctx context.Context, user *entities.User) error {
	query := "UPDATE users SET full_name = ?, phone_number = ?, avatar_url = ?, role_id = ? WHERE id = ?"

	// Rows affected counts matched rows: clientFoundRows on MySQL, always on SQLite.
	result, err := r.db.ExecContext(ctx, query, user.FullName, user.PhoneNumber, nullable(user.AvatarURL), user.RoleID(), user.ID)
	if err != nil {
		return r.writeError(ctx, query, user, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		r.logErrorWithTrace(ctx, "Failed to read rows affected", err, logrus.Fields{
			"query":   query,
			"user.id": user.ID,
		})
		return domain.NewUnexpected("failed to save user", err)
	}
	if n == 0 {
		return domain.NewNotFound("user", "id", user.ID)
	}

	r.logWithTrace(ctx, "User updated in database", logrus.Fields{
		"user.id": user.ID,
	})
	return nil
}

// Delete removes a user by ID
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := "DELETE FROM users WHERE id = ?"

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		r.logErrorWithTrace(ctx, "Failed to execute SQL query", err, logrus.Fields{
			"query":   query,
			"user.id": id,
		})
		return domain.NewUnexpected("failed to delete user", err)
	}
	return nil
}

// CountByRoleID counts the users referencing roleID
func (r *UserRepository) CountByRoleID(ctx context.Context, roleID string) (int, error) {
	return countUsersByRole(ctx, r.db, roleID)
}

func (r *UserRepository) writeError(ctx context.Context, query string, user *entities.User, err error) error {
	switch database.ClassifyConstraint(err) {
	case database.ConstraintUnique:
		return domain.NewConstraintViolation("user", "phone_number", user.PhoneNumber, err)
	case database.ConstraintForeignKey:
		return domain.NewConstraintViolation("user", "role_id", user.RoleID(), err)
	}

	r.logErrorWithTrace(ctx, "Failed to execute SQL query", err, logrus.Fields{
		"query":   query,
		"user.id": user.ID,
	})
	return domain.NewUnexpected("failed to save user", err)
}

// logWithTrace logs a message with trace information
func (r *UserRepository) logWithTrace(ctx context.Context, message string, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["component"] = "mysql"
	logging.LogWithTrace(ctx, r.logger, "repository", message, fields)
}

// logErrorWithTrace logs an error with trace information
func (r *UserRepository) logErrorWithTrace(ctx context.Context, message string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["component"] = "mysql"
	logging.LogErrorWithTrace(ctx, r.logger, "repository", message, err, fields)
}

func countUsersByRole(ctx context.Context, db database.Executor, roleID string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role_id = ?", roleID).Scan(&n); err != nil {
		return 0, domain.NewUnexpected("failed to count role users", fmt.Errorf("role %s: %w", roleID, err))
	}
	return n, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
