package domain

import (
	"context"

	"github.com/kanehiroyuu/user-role-api/internal/domain/entities"
)

// UserRepository is the storage gateway for users.
// Lookups report absence through the boolean result, never through an error.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*entities.User, bool, error)
	FindWithRoleByID(ctx context.Context, id string) (*entities.User, bool, error)
	ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error)
	// Save inserts the user when ID is empty and updates it otherwise.
	Save(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, id string) error
	CountByRoleID(ctx context.Context, roleID string) (int, error)
}

// RoleRepository is the storage gateway for roles
type RoleRepository interface {
	FindByID(ctx context.Context, id string) (*entities.Role, bool, error)
	FindByName(ctx context.Context, name string) (*entities.Role, bool, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Save(ctx context.Context, role *entities.Role) error
	DeleteByID(ctx context.Context, id string) error
	// DeleteIfUnused deletes the role only when no user references it, as one statement.
	DeleteIfUnused(ctx context.Context, id string) (bool, error)
	CountUsers(ctx context.Context, roleID string) (int, error)
}
