package tracing

import (
	"context"

	"github.com/kanehiroyuu/user-role-api/internal/domain"
	"github.com/kanehiroyuu/user-role-api/internal/domain/entities"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// RoleRepositoryTracer wraps a RoleRepository with tracing
type RoleRepositoryTracer struct {
	repo   domain.RoleRepository
	dbType string
}

// NewRoleRepositoryTracer creates a new tracing decorator for RoleRepository
func NewRoleRepositoryTracer(repo domain.RoleRepository, dbType string) domain.RoleRepository {
	return &RoleRepositoryTracer{
		repo:   repo,
		dbType: dbType,
	}
}

// FindByID wraps the FindByID method with tracing
func (r *RoleRepositoryTracer) FindByID(ctx context.Context, id string) (*entities.Role, bool, error) {
	return r.find(ctx, "find_role_by_id", "role.id", id, r.repo.FindByID)
}

// FindByName wraps the FindByName method with tracing
func (r *RoleRepositoryTracer) FindByName(ctx context.Context, name string) (*entities.Role, bool, error) {
	return r.find(ctx, "find_role_by_name", "role.name", name, r.repo.FindByName)
}

func (r *RoleRepositoryTracer) find(ctx context.Context, op, tag, arg string, fn func(context.Context, string) (*entities.Role, bool, error)) (*entities.Role, bool, error) {
	var (
		role  *entities.Role
		found bool
	)
	err := TraceOperation(ctx, r.dbType+"."+op, dbTags(r.dbType, "SELECT", map[string]interface{}{
		tag: arg,
	}), func(ctx context.Context, span tracer.Span) error {
		var err error
		role, found, err = fn(ctx, arg)
		span.SetTag("query.found", found)
		return err
	})
	return role, found, err
}

// ExistsByName wraps the ExistsByName method with tracing
func (r *RoleRepositoryTracer) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := TraceOperation(ctx, r.dbType+".exists_role_by_name", dbTags(r.dbType, "SELECT", map[string]interface{}{
		"role.name": name,
	}), func(ctx context.Context, span tracer.Span) error {
		var err error
		exists, err = r.repo.ExistsByName(ctx, name)
		span.SetTag("query.found", exists)
		return err
	})
	return exists, err
}

// Save wraps the Save method with tracing
func (r *RoleRepositoryTracer) Save(ctx context.Context, role *entities.Role) error {
	return TraceOperation(ctx, r.dbType+".create_role", dbTags(r.dbType, "INSERT", map[string]interface{}{
		"role.name": role.Name,
	}), func(ctx context.Context, span tracer.Span) error {
		if err := r.repo.Save(ctx, role); err != nil {
			return err
		}
		span.SetTag("role.id", role.ID)
		return nil
	})
}

// DeleteByID wraps the DeleteByID method with tracing
func (r *RoleRepositoryTracer) DeleteByID(ctx context.Context, id string) error {
	return TraceOperation(ctx, r.dbType+".delete_role", dbTags(r.dbType, "DELETE", map[string]interface{}{
		"role.id": id,
	}), func(ctx context.Context, span tracer.Span) error {
		return r.repo.DeleteByID(ctx, id)
	})
}

// DeleteIfUnused wraps the DeleteIfUnused method with tracing
func (r *RoleRepositoryTracer) DeleteIfUnused(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := TraceOperation(ctx, r.dbType+".delete_role_if_unused", dbTags(r.dbType, "DELETE", map[string]interface{}{
		"role.id": id,
	}), func(ctx context.Context, span tracer.Span) error {
		var err error
		deleted, err = r.repo.DeleteIfUnused(ctx, id)
		span.SetTag("role.deleted", deleted)
		return err
	})
	return deleted, err
}

// CountUsers wraps the CountUsers method with tracing
func (r *RoleRepositoryTracer) CountUsers(ctx context.Context, roleID string) (int, error) {
	var n int
	err := TraceOperation(ctx, r.dbType+".count_role_users", dbTags(r.dbType, "SELECT", map[string]interface{}{
		"role.id": roleID,
	}), func(ctx context.Context, span tracer.Span) error {
		var err error
		n, err = r.repo.CountUsers(ctx, roleID)
		span.SetTag("users.count", n)
		return err
	})
	return n, err
}
