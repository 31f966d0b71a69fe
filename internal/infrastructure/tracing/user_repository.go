package tracing

import (
	"context"

	"github.com/kanehiroyuu/user-role-api/internal/domain"
	"github.com/kanehiroyuu/user-role-api/internal/domain/entities"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// UserRepositoryTracer wraps a UserRepository with tracing
type UserRepositoryTracer struct {
	repo   domain.UserRepository
	dbType string
}

// NewUserRepositoryTracer creates a new tracing decorator for UserRepository
func NewUserRepositoryTracer(repo domain.UserRepository, dbType string) domain.UserRepository {
	return &UserRepositoryTracer{
		repo:   repo,
		dbType: dbType,
	}
}

// FindByID wraps the FindByID method with tracing
func (r *UserRepositoryTracer) FindByID(ctx context.Context, id string) (*entities.User, bool, error) {
	return r.find(ctx, "find_user_by_id", id, r.repo.FindByID)
}

// FindWithRoleByID wraps the FindWithRoleByID method with tracing
func (r *UserRepositoryTracer) FindWithRoleByID(ctx context.Context, id string) (*entities.User, bool, error) {
	return r.find(ctx, "find_user_with_role_by_id", id, r.repo.FindWithRoleByID)
}

func (r *UserRepositoryTracer) find(ctx context.Context, op, id string, fn func(context.Context, string) (*entities.User, bool, error)) (*entities.User, bool, error) {
	var (
		user  *entities.User
		found bool
	)
	err := TraceOperation(ctx, r.dbType+"."+op, r.tags("SELECT", map[string]interface{}{
		"user.id": id,
	}), func(ctx context.Context, span tracer.Span) error {
		var err error
		user, found, err = fn(ctx, id)
		span.SetTag("query.found", found)
		return err
	})
	return user, found, err
}

// ExistsByPhoneNumber wraps the ExistsByPhoneNumber method with tracing
func (r *UserRepositoryTracer) ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := TraceOperation(ctx, r.dbType+".exists_user_by_phone_number", r.tags("SELECT", map[string]interface{}{
		"user.phone_number": phone,
	}), func(ctx context.Context, span tracer.Span) error {
		var err error
		exists, err = r.repo.ExistsByPhoneNumber(ctx, phone)
		span.SetTag("query.found", exists)
		return err
	})
	return exists, err
}

// Save wraps the Save method with tracing
func (r *UserRepositoryTracer) Save(ctx context.Context, user *entities.User) error {
	op, name := "UPDATE", "update_user"
	if user.ID == "" {
		op, name = "INSERT", "create_user"
	}
	return TraceOperation(ctx, r.dbType+"."+name, r.tags(op, map[string]interface{}{
		"user.phone_number": user.PhoneNumber,
		"role.id":           user.RoleID(),
	}), func(ctx context.Context, span tracer.Span) error {
		if err := r.repo.Save(ctx, user); err != nil {
			return err
		}
		span.SetTag("user.id", user.ID)
		return nil
	})
}

// Delete wraps the Delete method with tracing
func (r *UserRepositoryTracer) Delete(ctx context.Context, id string) error {
	return TraceOperation(ctx, r.dbType+".delete_user", r.tags("DELETE", map[string]interface{}{
		"user.id": id,
	}), func(ctx context.Context, span tracer.Span) error {
		return r.repo.Delete(ctx, id)
	})
}

// CountByRoleID wraps the CountByRoleID method with tracing
func (r *UserRepositoryTracer) CountByRoleID(ctx context.Context, roleID string) (int, error) {
	var n int
	err := TraceOperation(ctx, r.dbType+".count_users_by_role", r.tags("SELECT", map[string]interface{}{
		"role.id": roleID,
	}), func(ctx context.Context, span tracer.Span) error {
		var err error
		n, err = r.repo.CountByRoleID(ctx, roleID)
		span.SetTag("users.count", n)
		return err
	})
	return n, err
}

func (r *UserRepositoryTracer) tags(op string, extra map[string]interface{}) map[string]interface{} {
	return dbTags(r.dbType, op, extra)
}

func dbTags(dbType, op string, extra map[string]interface{}) map[string]interface{} {
	tags := map[string]interface{}{
		"db.type":      dbType,
		"db.operation": op,
	}
	for k, v := range extra {
		tags[k] = v
	}
	return tags
}
