package usecase

import (
	"context"
	"errors"

	"github.com/kanehiroyuu/user-role-api/internal/common/logging"
	"github.com/kanehiroyuu/user-role-api/internal/domain"
	"github.com/kanehiroyuu/user-role-api/internal/domain/entities"
	"github.com/kanehiroyuu/user-role-api/internal/usecase/cache"
	"github.com/kanehiroyuu/user-role-api/internal/usecase/port"
	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// RoleUseCase owns role identity: name resolution, lazy creation and
// deletion of roles that no user references.
type RoleUseCase struct {
	Logger port.Logger
	RRole  domain.RoleRepository
	Cache  *cache.Cache
}

// NewRoleUseCase creates a new RoleUseCase
func NewRoleUseCase(logger port.Logger, roles domain.RoleRepository, c *cache.Cache) *RoleUseCase {
	return &RoleUseCase{
		Logger: logger,
		RRole:  roles,
		Cache:  c,
	}
}

// FindOrCreateRole returns the role named name, creating it when absent.
// Losing a concurrent creation race fails with a DuplicateRole error.
func (uc *RoleUseCase) FindOrCreateRole(ctx context.Context, name string) (*entities.Role, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.find_or_create_role")
	defer span.Finish()

	span.SetTag("role.name", name)

	role, err := cache.GetOrCompute(ctx, uc.Cache, port.SegmentRoles, name, func(ctx context.Context) (*entities.Role, error) {
		role, found, err := uc.RRole.FindByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if found {
			return role, nil
		}
		return uc.createRole(ctx, name)
	})
	if err != nil {
		markSpanError(span, err)
		return nil, err
	}

	span.SetTag("role.id", role.ID)
	return role, nil
}

func (uc *RoleUseCase) createRole(ctx context.Context, name string) (*entities.Role, error) {
	exists, err := uc.RRole.ExistsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.NewDuplicateRole(name, nil)
	}

	role := &entities.Role{Name: name}
	if err := uc.RRole.Save(ctx, role); err != nil {
		if errors.Is(err, domain.ErrConstraintViolation) {
			return nil, domain.NewDuplicateRole(name, err)
		}
		return nil, err
	}

	if err := uc.Cache.Invalidate(ctx, port.SegmentRoles, name); err != nil {
		return nil, err
	}

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "Role created", logrus.Fields{
		"role.id":   role.ID,
		"role.name": role.Name,
	})
	return role, nil
}

// FindRoleByName returns the role named name or a NotFound error
func (uc *RoleUseCase) FindRoleByName(ctx context.Context, name string) (*entities.Role, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.find_role_by_name")
	defer span.Finish()

	span.SetTag("role.name", name)

	role, err := cache.GetOrCompute(ctx, uc.Cache, port.SegmentRoles, name, func(ctx context.Context) (*entities.Role, error) {
		role, found, err := uc.RRole.FindByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, domain.NewNotFound("role", "name", name)
		}
		return role, nil
	})
	if err != nil {
		markSpanError(span, err)
		return nil, err
	}
	return role, nil
}

// ExistsByRoleName is an uncached existence check
func (uc *RoleUseCase) ExistsByRoleName(ctx context.Context, name string) (bool, error) {
	return uc.RRole.ExistsByName(ctx, name)
}

// IsRoleInUse reports whether any user references roleID. Never cached.
func (uc *RoleUseCase) IsRoleInUse(ctx context.Context, roleID string) (bool, error) {
	n, err := uc.RRole.CountUsers(ctx, roleID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteRoleIfNotInUse deletes the role unless a user references it, in
// which case it fails with a RoleInUse error.
func (uc *RoleUseCase) DeleteRoleIfNotInUse(ctx context.Context, roleID string) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.delete_role_if_not_in_use")
	defer span.Finish()

	span.SetTag("role.id", roleID)

	err := uc.deleteRoleIfNotInUse(ctx, roleID)
	if err != nil {
		markSpanError(span, err)
	}
	return err
}

func (uc *RoleUseCase) deleteRoleIfNotInUse(ctx context.Context, roleID string) error {
	role, found, err := uc.RRole.FindByID(ctx, roleID)
	if err != nil {
		return err
	}
	if !found {
		return domain.NewNotFound("role", "id", roleID)
	}

	inUse, err := uc.IsRoleInUse(ctx, roleID)
	if err != nil {
		return err
	}
	if inUse {
		return domain.NewRoleInUse(roleID, nil)
	}

	deleted, err := uc.RRole.DeleteIfUnused(ctx, roleID)
	if err != nil {
		if errors.Is(err, domain.ErrConstraintViolation) {
			return domain.NewRoleInUse(roleID, err)
		}
		return err
	}
	if !deleted {
		// Either a user picked the role up since the check, or another caller removed it.
		_, stillExists, err := uc.RRole.FindByID(ctx, roleID)
		if err != nil {
			return err
		}
		if stillExists {
			return domain.NewRoleInUse(roleID, nil)
		}
	}

	if err := uc.Cache.Invalidate(ctx, port.SegmentRoles, role.Name); err != nil {
		return err
	}

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "Role deleted", logrus.Fields{
		"role.id":   role.ID,
		"role.name": role.Name,
	})
	return nil
}

func markSpanError(span tracer.Span, err error) {
	span.SetTag("error", true)
	span.SetTag("error.msg", err.Error())
	span.SetTag("error.kind", string(domain.KindOf(err)))
}
