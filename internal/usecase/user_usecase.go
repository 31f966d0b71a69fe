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

// CreateUserInput is a validated create request
type CreateUserInput struct {
	FullName    string
	PhoneNumber string
	AvatarURL   string
	RoleName    string
}

// UpdateUserInput is a validated partial update. Nil fields are left untouched.
type UpdateUserInput struct {
	ID          string
	FullName    *string
	PhoneNumber *string
	AvatarURL   *string
	RoleName    *string
}

// UserUseCase implements user business logic
type UserUseCase struct {
	Logger port.Logger
	RUser  domain.UserRepository
	Roles  *RoleUseCase
	Cache  *cache.Cache
}

// NewUserUseCase creates a new UserUseCase
func NewUserUseCase(logger port.Logger, users domain.UserRepository, roles *RoleUseCase, c *cache.Cache) *UserUseCase {
	return &UserUseCase{
		Logger: logger,
		RUser:  users,
		Roles:  roles,
		Cache:  c,
	}
}

// CreateUser creates a new user with a unique phone number
func (uc *UserUseCase) CreateUser(ctx context.Context, in CreateUserInput) (*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.create_user")
	defer span.Finish()

	span.SetTag("user.phone_number", in.PhoneNumber)
	span.SetTag("role.name", in.RoleName)

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "Creating user", logrus.Fields{
		"user.phone_number": in.PhoneNumber,
		"role.name":         in.RoleName,
	})

	exists, err := uc.RUser.ExistsByPhoneNumber(ctx, in.PhoneNumber)
	if err != nil {
		markSpanError(span, err)
		return nil, err
	}
	if exists {
		err := domain.NewDuplicatePhoneNumber(in.PhoneNumber, nil)
		markSpanError(span, err)
		return nil, err
	}

	role, err := uc.resolveRole(ctx, in.RoleName)
	if err != nil {
		markSpanError(span, err)
		return nil, err
	}

	user := &entities.User{
		FullName:    in.FullName,
		PhoneNumber: in.PhoneNumber,
		AvatarURL:   in.AvatarURL,
		Role:        role,
	}
	if err := uc.save(ctx, user); err != nil {
		markSpanError(span, err)
		return nil, err
	}

	// A new user changes existence-based reads, so the whole segment goes.
	if err := uc.Cache.InvalidateSegment(ctx, port.SegmentUsers); err != nil {
		markSpanError(span, err)
		return nil, err
	}

	span.SetTag("user.id", user.ID)
	logging.LogWithTrace(ctx, uc.Logger, "usecase", "User created", logrus.Fields{
		"user.id": user.ID,
		"role.id": user.Role.ID,
	})

	return user, nil
}

// GetUser retrieves a user with its role by ID with caching
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.get_user")
	defer span.Finish()

	span.SetTag("user.id", id)

	user, err := cache.GetOrCompute(ctx, uc.Cache, port.SegmentUsers, id, func(ctx context.Context) (*entities.User, error) {
		user, found, err := uc.RUser.FindWithRoleByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, domain.NewNotFound("user", "id", id)
		}
		return user, nil
	})
	if err != nil {
		markSpanError(span, err)
		return nil, err
	}

	return user, nil
}

// UpdateUser applies a partial update. A role change never deletes the
// previous role, even when it becomes orphaned.
func (uc *UserUseCase) UpdateUser(ctx context.Context, in UpdateUserInput) (*entities.User, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.update_user")
	defer span.Finish()

	span.SetTag("user.id", in.ID)

	user, err := uc.updateUser(ctx, in)
	if err != nil {
		markSpanError(span, err)
		return nil, err
	}

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "User updated", logrus.Fields{
		"user.id": user.ID,
		"role.id": user.Role.ID,
	})
	return user, nil
}

func (uc *UserUseCase) updateUser(ctx context.Context, in UpdateUserInput) (*entities.User, error) {
	user, found, err := uc.RUser.FindWithRoleByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.NewNotFound("user", "id", in.ID)
	}

	if in.PhoneNumber != nil && *in.PhoneNumber != user.PhoneNumber {
		exists, err := uc.RUser.ExistsByPhoneNumber(ctx, *in.PhoneNumber)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.NewDuplicatePhoneNumber(*in.PhoneNumber, nil)
		}
	}

	if in.FullName != nil {
		user.FullName = *in.FullName
	}
	if in.PhoneNumber != nil {
		user.PhoneNumber = *in.PhoneNumber
	}
	if in.AvatarURL != nil {
		user.AvatarURL = *in.AvatarURL
	}
	if in.RoleName != nil && *in.RoleName != user.Role.Name {
		role, err := uc.resolveRole(ctx, *in.RoleName)
		if err != nil {
			return nil, err
		}
		user.Role = role
	}

	if err := uc.save(ctx, user); err != nil {
		return nil, err
	}

	if err := uc.Cache.InvalidateSegment(ctx, port.SegmentUsers); err != nil {
		return nil, err
	}
	if err := uc.Cache.InvalidateSegment(ctx, port.SegmentRoles); err != nil {
		return nil, err
	}

	return user, nil
}

// DeleteUser deletes a user, then removes its role if no other user references it
func (uc *UserUseCase) DeleteUser(ctx context.Context, id string) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "usecase.delete_user")
	defer span.Finish()

	span.SetTag("user.id", id)

	if err := uc.deleteUser(ctx, id); err != nil {
		markSpanError(span, err)
		return err
	}
	return nil
}

func (uc *UserUseCase) deleteUser(ctx context.Context, id string) error {
	user, found, err := uc.RUser.FindWithRoleByID(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return domain.NewNotFound("user", "id", id)
	}

	if err := uc.RUser.Delete(ctx, id); err != nil {
		return err
	}
	if err := uc.Cache.InvalidateSegment(ctx, port.SegmentUsers); err != nil {
		return err
	}

	logging.LogWithTrace(ctx, uc.Logger, "usecase", "User deleted", logrus.Fields{
		"user.id": id,
	})

	roleID := user.Role.ID
	inUse, err := uc.Roles.IsRoleInUse(ctx, roleID)
	if err != nil {
		return err
	}
	if !inUse {
		err := uc.Roles.DeleteRoleIfNotInUse(ctx, roleID)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrRoleInUse), errors.Is(err, domain.ErrNotFound):
			// Another user took the role, or a concurrent cleanup already removed it.
			logging.LogErrorWithTraceNotNotify(ctx, uc.Logger, "usecase", "Role kept after user deletion", err, logrus.Fields{
				"role.id": roleID,
			})
		default:
			return err
		}
	}

	return uc.Cache.InvalidateSegment(ctx, port.SegmentRoles)
}

// ExistsByPhoneNumber is an uncached existence check
func (uc *UserUseCase) ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error) {
	return uc.RUser.ExistsByPhoneNumber(ctx, phone)
}

// resolveRole finds or creates the role. A role created concurrently by
// another caller is reused.
func (uc *UserUseCase) resolveRole(ctx context.Context, name string) (*entities.Role, error) {
	role, err := uc.Roles.FindOrCreateRole(ctx, name)
	if errors.Is(err, domain.ErrDuplicateRole) {
		logging.LogWarnWithTrace(ctx, uc.Logger, "usecase", "Role created concurrently, reusing it", logrus.Fields{
			"role.name": name,
		})
		return uc.Roles.FindRoleByName(ctx, name)
	}
	return role, err
}

// save persists user and translates storage conflicts. When the role was
// removed between resolution and insert, it is resolved again once.
func (uc *UserUseCase) save(ctx context.Context, user *entities.User) error {
	err := uc.RUser.Save(ctx, user)
	if constraintField(err) == "role_id" {
		logging.LogWarnWithTrace(ctx, uc.Logger, "usecase", "Role vanished before save, resolving again", logrus.Fields{
			"role.id":   user.Role.ID,
			"role.name": user.Role.Name,
		})
		if err := uc.Cache.Invalidate(ctx, port.SegmentRoles, user.Role.Name); err != nil {
			return err
		}
		role, rerr := uc.resolveRole(ctx, user.Role.Name)
		if rerr != nil {
			return rerr
		}
		user.Role = role
		err = uc.RUser.Save(ctx, user)
	}

	if constraintField(err) == "phone_number" {
		return domain.NewDuplicatePhoneNumber(user.PhoneNumber, err)
	}
	return err
}

func constraintField(err error) string {
	if err == nil || !errors.Is(err, domain.ErrConstraintViolation) {
		return ""
	}
	e, _ := domain.AsError(err)
	return e.Field
}
