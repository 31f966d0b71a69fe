package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanehiroyuu/user-role-api/internal/domain"
	"github.com/kanehiroyuu/user-role-api/internal/domain/entities"
	"github.com/kanehiroyuu/user-role-api/internal/usecase/port"
)

// hiddenRoleRepository pretends the role is absent on lookup, as if another
// caller created it after this caller looked
type hiddenRoleRepository struct {
	domain.RoleRepository
}

func (r *hiddenRoleRepository) FindByName(context.Context, string) (*entities.Role, bool, error) {
	return nil, false, nil
}

func (r *hiddenRoleRepository) ExistsByName(context.Context, string) (bool, error) {
	return false, nil
}

func TestRoleUseCase_FindOrCreateRole(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)

	first, err := env.roles.FindOrCreateRole(ctx, "Support")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Support", first.Name)

	second, err := env.roles.FindOrCreateRole(ctx, "Support")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, 1, env.countRows(t, "roles"))
	assert.Equal(t, 1, env.store.Len(port.SegmentRoles))
}

func TestRoleUseCase_FindOrCreateRole_Existing(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)

	role := &entities.Role{Name: "Admin"}
	require.NoError(t, env.rRole.Save(ctx, role))

	got, err := env.roles.FindOrCreateRole(ctx, "Admin")
	require.NoError(t, err)
	assert.Equal(t, role.ID, got.ID)
	assert.Equal(t, 1, env.countRows(t, "roles"))
}

func TestRoleUseCase_FindOrCreateRole_LostRace(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)

	require.NoError(t, env.rRole.Save(ctx, &entities.Role{Name: "Support"}))

	roles := NewRoleUseCase(env.roles.Logger, &hiddenRoleRepository{RoleRepository: env.rRole}, env.cache)
	_, err := roles.FindOrCreateRole(ctx, "Support")
	require.ErrorIs(t, err, domain.ErrDuplicateRole)

	// The failure is not cached
	assert.Equal(t, 0, env.store.Len(port.SegmentRoles))
	assert.Equal(t, 1, env.countRows(t, "roles"))
}

func TestRoleUseCase_FindOrCreateRole_Concurrent(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)

	const workers = 8
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[string]struct{}{}
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			role, err := env.roles.FindOrCreateRole(ctx, "Support")
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrDuplicateRole)
				return
			}
			mu.Lock()
			ids[role.ID] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1, "every winner sees the same role")
	assert.Equal(t, 1, env.countRows(t, "roles"))
}

func TestRoleUseCase_FindRoleByName(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)

	_, err := env.roles.FindRoleByName(ctx, "Support")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, env.store.Len(port.SegmentRoles))

	created, err := env.roles.FindOrCreateRole(ctx, "Support")
	require.NoError(t, err)

	found, err := env.roles.FindRoleByName(ctx, "Support")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestRoleUseCase_ExistsByRoleName(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)

	exists, err := env.roles.ExistsByRoleName(ctx, "Support")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = env.roles.FindOrCreateRole(ctx, "Support")
	require.NoError(t, err)

	exists, err = env.roles.ExistsByRoleName(ctx, "Support")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRoleUseCase_DeleteRoleIfNotInUse(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)

	role, err := env.roles.FindOrCreateRole(ctx, "Support")
	require.NoError(t, err)

	require.NoError(t, env.roles.DeleteRoleIfNotInUse(ctx, role.ID))
	assert.False(t, env.roleExists(t, "Support"))

	// The cached entry went with the row
	_, err = env.roles.FindRoleByName(ctx, "Support")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	recreated, err := env.roles.FindOrCreateRole(ctx, "Support")
	require.NoError(t, err)
	assert.NotEqual(t, role.ID, recreated.ID)
}

func TestRoleUseCase_DeleteRoleIfNotInUse_InUse(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)

	user, err := env.users.CreateUser(ctx, CreateUserInput{FullName: "Ivan", PhoneNumber: "+79990000001", RoleName: "Support"})
	require.NoError(t, err)

	inUse, err := env.roles.IsRoleInUse(ctx, user.Role.ID)
	require.NoError(t, err)
	assert.True(t, inUse)

	err = env.roles.DeleteRoleIfNotInUse(ctx, user.Role.ID)
	require.ErrorIs(t, err, domain.ErrRoleInUse)
	assert.True(t, env.roleExists(t, "Support"))
}

func TestRoleUseCase_DeleteRoleIfNotInUse_NotFound(t *testing.T) {
	env := setupTestEnv(t)

	err := env.roles.DeleteRoleIfNotInUse(context.Background(), "00000000-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
