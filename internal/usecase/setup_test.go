package usecase

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kanehiroyuu/user-role-api/internal/domain"
	"github.com/kanehiroyuu/user-role-api/internal/infrastructure/database"
	"github.com/kanehiroyuu/user-role-api/internal/infrastructure/database/dbtest"
	"github.com/kanehiroyuu/user-role-api/internal/infrastructure/memory"
	"github.com/kanehiroyuu/user-role-api/internal/infrastructure/mysql"
	"github.com/kanehiroyuu/user-role-api/internal/infrastructure/tracing"
	"github.com/kanehiroyuu/user-role-api/internal/usecase/cache"
)

type testEnv struct {
	db    *sql.DB
	store *memory.CacheRepository
	cache *cache.Cache
	rRole domain.RoleRepository
	rUser domain.UserRepository
	roles *RoleUseCase
	users *UserUseCase
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := dbtest.Logger()
	db := dbtest.Open(t)
	executor := database.NewLoggingDB(db, logger)

	env := &testEnv{
		db:    db,
		store: memory.NewCacheRepository(),
		rRole: tracing.NewRoleRepositoryTracer(mysql.NewRoleRepository(executor, logger), "sqlite3"),
		rUser: tracing.NewUserRepositoryTracer(mysql.NewUserRepository(executor, logger), "sqlite3"),
	}
	env.cache = cache.New(env.store, logger)
	env.roles = NewRoleUseCase(logger, env.rRole, env.cache)
	env.users = NewUserUseCase(logger, env.rUser, env.roles, env.cache)
	return env
}

func (e *testEnv) countRows(t *testing.T, table string) int {
	t.Helper()

	var n int
	require.NoError(t, e.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func (e *testEnv) roleExists(t *testing.T, name string) bool {
	t.Helper()

	exists, err := e.rRole.ExistsByName(context.Background(), name)
	require.NoError(t, err)
	return exists
}

func strPtr(s string) *string { return &s }
