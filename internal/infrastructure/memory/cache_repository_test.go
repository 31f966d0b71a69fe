package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanehiroyuu/user-role-api/internal/usecase/port"
	"github.com/kanehiroyuu/user-role-api/internal/usecase/port/porttest"
)

func TestCacheRepository(t *testing.T) {
	porttest.RunCacheRepository(t, func(t *testing.T) port.CacheRepository {
		return NewCacheRepository()
	})
}

func TestCacheRepository_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository()

	value := []byte("abc")
	_, ticket, _ := repo.Get(ctx, port.SegmentUsers, "u1")
	_, err := repo.Set(ctx, port.SegmentUsers, "u1", value, ticket)
	require.NoError(t, err)
	value[0] = 'x'

	got, _, err := repo.Get(ctx, port.SegmentUsers, "u1")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'x'
	again, _, _ := repo.Get(ctx, port.SegmentUsers, "u1")
	assert.Equal(t, "abc", string(again))
}

func TestCacheRepository_Len(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository()

	for _, key := range []string{"a", "b", "c"} {
		_, ticket, _ := repo.Get(ctx, port.SegmentRoles, key)
		_, err := repo.Set(ctx, port.SegmentRoles, key, []byte(key), ticket)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, repo.Len(port.SegmentRoles))
	assert.Equal(t, 0, repo.Len(port.SegmentUsers))

	require.NoError(t, repo.Delete(ctx, port.SegmentRoles, "a"))
	assert.Equal(t, 2, repo.Len(port.SegmentRoles))

	require.NoError(t, repo.DeleteSegment(ctx, port.SegmentRoles))
	assert.Equal(t, 0, repo.Len(port.SegmentRoles))
}

func TestCacheRepository_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, ticket, _ := repo.Get(ctx, port.SegmentUsers, "u1")
			_, _ = repo.Set(ctx, port.SegmentUsers, "u1", []byte("v"), ticket)
		}()
		go func() {
			defer wg.Done()
			_ = repo.DeleteSegment(ctx, port.SegmentUsers)
		}()
	}
	wg.Wait()

	// Whatever interleaving happened, a final invalidation leaves nothing behind
	require.NoError(t, repo.DeleteSegment(ctx, port.SegmentUsers))
	assert.Equal(t, 0, repo.Len(port.SegmentUsers))
}
