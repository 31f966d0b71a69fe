// Package porttest holds behaviour checks shared by every CacheRepository implementation.
package porttest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanehiroyuu/user-role-api/internal/usecase/port"
)

// RunCacheRepository exercises the generation ticket protocol against
// stores created by newStore. Each subtest gets a fresh store.
func RunCacheRepository(t *testing.T, newStore func(t *testing.T) port.CacheRepository) {
	ctx := context.Background()

	t.Run("miss then fill then hit", func(t *testing.T) {
		store := newStore(t)

		_, ticket, err := store.Get(ctx, port.SegmentUsers, "u1")
		require.ErrorIs(t, err, port.ErrCacheMiss)

		stored, err := store.Set(ctx, port.SegmentUsers, "u1", []byte(`{"id":"u1"}`), ticket)
		require.NoError(t, err)
		assert.True(t, stored)

		value, _, err := store.Get(ctx, port.SegmentUsers, "u1")
		require.NoError(t, err)
		assert.Equal(t, `{"id":"u1"}`, string(value))
	})

	t.Run("delete rejects older ticket", func(t *testing.T) {
		store := newStore(t)

		_, ticket, err := store.Get(ctx, port.SegmentRoles, "Support")
		require.ErrorIs(t, err, port.ErrCacheMiss)

		require.NoError(t, store.Delete(ctx, port.SegmentRoles, "Support"))

		stored, err := store.Set(ctx, port.SegmentRoles, "Support", []byte(`"stale"`), ticket)
		require.NoError(t, err)
		assert.False(t, stored)

		_, _, err = store.Get(ctx, port.SegmentRoles, "Support")
		assert.ErrorIs(t, err, port.ErrCacheMiss)
	})

	t.Run("delete removes stored value", func(t *testing.T) {
		store := newStore(t)

		_, ticket, _ := store.Get(ctx, port.SegmentRoles, "Admin")
		_, err := store.Set(ctx, port.SegmentRoles, "Admin", []byte(`"v1"`), ticket)
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, port.SegmentRoles, "Admin"))

		_, ticket, err = store.Get(ctx, port.SegmentRoles, "Admin")
		require.ErrorIs(t, err, port.ErrCacheMiss)

		stored, err := store.Set(ctx, port.SegmentRoles, "Admin", []byte(`"v2"`), ticket)
		require.NoError(t, err)
		assert.True(t, stored)
	})

	t.Run("segment invalidation rejects every older ticket", func(t *testing.T) {
		store := newStore(t)

		_, t1, _ := store.Get(ctx, port.SegmentUsers, "u1")
		_, err := store.Set(ctx, port.SegmentUsers, "u1", []byte(`"a"`), t1)
		require.NoError(t, err)
		_, t2, _ := store.Get(ctx, port.SegmentUsers, "u2")

		require.NoError(t, store.DeleteSegment(ctx, port.SegmentUsers))

		_, _, err = store.Get(ctx, port.SegmentUsers, "u1")
		assert.ErrorIs(t, err, port.ErrCacheMiss)

		stored, err := store.Set(ctx, port.SegmentUsers, "u2", []byte(`"b"`), t2)
		require.NoError(t, err)
		assert.False(t, stored)
	})

	t.Run("segments are independent", func(t *testing.T) {
		store := newStore(t)

		_, ticket, _ := store.Get(ctx, port.SegmentRoles, "Support")
		_, err := store.Set(ctx, port.SegmentRoles, "Support", []byte(`"r"`), ticket)
		require.NoError(t, err)

		require.NoError(t, store.DeleteSegment(ctx, port.SegmentUsers))

		value, _, err := store.Get(ctx, port.SegmentRoles, "Support")
		require.NoError(t, err)
		assert.Equal(t, `"r"`, string(value))
	})

	t.Run("delete of another key keeps ticket valid", func(t *testing.T) {
		store := newStore(t)

		_, ticket, _ := store.Get(ctx, port.SegmentRoles, "Support")
		require.NoError(t, store.Delete(ctx, port.SegmentRoles, "Admin"))

		stored, err := store.Set(ctx, port.SegmentRoles, "Support", []byte(`"r"`), ticket)
		require.NoError(t, err)
		assert.True(t, stored)
	})
}
