package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		val, found, err := repo.Get(ctx, "homestay_cart")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, val)
	})

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "homestay_cart", `[{"id":1}]`))

		val, found, err := repo.Get(ctx, "homestay_cart")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, `[{"id":1}]`, val)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "homestay_cart", `[]`))
		val, _, _ := repo.Get(ctx, "homestay_cart")
		assert.Equal(t, `[]`, val)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "homestay_cart"))
		_, found, _ := repo.Get(ctx, "homestay_cart")
		assert.False(t, found)
	})
}
