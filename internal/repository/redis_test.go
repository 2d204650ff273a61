package repository

import (
	"context"
	"testing"
	"time"

	"homestay/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()

	repo := NewRedisRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		err := repo.Set(ctx, "homestay_cart", `[{"id":1}]`)
		require.NoError(t, err)

		val, found, err := repo.Get(ctx, "homestay_cart")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, `[{"id":1}]`, val)
		assert.Equal(t, time.Hour, s.TTL("homestay_cart"))
	})

	t.Run("GetMissing", func(t *testing.T) {
		val, found, err := repo.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, val)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "to_delete", "x"))
		require.NoError(t, repo.Delete(ctx, "to_delete"))

		_, found, err := repo.Get(ctx, "to_delete")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "short", "x"))
		s.FastForward(time.Hour + time.Second)

		_, found, err := repo.Get(ctx, "short")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("NoTTL", func(t *testing.T) {
		persistent := NewRedisRepository(client, 0)
		require.NoError(t, persistent.Set(ctx, "forever", "x"))
		assert.Equal(t, time.Duration(0), s.TTL("forever"))
	})

	t.Run("ServerDown", func(t *testing.T) {
		down := miniredis.RunT(t)
		downClient := redis.NewClient(&redis.Options{Addr: down.Addr(), MaxRetries: -1})
		defer downClient.Close()
		down.Close()

		repo := NewRedisRepository(downClient, 0)
		_, _, err := repo.Get(ctx, "homestay_cart")
		assert.Error(t, err)
		assert.Error(t, repo.Set(ctx, "homestay_cart", "[]"))
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisRepository(nil, time.Hour)
		_, _, err := repo.Get(ctx, "homestay_cart")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
		assert.Error(t, repo.Set(ctx, "k", "v"))
		assert.Error(t, repo.Delete(ctx, "k"))
		assert.Error(t, Ping(ctx, nil))
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("Close", func(t *testing.T) {
		assert.NoError(t, Close(client))
		assert.NoError(t, Close(nil))
	})
}
