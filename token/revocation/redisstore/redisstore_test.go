package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/yanssound-auth/token/revocation/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*miniredis.Miniredis, *redisstore.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := redisstore.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = store.Close() })
	return mr, store
}

func TestStore_SetGet(t *testing.T) {
	ctx := context.Background()
	mr, store := setupTestStore(t)

	require.NoError(t, store.Set(ctx, "blacklist:jti-1", "raw-token", 90*time.Second))
	require.Equal(t, 90*time.Second, mr.TTL("blacklist:jti-1"))

	value, found, err := store.Get(ctx, "blacklist:jti-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "raw-token", value)

	_, found, err = store.Get(ctx, "blacklist:other")
	require.NoError(t, err)
	require.False(t, found)

	t.Run("key expires with ttl", func(t *testing.T) {
		mr.FastForward(91 * time.Second)
		_, found, err := store.Get(ctx, "blacklist:jti-1")
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("non positive ttl deletes", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "blacklist:jti-2", "raw", time.Minute))
		require.NoError(t, store.Set(ctx, "blacklist:jti-2", "raw", 0))
		require.False(t, mr.Exists("blacklist:jti-2"))
	})
}

func TestStore_Unreachable(t *testing.T) {
	ctx := context.Background()
	mr, store := setupTestStore(t)
	mr.Close()

	require.Error(t, store.Set(ctx, "blacklist:jti", "raw", time.Minute))
	_, found, err := store.Get(ctx, "blacklist:jti")
	require.Error(t, err)
	require.False(t, found)
}

func TestDial(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, err := redisstore.Dial(ctx, mr.Addr(), "", 0)
	require.NoError(t, err)
	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Close())

	mr.Close()
	_, err = redisstore.Dial(ctx, mr.Addr(), "", 0)
	require.Error(t, err)
}
