package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestPresenceLifecycle(t *testing.T) {
	mr, c := newMiniRedisClient(t)
	ctx := context.Background()
	store := NewPresenceStore(c, time.Minute)

	require.NoError(t, store.SetOnline(ctx, "MP1", 1))
	require.NoError(t, store.SetOnline(ctx, "MP2", 2))

	online, err := store.IsOnline(ctx, "MP1")
	require.NoError(t, err)
	assert.True(t, online)

	p, err := store.Get(ctx, "MP2")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "online", p.Status)
	assert.Equal(t, 2, p.Connections)

	ids, err := store.OnlineProfiles(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"MP1", "MP2"}, ids)

	require.NoError(t, store.SetOffline(ctx, "MP1"))
	online, err = store.IsOnline(ctx, "MP1")
	require.NoError(t, err)
	assert.False(t, online)

	// MP2 的 TTL 过期后被清出在线集合
	mr.FastForward(2 * time.Minute)
	ids, err = store.OnlineProfiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	members, err := mr.SMembers(OnlineProfilesKey)
	if err == nil {
		assert.Empty(t, members)
	}

	p, err = store.Get(ctx, "MP2")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPresenceRefresh(t *testing.T) {
	mr, c := newMiniRedisClient(t)
	ctx := context.Background()
	store := NewPresenceStore(c, time.Minute)

	ok, err := store.Refresh(ctx, "MP1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetOnline(ctx, "MP1", 1))
	mr.FastForward(50 * time.Second)
	ok, err = store.Refresh(ctx, "MP1")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(50 * time.Second)
	online, err := store.IsOnline(ctx, "MP1")
	require.NoError(t, err)
	assert.True(t, online)
}
