package otp

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := Generate(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "non digit in %q", code)
		}
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "a@example.com", "123456", 10*time.Minute))
	require.NoError(t, store.Save(ctx, "b@example.com", "654321", time.Minute))

	code, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "b@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	_, err = store.Get(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, "k", "111111", time.Minute))
	require.NoError(t, store.Delete(ctx, "k"))
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	store := NewRedisStore(client)

	require.NoError(t, store.Save(ctx, "a@example.com", "123456", 10*time.Minute))
	assert.True(t, mr.Exists(KeyPrefix+"a@example.com"))

	code, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)

	mr.FastForward(11 * time.Minute)
	_, err = store.Get(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, "b@example.com", "222222", time.Minute))
	require.NoError(t, store.Delete(ctx, "b@example.com"))
	_, err = store.Get(ctx, "b@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
