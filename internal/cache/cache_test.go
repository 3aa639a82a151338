package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/textgrab/internal/config"
)

func TestMemoryClient_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(10)
	defer c.Close()

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(10)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(2)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "forever", []byte("v"), 0))
	got, err := c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	// Entries with a deadline are evicted before entries without one.
	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Hour))
	_, err = c.Get(ctx, "forever")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNew_MemoryWithoutTTL(t *testing.T) {
	ctx := context.Background()
	c, err := New(config.CacheConfig{Driver: "memory"})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.PutText(ctx, "k", "hello"))
	text, ok, err := c.GetText(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", text)
}

func TestMemoryClient_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(2)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Hour))

	assert.Equal(t, 2, c.Len())
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewRedisClient(config.RedisConfig{Addr: mr.Addr(), Prefix: "tg:"})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("hello"), time.Minute))
	assert.True(t, mr.Exists("tg:k"))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}

func TestTextCache(t *testing.T) {
	ctx := context.Background()
	tc := NewTextCache(NewMemoryClient(4), time.Minute)
	defer tc.Close()

	key := ResultKey("abc", "eng")
	assert.Equal(t, "result:eng:abc", key)

	_, ok, err := tc.GetText(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tc.PutText(ctx, key, "Hello\n\n"))
	text, ok, err := tc.GetText(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Hello\n\n", text)
}

func TestNew_Drivers(t *testing.T) {
	c, err := New(config.CacheConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = New(config.CacheConfig{Driver: "memory", TTL: time.Minute})
	require.NoError(t, err)
	require.NotNil(t, c)
	c.Close()

	mr := miniredis.RunT(t)
	c, err = New(config.CacheConfig{Driver: "redis", TTL: time.Minute, Redis: config.RedisConfig{Addr: mr.Addr()}})
	require.NoError(t, err)
	require.NotNil(t, c)
	c.Close()
}
