package pagecache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open("", "https://letterboxd.com")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	_, ok := c.Get(ctx, "/film/parasite-2019/")
	require.False(t, ok)

	err := c.Set(ctx, "/film/parasite-2019/", []byte("<html>"), time.Hour)
	require.NoError(t, err)

	contents, ok := c.Get(ctx, "/film/parasite-2019/")
	require.True(t, ok)
	require.Equal(t, []byte("<html>"), contents)
}

func TestKeyNormalization(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	err := c.Set(ctx, "/film/parasite-2019/#ratings", []byte("a"), time.Hour)
	require.NoError(t, err)

	// fragment is stripped from the key, both endpoints hit the same entry
	contents, ok := c.Get(ctx, "/film/parasite-2019/")
	require.True(t, ok)
	require.Equal(t, []byte("a"), contents)
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	err := c.Set(ctx, "/film/old/", []byte("stale"), -time.Second)
	require.NoError(t, err)

	_, ok := c.Get(ctx, "/film/old/")
	require.False(t, ok)
}

func TestAbsoluteEndpoint(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	err := c.Set(ctx, "https://letterboxd.com/film/seven-samurai/", []byte("x"), time.Hour)
	require.NoError(t, err)

	contents, ok := c.Get(ctx, "/film/seven-samurai/")
	require.True(t, ok)
	require.Equal(t, []byte("x"), contents)
}
