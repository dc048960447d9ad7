package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := New(client, DefaultPrefix)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestGet_Missing(t *testing.T) {
	store, _ := newTestStore(t)

	value, ok, err := store.Get(context.Background(), "snippets")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestSetThenGet_UsesPrefix(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "profile", `{"name":"Ada"}`))

	value, ok, err := store.Get(ctx, "profile")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"name":"Ada"}`, value)

	raw, err := mr.Get("codevault:profile")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Ada"}`, raw)
	assert.Zero(t, mr.TTL("codevault:profile"), "vault keys must not expire")
}

func TestGet_BackendDown(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, ok, err := store.Get(context.Background(), "snippets")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := Dial(context.Background(), Options{Addr: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Set(context.Background(), "snippets", "[]"))
	assert.True(t, mr.Exists("test:snippets"))
}

func TestDial_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Dial(context.Background(), Options{Addr: addr})
	assert.Error(t, err)
}
