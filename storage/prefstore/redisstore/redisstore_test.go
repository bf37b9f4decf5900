package redisstore_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/identitybridge/ssoclient/api"
	"github.com/identitybridge/ssoclient/events"
	"github.com/identitybridge/ssoclient/storage/prefstore"
	"github.com/identitybridge/ssoclient/storage/prefstore/redisstore"
)

func newStore(t *testing.T) *redisstore.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.New(client, "")
}

func TestApplyAndAll(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Apply(map[string]string{"a": "1", "b": "2"}, nil))

	all, err := store.All()
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, all)
}

func TestApplyRemovesBeforeSetting(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Apply(map[string]string{"a": "1", "b": "2"}, nil))

	require.NoError(t, store.Apply(map[string]string{"a": "9"}, []string{"a", "b"}))

	all, err := store.All()
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "9"}, all, "a key in both set and remove is written")
}

func TestAllEmptyHash(t *testing.T) {
	store := newStore(t)

	all, err := store.All()
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestBackendOverRedis(t *testing.T) {
	store := newStore(t)
	backend := prefstore.New(store, events.NewManager())

	require.True(t, backend.StoreGrant("u1", api.Fields{
		api.FieldAccessToken:  "access-u1",
		api.FieldRefreshToken: "refresh-u1",
		api.FieldExpiresIn:    "3600",
		api.FieldGUID:         "u1",
	}))

	require.Equal(t, []string{"u1"}, backend.Sessions())
	require.Equal(t, "access-u1", backend.AccessToken("u1"))
	require.Equal(t, "refresh-u1", backend.RefreshToken("u1"))

	backend.ClearAuthState("u1", false)
	require.Empty(t, backend.Sessions())
}
