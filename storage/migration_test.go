package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/identitybridge/ssoclient/api"
	"github.com/identitybridge/ssoclient/events"
	"github.com/identitybridge/ssoclient/storage"
	"github.com/identitybridge/ssoclient/storage/accountstore"
	"github.com/identitybridge/ssoclient/storage/accountstore/memaccounts"
	"github.com/identitybridge/ssoclient/storage/prefstore"
	"github.com/identitybridge/ssoclient/storage/prefstore/memstore"
)

func TestMigratingSessionUsable(t *testing.T) {
	complete := storage.MigratingSession{GUID: "u1", AccessToken: "a", RefreshToken: "r"}
	require.True(t, complete.Usable())

	require.False(t, storage.MigratingSession{}.Usable())
	require.False(t, storage.MigratingSession{GUID: "u1", AccessToken: "a"}.Usable())
	require.False(t, storage.MigratingSession{GUID: "u1", RefreshToken: "r"}.Usable())
	require.False(t, storage.MigratingSession{AccessToken: "a", RefreshToken: "r"}.Usable())
}

func TestMigrateBetweenBackends(t *testing.T) {
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	source := prefstore.New(memstore.New(), events.NewManager(), prefstore.WithNowTime(now))
	require.True(t, source.StoreGrant("u1", api.Fields{
		api.FieldAccessToken:  "access-u1",
		api.FieldRefreshToken: "refresh-u1",
		api.FieldExpiresIn:    "3600",
		api.FieldGUID:         "u1",
	}))
	source.StoreAttributes("u1", api.Fields{
		api.FieldGUID:  "u1",
		api.FieldEmail: "u1@example.com",
	})

	exported := storage.ExportSession(source, "u1")
	require.True(t, exported.Usable())
	require.True(t, exported.Attributes.Valid())

	target := accountstore.New(memaccounts.New(), events.NewManager(), accountstore.WithNowTime(now))
	require.True(t, target.ImportSession(exported))

	require.True(t, target.IsValidSession("u1"))
	require.Equal(t, "refresh-u1", target.RefreshToken("u1"))
	require.Empty(t, target.AccessToken("u1"),
		"an exported token carries no deadline, so it reads expired until refreshed")

	set, err := target.Attributes("u1")
	require.NoError(t, err)
	require.True(t, set.Valid())
	require.Equal(t, "u1@example.com", set.Email())
}

func TestExportSessionMissingTokens(t *testing.T) {
	source := prefstore.New(memstore.New(), events.NewManager())

	exported := storage.ExportSession(source, "ghost")
	require.False(t, exported.Usable())
}
