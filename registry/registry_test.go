package registry_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/identitybridge/ssoclient/api"
	"github.com/identitybridge/ssoclient/events"
	"github.com/identitybridge/ssoclient/registry"
	"github.com/identitybridge/ssoclient/storage"
	"github.com/identitybridge/ssoclient/storage/prefstore"
	"github.com/identitybridge/ssoclient/storage/prefstore/memstore"
)

type recorder struct {
	calls []string
}

func (r *recorder) LoginEvent(guid string) {
	r.calls = append(r.calls, "login:"+guid)
}

func (r *recorder) LogoutEvent(guid string, changingUser bool) {
	r.calls = append(r.calls, fmt.Sprintf("logout:%s:%t", guid, changingUser))
}

func (r *recorder) ChangeDefaultSessionEvent(guid string) {
	r.calls = append(r.calls, "switch:"+guid)
}

func (r *recorder) AttributesUpdatedEvent(guid string) {
	r.calls = append(r.calls, "attrs:"+guid)
}

type fixture struct {
	registry *registry.Registry
	backend  *prefstore.MultiBackend
	recorder *recorder
}

func newFixture(t *testing.T, guids ...string) *fixture {
	t.Helper()
	f := &fixture{recorder: &recorder{}}
	ev := events.NewManager()
	f.backend = prefstore.NewMulti(memstore.New(), ev)
	for _, guid := range guids {
		f.backend.StoreGrant(guid, api.Fields{
			api.FieldAccessToken:  "access-" + guid,
			api.FieldRefreshToken: "refresh-" + guid,
			api.FieldExpiresIn:    "3600",
			api.FieldGUID:         guid,
		})
	}
	ev.AddListener(f.recorder)
	f.registry = registry.New(f.backend, ev)
	return f
}

func TestDefaultSessionGUIDResolvesLazily(t *testing.T) {
	f := newFixture(t, "u2", "u1", "u3")

	require.Equal(t, "u1", f.registry.DefaultSessionGUID(), "unset default resolves to the lexically lowest session")
	require.Equal(t, "u1", f.backend.DefaultGUID(), "lazy resolution is persisted")
}

func TestDefaultSessionGUIDEmptyWithoutSessions(t *testing.T) {
	f := newFixture(t)

	require.Empty(t, f.registry.DefaultSessionGUID())
}

func TestSetDefaultSession(t *testing.T) {
	f := newFixture(t, "u1", "u2")

	require.NoError(t, f.registry.SetDefaultSession("u2"))
	require.Equal(t, "u2", f.registry.DefaultSessionGUID())
	require.Equal(t, []string{"switch:u2"}, f.recorder.calls)
}

func TestSetDefaultSessionAlreadyDefaultIsNoOp(t *testing.T) {
	f := newFixture(t, "u1", "u2")
	require.NoError(t, f.registry.SetDefaultSession("u2"))

	require.NoError(t, f.registry.SetDefaultSession("u2"))

	require.Equal(t, []string{"switch:u2"}, f.recorder.calls, "no event for a switch to the already-default session")
}

func TestSetDefaultSessionRejectsInvalid(t *testing.T) {
	f := newFixture(t, "u1")

	require.ErrorIs(t, f.registry.SetDefaultSession("ghost"), storage.ErrInvalidSession)
	require.ErrorIs(t, f.registry.SetDefaultSession(""), storage.ErrInvalidSession)
	require.Empty(t, f.recorder.calls)
}

func TestLogoutClearsSessionAndDefault(t *testing.T) {
	f := newFixture(t, "u1", "u2")
	require.NoError(t, f.registry.SetDefaultSession("u1"))

	f.registry.Logout("u1")

	require.Equal(t, []string{"u2"}, f.registry.Sessions())
	require.False(t, f.registry.IsValidSession("u1"))
	require.Equal(t, []string{"switch:u1", "logout:u1:false"}, f.recorder.calls)
	require.Equal(t, "u2", f.registry.DefaultSessionGUID(), "default re-resolves to a surviving session")
}
