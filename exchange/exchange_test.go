package exchange_test

import (
	"context"
	"fmt"
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/identitybridge/ssoclient/api"
	"github.com/identitybridge/ssoclient/events"
	"github.com/identitybridge/ssoclient/exchange"
	"github.com/identitybridge/ssoclient/storage/prefstore"
	"github.com/identitybridge/ssoclient/storage/prefstore/memstore"
)

type fakeClient struct {
	code     func(code, redirectURI string) (api.Fields, error)
	password func(username, password string) (api.Fields, error)
}

var _ api.Client = (*fakeClient)(nil)

func (f *fakeClient) ExchangeCodeForGrant(_ context.Context, code, redirectURI string) (api.Fields, error) {
	return f.code(code, redirectURI)
}

func (f *fakeClient) ExchangePasswordForGrant(_ context.Context, username, password string) (api.Fields, error) {
	return f.password(username, password)
}

func (f *fakeClient) ExchangeRefreshTokenForGrant(context.Context, string) (api.Fields, error) {
	return nil, nil
}

func (f *fakeClient) FetchAttributes(context.Context, string) (api.Fields, error) {
	return nil, nil
}

type recorder struct {
	calls []string
}

func (r *recorder) LoginEvent(guid string) { r.calls = append(r.calls, "login:"+guid) }

func (r *recorder) LogoutEvent(guid string, changingUser bool) {
	r.calls = append(r.calls, fmt.Sprintf("logout:%s:%t", guid, changingUser))
}

func (r *recorder) ChangeDefaultSessionEvent(guid string) { r.calls = append(r.calls, "switch:"+guid) }

func (r *recorder) AttributesUpdatedEvent(guid string) { r.calls = append(r.calls, "attrs:"+guid) }

type fixture struct {
	service  *exchange.Service
	backend  *prefstore.Backend
	client   *fakeClient
	recorder *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{client: &fakeClient{}, recorder: &recorder{}}
	ev := events.NewManager()
	ev.AddListener(f.recorder)
	f.backend = prefstore.New(memstore.New(), ev)
	f.service = exchange.New(f.backend, f.client)
	return f
}

func TestProcessCodeGrantEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.client.code = func(code, redirectURI string) (api.Fields, error) {
		require.Equal(t, "the-code", code)
		require.Equal(t, "https://app.example.com/callback", redirectURI)
		return api.Fields{
			api.FieldAccessToken:  "access-u1",
			api.FieldRefreshToken: "refresh-u1",
			api.FieldExpiresIn:    "3600",
			api.FieldGUID:         "u1",
		}, nil
	}

	guid, err := f.service.ProcessCodeGrant(context.Background(), "the-code", "https://app.example.com/callback")
	require.NoError(t, err)
	require.Equal(t, "u1", guid)

	require.True(t, f.backend.IsValidSession("u1"))
	require.Equal(t, "access-u1", f.backend.AccessToken("u1"))
	require.Equal(t, "refresh-u1", f.backend.RefreshToken("u1"))
	require.Equal(t, []string{"login:u1"}, f.recorder.calls)

	// logging out undoes everything the exchange established
	f.backend.ClearAuthState("u1", true)
	require.False(t, f.backend.IsValidSession("u1"))
	require.Empty(t, f.backend.AccessToken("u1"))
	require.Equal(t, []string{"login:u1", "logout:u1:false"}, f.recorder.calls)
}

func TestProcessPasswordGrant(t *testing.T) {
	f := newFixture(t)
	f.client.password = func(username, password string) (api.Fields, error) {
		require.Equal(t, "jdoe", username)
		require.Equal(t, "secret", password)
		return api.Fields{
			api.FieldAccessToken: "access-u1",
			api.FieldExpiresIn:   "3600",
			api.FieldGUID:        "u1",
		}, nil
	}

	guid, err := f.service.ProcessPasswordGrant(context.Background(), "jdoe", "secret")
	require.NoError(t, err)
	require.Equal(t, "u1", guid)
}

func TestProcessCodeGrantProviderRejection(t *testing.T) {
	f := newFixture(t)
	f.client.code = func(string, string) (api.Fields, error) {
		return api.Fields{api.FieldError: "access_denied"}, nil
	}

	guid, err := f.service.ProcessCodeGrant(context.Background(), "the-code", "")
	require.NoError(t, err)
	require.Empty(t, guid)
	require.Empty(t, f.backend.Sessions())
	require.Empty(t, f.recorder.calls)
}

func TestProcessCodeGrantTransportFailure(t *testing.T) {
	f := newFixture(t)
	f.client.code = func(string, string) (api.Fields, error) {
		return nil, api.NewSocketError("exchange code grant", context.DeadlineExceeded)
	}

	guid, err := f.service.ProcessCodeGrant(context.Background(), "the-code", "")
	require.Empty(t, guid)
	require.True(t, api.IsSocketError(err))
}

func TestProcessCodeGrantGUIDFromJWTSubject(t *testing.T) {
	f := newFixture(t)
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256,
		jwtlib.MapClaims{"sub": "jwt-guid"}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	f.client.code = func(string, string) (api.Fields, error) {
		return api.Fields{
			api.FieldAccessToken: signed,
			api.FieldExpiresIn:   "3600",
		}, nil
	}

	guid, err := f.service.ProcessCodeGrant(context.Background(), "the-code", "")
	require.NoError(t, err)
	require.Equal(t, "jwt-guid", guid)
	require.True(t, f.backend.IsValidSession("jwt-guid"))
}

func TestProcessCodeGrantWithoutAnyGUID(t *testing.T) {
	f := newFixture(t)
	f.client.code = func(string, string) (api.Fields, error) {
		return api.Fields{
			api.FieldAccessToken: "opaque-token",
			api.FieldExpiresIn:   "3600",
		}, nil
	}

	guid, err := f.service.ProcessCodeGrant(context.Background(), "the-code", "")
	require.NoError(t, err)
	require.Empty(t, guid, "an opaque token with no guid cannot be attributed")
	require.Empty(t, f.backend.Sessions())
}

func TestProcessCodeGrantMalformedResponseWipesSession(t *testing.T) {
	f := newFixture(t)
	f.client.code = func(string, string) (api.Fields, error) {
		return api.Fields{
			api.FieldAccessToken: "access-u1",
			api.FieldExpiresIn:   "3600",
			api.FieldGUID:        "u1",
		}, nil
	}
	_, err := f.service.ProcessCodeGrant(context.Background(), "first-code", "")
	require.NoError(t, err)

	f.client.code = func(string, string) (api.Fields, error) {
		return api.Fields{
			api.FieldAccessToken: "access-u1-v2",
			api.FieldExpiresIn:   "not-a-number",
			api.FieldGUID:        "u1",
		}, nil
	}

	guid, err := f.service.ProcessCodeGrant(context.Background(), "second-code", "")
	require.NoError(t, err, "a malformed response is handled, not errored")
	require.Empty(t, guid)
	require.False(t, f.backend.IsValidSession("u1"))
}
