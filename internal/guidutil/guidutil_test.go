package guidutil

import (
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/identitybridge/ssoclient/api"
)

func signedToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return signed
}

func TestFromGrantPrefersEmbeddedGUID(t *testing.T) {
	token := signedToken(t, jwtlib.MapClaims{"sub": "jwt-guid"})

	guid := FromGrant(api.Fields{
		api.FieldGUID:        "embedded-guid",
		api.FieldAccessToken: token,
	})
	require.Equal(t, "embedded-guid", guid)
}

func TestFromGrantFallsBackToJWTSubject(t *testing.T) {
	token := signedToken(t, jwtlib.MapClaims{"sub": "jwt-guid"})

	guid := FromGrant(api.Fields{api.FieldAccessToken: token})
	require.Equal(t, "jwt-guid", guid)
}

func TestFromGrantNoUsableGUID(t *testing.T) {
	require.Empty(t, FromGrant(api.Fields{}))
	require.Empty(t, FromGrant(api.Fields{api.FieldAccessToken: "opaque-token"}))

	withoutSub := signedToken(t, jwtlib.MapClaims{"aud": "someone"})
	require.Empty(t, FromGrant(api.Fields{api.FieldAccessToken: withoutSub}))
}
