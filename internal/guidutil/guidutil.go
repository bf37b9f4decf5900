// Package guidutil resolves the owning guid of a grant response.
package guidutil

import (
	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/identitybridge/ssoclient/api"
)

// FromGrant returns the guid a grant response belongs to: the response's
// embedded guid field when present, otherwise the unverified "sub" claim of
// the access token when it is a JWT. It returns "" when neither is
// available.
//
// The JWT is deliberately not signature-checked here: the token came over
// the provider's TLS channel and is only used to key local session state,
// never to grant access.
func FromGrant(fields api.Fields) string {
	if guid := fields.Get(api.FieldGUID); guid != "" {
		return guid
	}

	raw := fields.Get(api.FieldAccessToken)
	if raw == "" {
		return ""
	}
	token, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return ""
	}
	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}
