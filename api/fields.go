package api

import "strconv"

// Well-known keys that may appear in a token or attribute response from the
// identity provider. Responses are flat string maps; numeric values (such as
// expires_in) are carried as their decimal string representation.
const (
	FieldAccessToken  = "access_token"
	FieldRefreshToken = "refresh_token"
	FieldExpiresIn    = "expires_in"
	FieldGUID         = "guid"
	FieldUsername     = "username"
	FieldEmail        = "email"
	FieldFirstName    = "firstName"
	FieldLastName     = "lastName"
	FieldError        = "error"
)

// Fields is the raw payload of a grant or attribute response, keyed by the
// provider's parameter names. A key that is absent from the map was absent
// from the response.
type Fields map[string]string

// Has reports whether the response contained the given key.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Get returns the value for key, or "" when the key is absent.
func (f Fields) Get(key string) string {
	return f[key]
}

// ExpiresIn parses the expires_in value as a number of seconds. It returns
// ok=false when the field is absent and an error when the field is present
// but not numeric.
func (f Fields) ExpiresIn() (seconds int64, ok bool, err error) {
	raw, present := f[FieldExpiresIn]
	if !present {
		return 0, false, nil
	}
	seconds, err = strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, true, err
	}
	return seconds, true, nil
}
