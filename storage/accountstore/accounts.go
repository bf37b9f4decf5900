// Package accountstore implements the storage backend on top of an OS-style
// multi-principal account store: one independently addressable record per
// principal, with token material held separately from plain user data.
package accountstore

// Token material kinds understood by the account store.
const (
	TokenTypeAccess  = "access_token"
	TokenTypeRefresh = "refresh_token"
)

// Accounts is the multi-principal account store substrate. Each account is
// addressed by name and carries independent user-data fields and auth
// tokens, so writes for one principal can never clobber another's record.
type Accounts interface {
	// Names returns the names of every account, in no particular order.
	Names() []string

	// Add creates an account with the given initial user data. It reports
	// false when an account with that name already exists.
	Add(name string, userData map[string]string) bool

	// Remove deletes an account and all of its data. It reports whether an
	// account was actually removed.
	Remove(name string) bool

	// UserData returns the user-data value stored under key for the named
	// account, or "" when absent.
	UserData(name, key string) string

	// SetUserData stores value under key for the named account; an empty
	// value deletes the key.
	SetUserData(name, key, value string)

	// AuthToken returns the cached token of the given type for the named
	// account, or "" when absent.
	AuthToken(name, tokenType string) string

	// SetAuthToken caches a token of the given type for the named account.
	SetAuthToken(name, tokenType, token string)

	// InvalidateAuthToken drops every cached token of the given type whose
	// value equals token, across all accounts. Tokens with other values are
	// untouched, which is what makes removal compare-and-clear.
	InvalidateAuthToken(tokenType, token string)
}
