// Package storage defines the durable store contract shared by every
// backend implementation. A backend owns all durable session state: token
// material, the default-session pointer, and cached profile attributes,
// keyed by session guid.
package storage

import (
	"errors"

	"github.com/identitybridge/ssoclient/api"
	"github.com/identitybridge/ssoclient/attributes"
)

var (
	// ErrInvalidSession is returned when a caller references a guid that is
	// not a known, valid session where one is required.
	ErrInvalidSession = errors.New("invalid session")

	// ErrUnsupportedOperation is returned when a single-session backend is
	// asked about a guid it cannot address.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// Backend is the durable store for session state. Implementations must
// serialize every read-modify-write of a session record or the default
// pointer within the backend instance, and must re-validate the target guid
// at commit time for attribute and grant writes (suppressing the write
// silently when the session changed mid-flight).
//
// None of the methods cache state across calls; every read re-queries the
// durable store. The one permitted exception is the default guid, which a
// multi-principal backend may hold as an in-memory hint invalidated lazily
// on next use.
type Backend interface {
	// Sessions returns all guids with any stored state. Order is undefined.
	Sessions() []string

	// DefaultGUID returns the guid of the default session, or "" when no
	// session is selected.
	DefaultGUID() string

	// SetDefaultGUID marks guid as the default session. It returns
	// ErrInvalidSession when guid is not a known session.
	SetDefaultGUID(guid string) error

	// IsValidSession reports whether guid is known and has at least an
	// access or refresh token on record.
	IsValidSession(guid string) bool

	// StoreGrant atomically persists whatever subset of token material is
	// present in fields for guid. When the response embeds its own guid,
	// the embedded guid wins for session identification. A malformed
	// response never partially applies: the backend clears all auth state
	// for guid and still reports the grant as handled, forcing the session
	// to a logged-out state rather than leaving it ambiguous.
	StoreGrant(guid string, fields api.Fields) bool

	// AccessToken returns the stored access token for guid, or "" when
	// there is none, it no longer belongs to guid, or it has expired.
	// Missing expiry metadata reads as already expired.
	AccessToken(guid string) string

	// RemoveAccessToken clears the access token for guid only when the
	// currently stored token equals token (compare-and-clear). A stale
	// removal never clobbers a token rotated by a concurrent refresh.
	RemoveAccessToken(guid, token string)

	// RefreshToken returns the stored refresh token for guid, or "".
	RefreshToken(guid string) string

	// RemoveRefreshToken clears the refresh token for guid only when the
	// currently stored token equals token.
	RemoveRefreshToken(guid, token string)

	// StoreAttributes persists a fresh attribute snapshot for guid. The
	// write is discarded silently when guid is no longer the addressable
	// session at commit time.
	StoreAttributes(guid string, fields api.Fields)

	// RemoveAttributes clears the attribute snapshot for guid, with the
	// same stale-write suppression as StoreAttributes.
	RemoveAttributes(guid string)

	// Attributes returns the stored attribute snapshot for guid. A stale or
	// never-loaded snapshot is not an error: it comes back with
	// Valid() == false. Single-session backends return
	// ErrUnsupportedOperation for guids other than the current session;
	// multi-session backends support any known guid.
	Attributes(guid string) (attributes.Set, error)

	// ClearAuthState removes all token and identification state for guid.
	// When emitEvent is set and state existed, a logout event fires.
	ClearAuthState(guid string, emitEvent bool)

	// ImportSession installs a complete migrated session record in a single
	// write. It reports whether the record was usable.
	ImportSession(session MigratingSession) bool
}
