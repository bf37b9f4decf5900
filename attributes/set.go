package attributes

import "time"

// Raw holds the durable attribute fields a storage backend has on record for
// a session. Backends construct a Set from it; everything else reads the Set.
type Raw struct {
	GUID      string    // owner of the session the attributes were read for
	Username  string    // provider username, may be absent
	Email     string    // attr_email
	FirstName string    // attr_first_name
	LastName  string    // attr_last_name
	LoadedAt  time.Time // when the attributes were last fetched; zero when never
	Valid     bool      // whether the stored attributes belong to GUID
}

// Set is an immutable snapshot of a session's profile attributes plus
// freshness metadata. An invalid Set still carries its owner guid, but every
// profile field reads as empty so attributes from a previous session can
// never leak across a session switch.
type Set struct {
	raw Raw
}

// New builds a Set from the backend's durable record.
func New(raw Raw) Set {
	return Set{raw: raw}
}

// GUID returns the guid of the session the attributes were requested for.
func (s Set) GUID() string {
	return s.raw.GUID
}

// Valid reports whether the stored attributes belong to the session's
// current guid and have actually been loaded at least once.
func (s Set) Valid() bool {
	return s.raw.Valid
}

// LoadedAt returns when the attributes were last fetched from the provider,
// or the Unix epoch when they were never loaded (or are invalid).
func (s Set) LoadedAt() time.Time {
	if !s.raw.Valid || s.raw.LoadedAt.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return s.raw.LoadedAt
}

// Username returns the provider username, falling back to the email address
// when the provider did not report a distinct username.
func (s Set) Username() string {
	if !s.raw.Valid {
		return ""
	}
	if s.raw.Username != "" {
		return s.raw.Username
	}
	return s.raw.Email
}

// Email returns the email address, or "" when the Set is invalid.
func (s Set) Email() string {
	if !s.raw.Valid {
		return ""
	}
	return s.raw.Email
}

// FirstName returns the first name, or "" when the Set is invalid.
func (s Set) FirstName() string {
	if !s.raw.Valid {
		return ""
	}
	return s.raw.FirstName
}

// LastName returns the last name, or "" when the Set is invalid.
func (s Set) LastName() string {
	if !s.raw.Valid {
		return ""
	}
	return s.raw.LastName
}
