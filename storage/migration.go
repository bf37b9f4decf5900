package storage

import (
	"time"

	"github.com/identitybridge/ssoclient/attributes"
)

// MigratingSession is a complete session record exported from one backend so
// it can be imported into another, e.g. when a host switches from the flat
// preference store to the account store.
type MigratingSession struct {
	GUID         string
	AccessToken  string
	ExpiresAt    time.Time
	RefreshToken string
	Attributes   attributes.Set
}

// Usable reports whether the record carries enough state to recreate a
// working session.
func (s MigratingSession) Usable() bool {
	return s.GUID != "" && s.AccessToken != "" && s.RefreshToken != ""
}

// ExportSession reads guid's full record out of backend for migration. The
// returned record may not be Usable when the session is missing tokens.
func ExportSession(backend Backend, guid string) MigratingSession {
	attrs, err := backend.Attributes(guid)
	if err != nil {
		attrs = attributes.Set{}
	}
	return MigratingSession{
		GUID:         guid,
		AccessToken:  backend.AccessToken(guid),
		RefreshToken: backend.RefreshToken(guid),
		Attributes:   attrs,
	}
}
