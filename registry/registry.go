// Package registry tracks which guids are known sessions and which one is
// the default, mediating default-session switching with validation.
package registry

import (
	"sort"

	"github.com/identitybridge/ssoclient/events"
	"github.com/identitybridge/ssoclient/storage"
)

// Registry wraps a storage backend with session bookkeeping. It holds no
// cached copies of its own; every read goes back to the backend.
type Registry struct {
	backend storage.Backend
	events  *events.Manager
}

// New builds a registry over backend, firing switch events into ev.
func New(backend storage.Backend, ev *events.Manager) *Registry {
	return &Registry{backend: backend, events: ev}
}

// Sessions returns every known session guid.
func (r *Registry) Sessions() []string {
	return r.backend.Sessions()
}

// IsValidSession reports whether guid is a known session with token
// material.
func (r *Registry) IsValidSession(guid string) bool {
	return r.backend.IsValidSession(guid)
}

// SetDefaultSession switches the default session to guid. It fails with
// storage.ErrInvalidSession when guid has no valid session, and fires
// exactly one change event per actual change; switching to the
// already-default guid is a no-op.
func (r *Registry) SetDefaultSession(guid string) error {
	if !r.backend.IsValidSession(guid) {
		return storage.ErrInvalidSession
	}
	if guid == r.backend.DefaultGUID() {
		return nil
	}
	if err := r.backend.SetDefaultGUID(guid); err != nil {
		return err
	}
	r.events.ChangeDefaultSessionEvent(guid)
	return nil
}

// DefaultSessionGUID returns the default session's guid, lazily resolving an
// unset default to the lexically lowest known session rather than leaving it
// ambiguous. It returns "" only when no sessions exist.
func (r *Registry) DefaultSessionGUID() string {
	if guid := r.backend.DefaultGUID(); guid != "" {
		return guid
	}

	sessions := r.backend.Sessions()
	if len(sessions) == 0 {
		return ""
	}
	sort.Strings(sessions)
	guid := sessions[0]
	_ = r.backend.SetDefaultGUID(guid)
	return guid
}

// Logout clears guid's auth state, firing the logout event. The backend
// drops the default pointer when it pointed at guid.
func (r *Registry) Logout(guid string) {
	r.backend.ClearAuthState(guid, true)
}
