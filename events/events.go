// Package events fans session lifecycle notifications out to registered
// listeners. Dispatch is synchronous and unbuffered: a single listener
// observes events in the order they were fired, but no ordering is
// guaranteed across distinct listeners.
package events

import "sync"

// Listener receives session lifecycle notifications. Implementations must
// not block for long; they are invoked synchronously on the goroutine that
// triggered the event.
type Listener interface {
	// LoginEvent fires after a session was established for guid.
	LoginEvent(guid string)

	// LogoutEvent fires after guid's auth state was removed. changingUser is
	// true when the logout is part of a switch to a different user rather
	// than a plain logout.
	LogoutEvent(guid string, changingUser bool)

	// ChangeDefaultSessionEvent fires after the default session switched to
	// guid. It never fires for a no-op switch to the already-default guid.
	ChangeDefaultSessionEvent(guid string)

	// AttributesUpdatedEvent fires after fresh attributes were stored for
	// guid.
	AttributesUpdatedEvent(guid string)
}

// Manager is the fan-out point for session lifecycle events. The zero value
// is not usable; construct with NewManager. Manager itself satisfies
// Listener so components can simply fire into it.
type Manager struct {
	mu        sync.RWMutex
	listeners []Listener
}

var _ Listener = (*Manager)(nil)

// NewManager returns an empty fan-out manager.
func NewManager() *Manager {
	return &Manager{}
}

// AddListener registers l for all future events.
func (m *Manager) AddListener(l Listener) {
	if l == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// RemoveListener unregisters a previously added listener.
func (m *Manager) RemoveListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, registered := range m.listeners {
		if registered == l {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return
		}
	}
}

func (m *Manager) snapshot() []Listener {
	m.mu.RLock()
	defer m.mu.RUnlock()
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	return listeners
}

func (m *Manager) LoginEvent(guid string) {
	for _, l := range m.snapshot() {
		l.LoginEvent(guid)
	}
}

func (m *Manager) LogoutEvent(guid string, changingUser bool) {
	for _, l := range m.snapshot() {
		l.LogoutEvent(guid, changingUser)
	}
}

func (m *Manager) ChangeDefaultSessionEvent(guid string) {
	for _, l := range m.snapshot() {
		l.ChangeDefaultSessionEvent(guid)
	}
}

func (m *Manager) AttributesUpdatedEvent(guid string) {
	for _, l := range m.snapshot() {
		l.AttributesUpdatedEvent(guid)
	}
}
