// Package memstore provides an in-memory prefstore.Store, useful for tests
// and for hosts that keep session state for the lifetime of the process
// only.
package memstore

import (
	"sync"

	"github.com/identitybridge/ssoclient/storage/prefstore"
)

// Store is a process-local key-value store.
type Store struct {
	mu     sync.Mutex
	values map[string]string
}

var _ prefstore.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{values: make(map[string]string)}
}

// All returns a copy of every stored pair.
func (s *Store) All() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make(map[string]string, len(s.values))
	for k, v := range s.values {
		all[k] = v
	}
	return all, nil
}

// Apply deletes remove, then writes set, atomically.
func (s *Store) Apply(set map[string]string, remove []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range remove {
		delete(s.values, k)
	}
	for k, v := range set {
		s.values[k] = v
	}
	return nil
}
