// Package prefstore implements the storage backend on top of a flat
// key-value preference store. The single-session Backend keeps exactly one
// usable session in a single slot; MultiBackend generalizes the same layout
// to many concurrent sessions via composite keys.
package prefstore

// Store is the flat key-value substrate a preference backend persists into.
// The mechanics of durability belong to the implementation; the backend only
// requires string keys and values and an atomic batched write.
type Store interface {
	// All returns a snapshot of every stored key/value pair.
	All() (map[string]string, error)

	// Apply atomically deletes every key in remove and then writes every
	// pair in set. A key present in both is written, not deleted.
	Apply(set map[string]string, remove []string) error
}
