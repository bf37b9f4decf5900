// Package redisstore provides a prefstore.Store persisted as a single Redis
// hash, for hosts that want session state to survive process restarts or be
// shared across instances.
package redisstore

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/identitybridge/ssoclient/storage/prefstore"
)

// Store persists all preference keys as fields of one Redis hash.
type Store struct {
	client *redis.Client
	key    string
}

var _ prefstore.Store = (*Store)(nil)

// New builds a store over client. key names the hash; it may be empty, in
// which case "ssoclient:session" is used.
func New(client *redis.Client, key string) *Store {
	if key == "" {
		key = "ssoclient:session"
	}
	return &Store{client: client, key: key}
}

// All returns every field of the hash.
func (s *Store) All() (map[string]string, error) {
	return s.client.HGetAll(context.Background(), s.key).Result()
}

// Apply deletes remove and writes set in one transaction.
func (s *Store) Apply(set map[string]string, remove []string) error {
	_, err := s.client.TxPipelined(context.Background(), func(pipe redis.Pipeliner) error {
		if len(remove) > 0 {
			pipe.HDel(context.Background(), s.key, remove...)
		}
		if len(set) > 0 {
			pipe.HSet(context.Background(), s.key, set)
		}
		return nil
	})
	return err
}
