// Package profile caches per-session profile attributes on top of a storage
// backend, with a network fetch fallback.
package profile

import (
	"context"

	"github.com/identitybridge/ssoclient/api"
	"github.com/identitybridge/ssoclient/attributes"
	"github.com/identitybridge/ssoclient/events"
	"github.com/identitybridge/ssoclient/storage"
	"github.com/identitybridge/ssoclient/tokens"
)

// Cache reads attribute snapshots through a storage backend and loads fresh
// ones from the network collaborator. Attributes is a non-blocking read;
// Load blocks and must run on a caller-chosen worker.
type Cache struct {
	backend storage.Backend
	client  api.Client
	tokens  *tokens.Cache
	events  *events.Manager
}

// New builds an attribute cache over backend, client and the token cache.
func New(backend storage.Backend, client api.Client, tok *tokens.Cache, ev *events.Manager) *Cache {
	return &Cache{backend: backend, client: client, tokens: tok, events: ev}
}

// Attributes returns whatever snapshot is durable for guid, including an
// explicitly invalid one. A simply-stale cache is never an error; only a
// single-session backend asked about a foreign guid fails, with
// storage.ErrUnsupportedOperation.
func (c *Cache) Attributes(guid string) (attributes.Set, error) {
	return c.backend.Attributes(guid)
}

// Load fetches a fresh attribute snapshot for guid from the provider and
// stores it. It returns false without error when guid is no longer the
// addressable session by the time the response arrives (an expected race,
// not a fault), or when no usable access token could be obtained. Callers
// must not read false as a network failure: transport failures surface
// separately as *api.SocketError.
func (c *Cache) Load(ctx context.Context, guid string) (bool, error) {
	token := c.tokens.AccessToken(guid)
	if token == "" {
		refreshed, err := c.tokens.RefreshAccessToken(ctx, guid)
		if err != nil {
			return false, err
		}
		token = refreshed
	}
	if token == "" {
		return false, nil
	}

	fields, err := c.client.FetchAttributes(ctx, token)
	if err != nil {
		return false, err
	}
	if fields.Has(api.FieldError) {
		// the provider rejected the access token; invalidate it so the next
		// caller refreshes instead of replaying a dead token
		c.tokens.InvalidateAccessToken(guid, token)
		return false, nil
	}

	if !c.backend.IsValidSession(guid) {
		return false, nil
	}
	c.backend.StoreAttributes(guid, fields)

	c.events.AttributesUpdatedEvent(guid)
	return true, nil
}
