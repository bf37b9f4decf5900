// Package tokens provides per-session access and refresh token retrieval,
// expiry checking, and refresh on top of a storage backend.
package tokens

import (
	"context"

	"github.com/identitybridge/ssoclient/api"
	"github.com/identitybridge/ssoclient/storage"
)

// Cache reads token material through a storage backend and refreshes access
// tokens through the network collaborator. Reads are non-blocking;
// RefreshAccessToken blocks and must run on a caller-chosen worker.
type Cache struct {
	backend storage.Backend
	client  api.Client
}

// New builds a token cache over backend and client.
func New(backend storage.Backend, client api.Client) *Cache {
	return &Cache{backend: backend, client: client}
}

// AccessToken returns guid's unexpired access token, or "". It is a pure
// read with no side effects.
func (c *Cache) AccessToken(guid string) string {
	return c.backend.AccessToken(guid)
}

// RefreshToken returns guid's refresh token, or "". It is a pure read with
// no side effects.
func (c *Cache) RefreshToken(guid string) string {
	return c.backend.RefreshToken(guid)
}

// InvalidateAccessToken clears guid's access token only when the stored
// token still equals token.
func (c *Cache) InvalidateAccessToken(guid, token string) {
	c.backend.RemoveAccessToken(guid, token)
}

// InvalidateRefreshToken clears guid's refresh token only when the stored
// token still equals token.
func (c *Cache) InvalidateRefreshToken(guid, token string) {
	c.backend.RemoveRefreshToken(guid, token)
}

// RefreshAccessToken exchanges guid's refresh token for a fresh access
// token, stores the resulting grant, and returns the new token. It returns
// "" without error when the session has no refresh token or the provider
// rejected it (the rejected refresh token is invalidated compare-and-clear).
// Transport failures surface as *api.SocketError.
//
// A concurrent RemoveAccessToken racing a completing refresh is safe: the
// backend's compare-and-clear contract means a stale removal targeting the
// old token value never clears the freshly stored one.
func (c *Cache) RefreshAccessToken(ctx context.Context, guid string) (string, error) {
	refreshToken := c.backend.RefreshToken(guid)
	if refreshToken == "" {
		return "", nil
	}

	fields, err := c.client.ExchangeRefreshTokenForGrant(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if fields.Has(api.FieldError) {
		// the provider no longer honors this refresh token
		c.backend.RemoveRefreshToken(guid, refreshToken)
		return "", nil
	}

	if !c.backend.StoreGrant(guid, fields) {
		return "", nil
	}
	return c.backend.AccessToken(guid), nil
}
