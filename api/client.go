package api

import "context"

// Client is the network collaborator that talks to the identity provider.
// Every method is blocking and must never be called from a caller that
// cannot tolerate blocking; timeout policy belongs to the supplied context
// and the underlying transport.
//
// All methods return a *SocketError for transport failures. Provider-level
// failures (an OAuth error response) are not errors: they come back as a
// Fields map carrying the provider's error code under FieldError.
type Client interface {
	// ExchangeCodeForGrant exchanges an authorization code for token material.
	// redirectURI must be the redirect_uri the code was issued for.
	ExchangeCodeForGrant(ctx context.Context, code, redirectURI string) (Fields, error)

	// ExchangePasswordForGrant performs a resource-owner-password-credentials
	// exchange.
	ExchangePasswordForGrant(ctx context.Context, username, password string) (Fields, error)

	// ExchangeRefreshTokenForGrant exchanges a refresh token for a fresh
	// access token.
	ExchangeRefreshTokenForGrant(ctx context.Context, refreshToken string) (Fields, error)

	// FetchAttributes loads the profile attributes visible to accessToken.
	FetchAttributes(ctx context.Context, accessToken string) (Fields, error)
}
