package flow

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// LoginURIBuilder assembles the provider authorize URI that starts the
// web-based handshake. The zero value is not usable; obtain one from
// NewLoginURIBuilder and chain the setters.
type LoginURIBuilder struct {
	authorizeURI *url.URL
	clientID     string
	redirectURI  *url.URL
	scopes       []string
	state        string
}

// NewLoginURIBuilder starts a builder for the given authorize endpoint,
// client and default redirect URI.
func NewLoginURIBuilder(authorizeURI *url.URL, clientID string, defaultRedirectURI *url.URL) *LoginURIBuilder {
	return &LoginURIBuilder{
		authorizeURI: authorizeURI,
		clientID:     clientID,
		redirectURI:  defaultRedirectURI,
	}
}

// RedirectURI overrides the redirect URI for this login only.
func (b *LoginURIBuilder) RedirectURI(uri *url.URL) *LoginURIBuilder {
	b.redirectURI = uri
	return b
}

// Scope appends OAuth scopes to request.
func (b *LoginURIBuilder) Scope(scopes ...string) *LoginURIBuilder {
	b.scopes = append(b.scopes, scopes...)
	return b
}

// State pins the state parameter; when unset, Build generates one.
func (b *LoginURIBuilder) State(state string) *LoginURIBuilder {
	b.state = state
	return b
}

// Build returns the authorize URI and the state parameter embedded in it.
// The host must remember the state and compare it against the state echoed
// on the redirect.
func (b *LoginURIBuilder) Build() (*url.URL, string) {
	state := b.state
	if state == "" {
		state = uuid.NewString()
	}

	query := url.Values{}
	query.Set("response_type", paramCode)
	query.Set("client_id", b.clientID)
	query.Set(paramState, state)
	if b.redirectURI != nil {
		query.Set("redirect_uri", b.redirectURI.String())
	}
	if len(b.scopes) > 0 {
		query.Set("scope", strings.Join(b.scopes, " "))
	}

	built := *b.authorizeURI
	built.RawQuery = query.Encode()
	return &built, state
}
