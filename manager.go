// Package ssoclient is a client-side OAuth2 session manager for a single
// identity provider. It authenticates users through an authorization-code
// handshake driven by an embedded web view, persists per-user session state
// across interchangeable storage backends, caches profile attributes, and
// notifies observers of session lifecycle events.
//
// The package is a library consumed by a host application: the host owns
// the web view, the UI-facing thread, and the workers that run the blocking
// operations (grant exchanges, token refresh, attribute loads).
package ssoclient

import (
	"context"
	"errors"
	"net/url"

	"github.com/identitybridge/ssoclient/api"
	"github.com/identitybridge/ssoclient/attributes"
	"github.com/identitybridge/ssoclient/events"
	"github.com/identitybridge/ssoclient/exchange"
	"github.com/identitybridge/ssoclient/flow"
	"github.com/identitybridge/ssoclient/profile"
	"github.com/identitybridge/ssoclient/registry"
	"github.com/identitybridge/ssoclient/storage"
	"github.com/identitybridge/ssoclient/tokens"
)

// SessionManager is the full surface a host programs against. *Manager is
// the working implementation; NoOp returns an inert one.
type SessionManager interface {
	// Sessions returns every known session guid.
	Sessions() []string

	// DefaultSessionGUID returns the active session's guid, or "" when no
	// sessions exist.
	DefaultSessionGUID() string

	// SetDefaultSession switches the active session, failing with
	// storage.ErrInvalidSession for unknown guids.
	SetDefaultSession(guid string) error

	// IsValidSession reports whether guid is a known session with token
	// material.
	IsValidSession(guid string) bool

	// Logout removes guid's session and fires the logout event.
	Logout(guid string)

	// AccessToken returns guid's unexpired access token, or "".
	AccessToken(guid string) string

	// RefreshToken returns guid's refresh token, or "".
	RefreshToken(guid string) string

	// RefreshAccessToken blocks while exchanging the refresh token for a
	// fresh access token.
	RefreshAccessToken(ctx context.Context, guid string) (string, error)

	// Attributes returns guid's cached attribute snapshot.
	Attributes(guid string) (attributes.Set, error)

	// LoadAttributes blocks while fetching a fresh attribute snapshot.
	LoadAttributes(ctx context.Context, guid string) (bool, error)

	// ProcessCodeGrant blocks while exchanging an authorization code; an
	// empty redirectURI means the configured default.
	ProcessCodeGrant(ctx context.Context, code, redirectURI string) (string, error)

	// ProcessPasswordGrant blocks while exchanging resource-owner
	// credentials.
	ProcessPasswordGrant(ctx context.Context, username, password string) (string, error)

	// LoginURIBuilder starts building the provider authorize URI.
	LoginURIBuilder() *flow.LoginURIBuilder

	// DefaultRedirectURI returns the configured redirect URI.
	DefaultRedirectURI() *url.URL

	// Classifier returns the navigation classifier for this configuration.
	Classifier() *flow.Classifier

	// NewFlowHandler builds a navigation handler bound to this
	// configuration; callbacks and openExternal may be nil.
	NewFlowHandler(callbacks flow.Callbacks, openExternal func(*url.URL)) *flow.Handler

	// Events returns the fan-out point for lifecycle listeners.
	Events() *events.Manager
}

// Dependencies are the collaborators a Manager is built from. The same
// events manager must be shared with the backend so backend-originated
// events reach the host's listeners.
type Dependencies struct {
	Backend storage.Backend
	API     api.Client
	Events  *events.Manager
}

// Manager wires the session, token and attribute machinery for one
// provider configuration.
type Manager struct {
	config   Config
	backend  storage.Backend
	events   *events.Manager
	registry *registry.Registry
	tokens   *tokens.Cache
	profile  *profile.Cache
	exchange *exchange.Service

	authorizeURI   *url.URL
	selfServiceURI *url.URL
	redirectURI    *url.URL
}

var _ SessionManager = (*Manager)(nil)

// New validates cfg and deps and wires a Manager.
func New(cfg Config, deps Dependencies) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Backend == nil {
		return nil, errors.New("[New] storage backend is required")
	}
	if deps.API == nil {
		return nil, errors.New("[New] api client is required")
	}
	if deps.Events == nil {
		return nil, errors.New("[New] events manager is required")
	}

	authorizeURI, err := cfg.serverURI(pathLogin)
	if err != nil {
		return nil, errors.New("[New] ServerURL is not a valid URL")
	}
	selfServiceURI, err := cfg.serverURI(pathSelfService)
	if err != nil {
		return nil, errors.New("[New] ServerURL is not a valid URL")
	}
	redirectURI, err := url.Parse(cfg.RedirectURI)
	if err != nil {
		return nil, errors.New("[New] RedirectURI is not a valid URL")
	}

	tokenCache := tokens.New(deps.Backend, deps.API)
	return &Manager{
		config:         cfg,
		backend:        deps.Backend,
		events:         deps.Events,
		registry:       registry.New(deps.Backend, deps.Events),
		tokens:         tokenCache,
		profile:        profile.New(deps.Backend, deps.API, tokenCache, deps.Events),
		exchange:       exchange.New(deps.Backend, deps.API),
		authorizeURI:   authorizeURI,
		selfServiceURI: selfServiceURI,
		redirectURI:    redirectURI,
	}, nil
}

func (m *Manager) Sessions() []string {
	return m.registry.Sessions()
}

func (m *Manager) DefaultSessionGUID() string {
	return m.registry.DefaultSessionGUID()
}

func (m *Manager) SetDefaultSession(guid string) error {
	return m.registry.SetDefaultSession(guid)
}

func (m *Manager) IsValidSession(guid string) bool {
	return m.registry.IsValidSession(guid)
}

func (m *Manager) Logout(guid string) {
	m.registry.Logout(guid)
}

func (m *Manager) AccessToken(guid string) string {
	return m.tokens.AccessToken(guid)
}

func (m *Manager) RefreshToken(guid string) string {
	return m.tokens.RefreshToken(guid)
}

func (m *Manager) RefreshAccessToken(ctx context.Context, guid string) (string, error) {
	return m.tokens.RefreshAccessToken(ctx, guid)
}

func (m *Manager) Attributes(guid string) (attributes.Set, error) {
	return m.profile.Attributes(guid)
}

func (m *Manager) LoadAttributes(ctx context.Context, guid string) (bool, error) {
	return m.profile.Load(ctx, guid)
}

func (m *Manager) ProcessCodeGrant(ctx context.Context, code, redirectURI string) (string, error) {
	if redirectURI == "" {
		redirectURI = m.redirectURI.String()
	}
	return m.exchange.ProcessCodeGrant(ctx, code, redirectURI)
}

func (m *Manager) ProcessPasswordGrant(ctx context.Context, username, password string) (string, error) {
	return m.exchange.ProcessPasswordGrant(ctx, username, password)
}

func (m *Manager) LoginURIBuilder() *flow.LoginURIBuilder {
	builder := flow.NewLoginURIBuilder(m.authorizeURI, m.config.ClientID, m.redirectURI)
	if len(m.config.Scopes) > 0 {
		builder.Scope(m.config.Scopes...)
	}
	return builder
}

func (m *Manager) DefaultRedirectURI() *url.URL {
	return m.redirectURI
}

func (m *Manager) Classifier() *flow.Classifier {
	return flow.NewClassifier(m.redirectURI, m.authorizeURI, m.selfServiceURI, m.config.SelfServiceEnabled)
}

func (m *Manager) NewFlowHandler(callbacks flow.Callbacks, openExternal func(*url.URL)) *flow.Handler {
	return flow.NewHandler(m.Classifier(), callbacks, openExternal)
}

func (m *Manager) Events() *events.Manager {
	return m.events
}
