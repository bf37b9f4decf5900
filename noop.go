package ssoclient

import (
	"context"
	"net/url"

	"github.com/identitybridge/ssoclient/attributes"
	"github.com/identitybridge/ssoclient/events"
	"github.com/identitybridge/ssoclient/flow"
	"github.com/identitybridge/ssoclient/storage"
)

// NoOp returns an inert SessionManager for hosts that compile against the
// API without a configured provider. Every read reports no sessions, every
// mutation is ignored, and the flow helpers return nil.
func NoOp() SessionManager {
	return &noOpManager{events: events.NewManager()}
}

type noOpManager struct {
	events *events.Manager
}

var _ SessionManager = (*noOpManager)(nil)

func (*noOpManager) Sessions() []string { return nil }

func (*noOpManager) DefaultSessionGUID() string { return "" }

func (*noOpManager) SetDefaultSession(string) error { return storage.ErrInvalidSession }

func (*noOpManager) IsValidSession(string) bool { return false }

func (*noOpManager) Logout(string) {}

func (*noOpManager) AccessToken(string) string { return "" }

func (*noOpManager) RefreshToken(string) string { return "" }

func (*noOpManager) RefreshAccessToken(context.Context, string) (string, error) { return "", nil }

func (*noOpManager) Attributes(string) (attributes.Set, error) {
	return attributes.Set{}, storage.ErrUnsupportedOperation
}

func (*noOpManager) LoadAttributes(context.Context, string) (bool, error) { return false, nil }

func (*noOpManager) ProcessCodeGrant(context.Context, string, string) (string, error) {
	return "", nil
}

func (*noOpManager) ProcessPasswordGrant(context.Context, string, string) (string, error) {
	return "", nil
}

func (*noOpManager) LoginURIBuilder() *flow.LoginURIBuilder { return nil }

func (*noOpManager) DefaultRedirectURI() *url.URL { return nil }

func (*noOpManager) Classifier() *flow.Classifier { return nil }

func (*noOpManager) NewFlowHandler(flow.Callbacks, func(*url.URL)) *flow.Handler { return nil }

func (m *noOpManager) Events() *events.Manager { return m.events }
