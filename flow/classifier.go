// Package flow contains the pure decision logic of the web-based login
// handshake: building the provider authorize URI, classifying navigated
// URIs, and driving host callbacks from classification results.
package flow

import (
	"net/url"
	"strings"
)

// Kind is the classification of a navigated URI during the authorization
// handshake.
type Kind int

const (
	// KindSuccess is a redirect-URI match carrying an authorization code.
	KindSuccess Kind = iota

	// KindAuthError is a redirect-URI match without a code, or a provider
	// page that failed to load.
	KindAuthError

	// KindProviderInternal is a page on the provider's login surface; the
	// embedded view should load it.
	KindProviderInternal

	// KindSelfService is a page on the provider's self-service surface; the
	// embedded view should load it when self-service is enabled.
	KindSelfService

	// KindExternal is any other URI; the host must hand it to the
	// platform's default URI handler instead of loading it embedded.
	KindExternal
)

// Classification is the outcome of classifying one navigated URI.
type Classification struct {
	Kind Kind
	URI  *url.URL

	// Code and State are set for KindSuccess.
	Code  string
	State string

	// ErrorCode is set for KindAuthError when the provider reported one.
	ErrorCode string

	// OpenExternally is set for KindExternal: the URI belongs in the
	// platform's default handler, not the embedded view.
	OpenExternally bool
}

const (
	paramCode  = "code"
	paramState = "state"
	paramError = "error"
)

// Classifier classifies navigation events against the handshake's reference
// URIs. It is pure decision logic: no I/O, safe for concurrent use.
type Classifier struct {
	redirectURI        *url.URL
	loginURI           *url.URL
	selfServiceURI     *url.URL
	selfServiceEnabled bool
}

// NewClassifier builds a classifier. selfServiceURI may be nil when the
// configuration does not enable self-service.
func NewClassifier(redirectURI, loginURI, selfServiceURI *url.URL, selfServiceEnabled bool) *Classifier {
	return &Classifier{
		redirectURI:        redirectURI,
		loginURI:           loginURI,
		selfServiceURI:     selfServiceURI,
		selfServiceEnabled: selfServiceEnabled,
	}
}

// baseURIEqual reports whether two URIs match on scheme, authority and path.
// Query and fragment are ignored.
func baseURIEqual(reference, uri *url.URL) bool {
	if reference == nil || uri == nil {
		return false
	}
	return strings.EqualFold(reference.Scheme, uri.Scheme) &&
		strings.EqualFold(reference.Host, uri.Host) &&
		reference.Path == uri.Path
}

// Classify decides what a navigated URI means for the handshake. Evaluation
// order is fixed: redirect-URI match first, then the provider login
// surface, then self-service (only when enabled), and everything else is
// external.
func (c *Classifier) Classify(uri *url.URL) Classification {
	if uri == nil {
		return Classification{Kind: KindExternal, OpenExternally: true}
	}
	query := uri.Query()

	switch {
	case baseURIEqual(c.redirectURI, uri):
		if code := query.Get(paramCode); code != "" {
			return Classification{
				Kind:  KindSuccess,
				URI:   uri,
				Code:  code,
				State: query.Get(paramState),
			}
		}
		return Classification{
			Kind:      KindAuthError,
			URI:       uri,
			ErrorCode: query.Get(paramError),
		}

	case baseURIEqual(c.loginURI, uri):
		return Classification{Kind: KindProviderInternal, URI: uri}

	case c.selfServiceEnabled && baseURIEqual(c.selfServiceURI, uri):
		return Classification{Kind: KindSelfService, URI: uri}

	default:
		return Classification{Kind: KindExternal, URI: uri, OpenExternally: true}
	}
}

// ClassifyLoadError maps a TLS or generic load failure to an authorization
// error when the failing URI is on the provider's login surface. The second
// return is false when the failure is unrelated to the handshake.
func (c *Classifier) ClassifyLoadError(failingURI *url.URL) (Classification, bool) {
	if !baseURIEqual(c.loginURI, failingURI) {
		return Classification{}, false
	}
	return Classification{Kind: KindAuthError, URI: failingURI}, true
}
