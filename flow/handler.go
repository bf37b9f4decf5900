package flow

import "net/url"

// Callbacks is the surface a host supplies to observe handshake outcomes.
// The host is responsible for marshaling these calls onto its own UI-facing
// thread.
type Callbacks interface {
	// OnAuthorizeSuccess fires when the redirect URI arrived with an
	// authorization code.
	OnAuthorizeSuccess(uri *url.URL, code, state string)

	// OnAuthorizeError fires when the handshake failed; errorCode is the
	// provider's error parameter and may be empty (load and TLS failures
	// carry none).
	OnAuthorizeError(uri *url.URL, errorCode string)
}

// Handler drives host callbacks from classifier results. The callbacks and
// the external opener are back-references the handler never owns and never
// assumes are live: both may be nil, and every use tolerates absence.
type Handler struct {
	classifier   *Classifier
	callbacks    Callbacks
	openExternal func(*url.URL)
}

// NewHandler builds a handler over classifier. callbacks and openExternal
// may each be nil.
func NewHandler(classifier *Classifier, callbacks Callbacks, openExternal func(*url.URL)) *Handler {
	return &Handler{classifier: classifier, callbacks: callbacks, openExternal: openExternal}
}

// SetCallbacks swaps the host back-reference; nil detaches it.
func (h *Handler) SetCallbacks(callbacks Callbacks) {
	h.callbacks = callbacks
}

// HandleNavigation classifies a navigated URI and dispatches the outcome.
// It reports whether the host must suppress loading the URI in the embedded
// view (the handshake consumed it, or it belongs to the platform's default
// handler).
func (h *Handler) HandleNavigation(uri *url.URL) bool {
	classification := h.classifier.Classify(uri)

	switch classification.Kind {
	case KindSuccess:
		if h.callbacks != nil {
			h.callbacks.OnAuthorizeSuccess(classification.URI, classification.Code, classification.State)
		}
		return true

	case KindAuthError:
		if h.callbacks != nil {
			h.callbacks.OnAuthorizeError(classification.URI, classification.ErrorCode)
		}
		return true

	case KindProviderInternal, KindSelfService:
		return false

	default:
		if h.openExternal != nil {
			h.openExternal(classification.URI)
		}
		return true
	}
}

// HandleLoadError reports a generic page load failure. Failures on the
// provider's login surface become authorization errors with no error code;
// anything else is ignored.
func (h *Handler) HandleLoadError(failingURI *url.URL) {
	classification, ok := h.classifier.ClassifyLoadError(failingURI)
	if !ok || h.callbacks == nil {
		return
	}
	h.callbacks.OnAuthorizeError(classification.URI, "")
}

// HandleTLSError reports a TLS failure, with the same mapping as
// HandleLoadError.
func (h *Handler) HandleTLSError(failingURI *url.URL) {
	h.HandleLoadError(failingURI)
}
