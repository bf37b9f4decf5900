package ssoclient

import (
	"errors"
	"net/url"
	"os"
	"strings"
)

// Provider surface paths relative to the configured server base URL.
const (
	pathLogin       = "login"
	pathSelfService = "service/selfservice"
)

// Config describes one identity-provider binding. Construct one engine per
// configuration; there is no process-wide instance.
type Config struct {
	// ClientID is the OAuth2 client identifier issued by the provider.
	ClientID string

	// ServerURL is the base URL of the provider, e.g.
	// "https://id.example.com/sso". The login and self-service surfaces
	// hang off this base.
	ServerURL string

	// RedirectURI is the default redirect URI the authorization handshake
	// matches against (scheme+authority+path; query and fragment are
	// ignored when matching).
	RedirectURI string

	// SelfServiceEnabled lets the embedded view load the provider's
	// self-service pages instead of treating them as external.
	SelfServiceEnabled bool

	// Scopes are requested on every login.
	Scopes []string
}

// Validate reports the first missing required field.
func (c Config) Validate() error {
	if c.ClientID == "" {
		return errors.New("[Config] ClientID is required")
	}
	if c.ServerURL == "" {
		return errors.New("[Config] ServerURL is required")
	}
	if c.RedirectURI == "" {
		return errors.New("[Config] RedirectURI is required")
	}
	return nil
}

func (c Config) serverURI(relative string) (*url.URL, error) {
	base, err := url.Parse(strings.TrimSuffix(c.ServerURL, "/") + "/")
	if err != nil {
		return nil, err
	}
	rel, err := url.Parse(relative)
	if err != nil {
		return nil, err
	}
	return base.ResolveReference(rel), nil
}

// Environment variables understood by ConfigFromEnv.
const (
	envClientID    = "SSO_CLIENT_ID"
	envServerURL   = "SSO_SERVER_URL"
	envRedirectURI = "SSO_REDIRECT_URI"
	envSelfService = "SSO_SELF_SERVICE_ENABLED"
	envScopes      = "SSO_SCOPES"
)

// ConfigFromEnv populates a Config from the environment. Scopes are
// space-separated. The result still needs Validate.
func ConfigFromEnv() Config {
	cfg := Config{
		ClientID:           getEnv(envClientID, ""),
		ServerURL:          getEnv(envServerURL, ""),
		RedirectURI:        getEnv(envRedirectURI, ""),
		SelfServiceEnabled: getEnv(envSelfService, "false") == "true",
	}
	if scopes := getEnv(envScopes, ""); scopes != "" {
		cfg.Scopes = strings.Fields(scopes)
	}
	return cfg
}

func getEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
