// Package httpapi is the default network collaborator: it speaks to the
// identity provider over HTTP using the standard OAuth2 token endpoint plus
// a JSON attributes endpoint. Hosts with exotic transports can supply their
// own api.Client instead.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/identitybridge/ssoclient/api"
)

// Config configures the default client. Either IssuerURL (for OIDC
// discovery) or the explicit endpoint URLs must be set.
type Config struct {
	// IssuerURL enables endpoint discovery from the provider's
	// well-known configuration.
	IssuerURL string

	// AuthorizeURL and TokenURL override / replace discovery.
	AuthorizeURL string
	TokenURL     string

	// AttributesURL is the profile endpoint; with discovery it defaults to
	// the provider's userinfo endpoint.
	AttributesURL string

	ClientID     string
	ClientSecret string
	Scopes       []string

	// HTTPClient overrides the transport, including its timeout policy.
	HTTPClient *http.Client
}

// Client implements api.Client over HTTP.
type Client struct {
	conf          oauth2.Config
	attributesURL string
	httpClient    *http.Client
}

var _ api.Client = (*Client)(nil)

// New builds a client, performing OIDC discovery when cfg.IssuerURL is set
// and explicit endpoints are not.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("[httpapi.New] client id is required")
	}

	endpoint := oauth2.Endpoint{AuthURL: cfg.AuthorizeURL, TokenURL: cfg.TokenURL}
	attributesURL := cfg.AttributesURL

	if cfg.IssuerURL != "" && (endpoint.TokenURL == "" || endpoint.AuthURL == "") {
		provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
		if err != nil {
			return nil, fmt.Errorf("failed to discover provider endpoints: %w", err)
		}
		endpoint = provider.Endpoint()
		if attributesURL == "" {
			var claims struct {
				UserinfoEndpoint string `json:"userinfo_endpoint"`
			}
			if err := provider.Claims(&claims); err == nil {
				attributesURL = claims.UserinfoEndpoint
			}
		}
		log.Debug().Str("issuer", cfg.IssuerURL).Msg("discovered provider endpoints")
	}
	if endpoint.TokenURL == "" {
		return nil, errors.New("[httpapi.New] a token endpoint is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		conf: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       cfg.Scopes,
		},
		attributesURL: attributesURL,
		httpClient:    httpClient,
	}, nil
}

// withHTTPClient routes the oauth2 library's requests through our client.
func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// grantResult maps a token-endpoint outcome to the flat Fields contract:
// provider-level rejections become a Fields map with an error code,
// transport failures become a SocketError.
func grantResult(op string, token *oauth2.Token, err error) (api.Fields, error) {
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			code := retrieveErr.ErrorCode
			if code == "" {
				code = "invalid_grant"
			}
			log.Warn().Str("error", code).Msg("token endpoint rejected grant")
			return api.Fields{api.FieldError: code}, nil
		}
		return nil, api.NewSocketError(op, err)
	}

	fields := api.Fields{api.FieldAccessToken: token.AccessToken}
	if token.RefreshToken != "" {
		fields[api.FieldRefreshToken] = token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		fields[api.FieldExpiresIn] = strconv.FormatInt(int64(time.Until(token.Expiry).Seconds()), 10)
	}
	if guid, ok := token.Extra(api.FieldGUID).(string); ok && guid != "" {
		fields[api.FieldGUID] = guid
	}
	if username, ok := token.Extra(api.FieldUsername).(string); ok && username != "" {
		fields[api.FieldUsername] = username
	}
	return fields, nil
}

func (c *Client) ExchangeCodeForGrant(ctx context.Context, code, redirectURI string) (api.Fields, error) {
	conf := c.conf
	conf.RedirectURL = redirectURI
	token, err := conf.Exchange(c.withHTTPClient(ctx), code)
	return grantResult("exchange code grant", token, err)
}

func (c *Client) ExchangePasswordForGrant(ctx context.Context, username, password string) (api.Fields, error) {
	token, err := c.conf.PasswordCredentialsToken(c.withHTTPClient(ctx), username, password)
	return grantResult("exchange password grant", token, err)
}

func (c *Client) ExchangeRefreshTokenForGrant(ctx context.Context, refreshToken string) (api.Fields, error) {
	source := c.conf.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	return grantResult("exchange refresh token grant", token, err)
}

func (c *Client) FetchAttributes(ctx context.Context, accessToken string) (api.Fields, error) {
	if c.attributesURL == "" {
		return nil, api.NewSocketError("fetch attributes", errors.New("no attributes endpoint configured"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.attributesURL, nil)
	if err != nil {
		return nil, api.NewSocketError("fetch attributes", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, api.NewSocketError("fetch attributes", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return api.Fields{api.FieldError: "invalid_token"}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, api.NewSocketError("fetch attributes",
			fmt.Errorf("unexpected status %d from attributes endpoint", resp.StatusCode))
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, api.NewSocketError("fetch attributes", err)
	}

	fields := api.Fields{}
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			fields[key] = v
		case float64:
			fields[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			fields[key] = strconv.FormatBool(v)
		}
	}
	// providers commonly report the subject under "sub"
	if !fields.Has(api.FieldGUID) && fields.Has("sub") {
		fields[api.FieldGUID] = fields["sub"]
	}
	return fields, nil
}
