package flow_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/identitybridge/ssoclient/flow"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	uri, err := url.Parse(raw)
	require.NoError(t, err)
	return uri
}

func newClassifier(t *testing.T, selfServiceEnabled bool) *flow.Classifier {
	t.Helper()
	return flow.NewClassifier(
		mustParse(t, "https://app.example.com/callback"),
		mustParse(t, "https://id.example.com/sso/login"),
		mustParse(t, "https://id.example.com/sso/service/selfservice"),
		selfServiceEnabled,
	)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name               string
		uri                string
		selfServiceEnabled bool
		want               flow.Kind
		wantCode           string
		wantState          string
		wantErrorCode      string
		wantExternal       bool
	}{
		{
			name:      "redirect with code",
			uri:       "https://app.example.com/callback?code=abc123&state=xyz",
			want:      flow.KindSuccess,
			wantCode:  "abc123",
			wantState: "xyz",
		},
		{
			name: "redirect with code and no state",
			uri:  "https://app.example.com/callback?code=abc123",
			want: flow.KindSuccess, wantCode: "abc123",
		},
		{
			name:          "redirect with provider error",
			uri:           "https://app.example.com/callback?error=access_denied",
			want:          flow.KindAuthError,
			wantErrorCode: "access_denied",
		},
		{
			name: "redirect with neither code nor error",
			uri:  "https://app.example.com/callback",
			want: flow.KindAuthError,
		},
		{
			name: "redirect match ignores fragment",
			uri:  "https://app.example.com/callback?code=abc123#section",
			want: flow.KindSuccess, wantCode: "abc123",
		},
		{
			name: "scheme and host match case-insensitively",
			uri:  "HTTPS://APP.example.com/callback?code=abc123",
			want: flow.KindSuccess, wantCode: "abc123",
		},
		{
			name: "path matches case-sensitively",
			uri:  "https://app.example.com/CALLBACK?code=abc123",
			want: flow.KindExternal, wantExternal: true,
		},
		{
			name: "login surface",
			uri:  "https://id.example.com/sso/login?service=foo",
			want: flow.KindProviderInternal,
		},
		{
			name:               "self-service enabled",
			uri:                "https://id.example.com/sso/service/selfservice",
			selfServiceEnabled: true,
			want:               flow.KindSelfService,
		},
		{
			name: "self-service disabled goes external",
			uri:  "https://id.example.com/sso/service/selfservice",
			want: flow.KindExternal, wantExternal: true,
		},
		{
			name: "unrelated uri",
			uri:  "https://elsewhere.example.com/page",
			want: flow.KindExternal, wantExternal: true,
		},
		{
			name: "same host different path",
			uri:  "https://app.example.com/other",
			want: flow.KindExternal, wantExternal: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newClassifier(t, tc.selfServiceEnabled)

			got := c.Classify(mustParse(t, tc.uri))

			require.Equal(t, tc.want, got.Kind)
			require.Equal(t, tc.wantCode, got.Code)
			require.Equal(t, tc.wantState, got.State)
			require.Equal(t, tc.wantErrorCode, got.ErrorCode)
			require.Equal(t, tc.wantExternal, got.OpenExternally)
		})
	}
}

func TestClassifyRedirectBeatsLoginSurface(t *testing.T) {
	// redirect and login share a base URI; the redirect interpretation wins
	shared := mustParse(t, "https://id.example.com/sso/login")
	c := flow.NewClassifier(shared, shared, nil, false)

	got := c.Classify(mustParse(t, "https://id.example.com/sso/login?code=abc123"))
	require.Equal(t, flow.KindSuccess, got.Kind)

	got = c.Classify(mustParse(t, "https://id.example.com/sso/login"))
	require.Equal(t, flow.KindAuthError, got.Kind, "a code-less arrival on the shared base is an auth error, not an internal page")
}

func TestClassifyNilURI(t *testing.T) {
	c := newClassifier(t, false)

	got := c.Classify(nil)
	require.Equal(t, flow.KindExternal, got.Kind)
	require.True(t, got.OpenExternally)
}

func TestClassifyLoadError(t *testing.T) {
	c := newClassifier(t, false)

	got, ok := c.ClassifyLoadError(mustParse(t, "https://id.example.com/sso/login"))
	require.True(t, ok)
	require.Equal(t, flow.KindAuthError, got.Kind)
	require.Empty(t, got.ErrorCode)

	_, ok = c.ClassifyLoadError(mustParse(t, "https://elsewhere.example.com/page"))
	require.False(t, ok)

	_, ok = c.ClassifyLoadError(nil)
	require.False(t, ok)
}
