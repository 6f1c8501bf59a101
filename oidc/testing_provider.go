// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/require"

	"github.com/kopano-dev/get-access-token/oidc/internal/strutils"
	sdkHttp "github.com/kopano-dev/get-access-token/sdk/http"
)

// TestProvider is a local server that implements just enough of an OIDC
// provider for the authorization code flow: discovery, /auth, and /token. It
// makes writing tests much easier. Tests configure it with the Set* methods
// and inspect it with TokenRequests().
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string
	signingKey *ecdsa.PrivateKey

	mu                     sync.Mutex
	clientID               string
	clientSecret           string
	expectedAuthCode       string
	allowedRedirectURIs    []string
	replyAccessToken       string
	replyTokenType         string
	replyExpiresIn         int64
	replyRefreshToken      string
	issueIDToken           bool
	customClaims           map[string]interface{}
	tokenErrorStatus       int
	invalidTokenJSON       bool
	omitAuthEndpoint       bool
	omitTokenEndpoint      bool
	discoveryDelay         time.Duration
	tokenRequests          int
	lastTokenRequestValues url.Values

	t *testing.T
}

// StartTestProvider creates and starts a disposable TestProvider. It's
// stopped when the test ends.
//
// Supported options:
//
//	WithTestPort
//	WithNoTLS
func StartTestProvider(t *testing.T, opt ...Option) *TestProvider {
	t.Helper()
	require := require.New(t)
	opts := getTestProviderOpts(opt...)

	p := &TestProvider{
		t:                   t,
		allowedRedirectURIs: []string{"http://localhost:8080/"},
		clientID:            DefaultClientID,
		expectedAuthCode:    "test-code",
		replyAccessToken:    "test-access-token",
		replyTokenType:      "Bearer",
		replyExpiresIn:      3600,
		customClaims:        map[string]interface{}{},
	}
	_, p.signingKey = TestGenerateKeys(t)

	p.httpServer = httptestNewUnstartedServerWithPort(t, p, opts.withPort)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	switch {
	case opts.withNoTLS:
		p.httpServer.Start()
	default:
		p.httpServer.StartTLS()
		var buf bytes.Buffer
		err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: p.httpServer.Certificate().Raw})
		require.NoError(err)
		p.caCert = buf.String()
	}
	t.Cleanup(p.Stop)
	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// Addr returns the current base URL for the test provider's running webserver,
// which is also its issuer.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// CACert returns the pem-encoded CA certificate used by the test provider's
// HTTPS server. It's empty when the provider was started WithNoTLS.
func (p *TestProvider) CACert() string { return p.caCert }

// HTTPClient returns a client that trusts the test provider.
func (p *TestProvider) HTTPClient() *http.Client {
	p.t.Helper()
	c, err := sdkHttp.NewClient(p.caCert, false)
	require.NoError(p.t, err)
	return c
}

// SetClientCreds is for configuring the client information required for the
// flow. An empty secret accepts requests without one.
func (p *TestProvider) SetClientCreds(clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
	p.clientSecret = clientSecret
}

// ClientCreds returns the configured client id and secret.
func (p *TestProvider) ClientCreds() (clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clientID, p.clientSecret
}

// SetExpectedAuthCode configures the auth code to return from /auth and the
// allowed auth code for /token. An empty code makes /auth deny access.
func (p *TestProvider) SetExpectedAuthCode(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedAuthCode = code
}

// SetAllowedRedirectURIs configures the allowed redirect URIs. If not
// configured "http://localhost:8080/" is used.
func (p *TestProvider) SetAllowedRedirectURIs(uris []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowedRedirectURIs = uris
}

// SetTokenReply configures the access_token, token_type and expires_in
// returned by /token. A zero expiresIn omits it.
func (p *TestProvider) SetTokenReply(accessToken, tokenType string, expiresIn int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyAccessToken = accessToken
	p.replyTokenType = tokenType
	p.replyExpiresIn = expiresIn
}

// SetRefreshToken configures a refresh_token returned by /token.
func (p *TestProvider) SetRefreshToken(refreshToken string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyRefreshToken = refreshToken
}

// SetIssueIDToken makes /token include a signed id_token carrying the custom
// claims.
func (p *TestProvider) SetIssueIDToken(issue bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issueIDToken = issue
}

// SetCustomClaims lets you set claims to add to the id_token.
func (p *TestProvider) SetCustomClaims(customClaims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customClaims = customClaims
}

// SetTokenErrorStatus forces /token to fail with the given status. Zero
// restores normal replies.
func (p *TestProvider) SetTokenErrorStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenErrorStatus = status
}

// SetInvalidTokenJSON makes /token reply 200 with a body that isn't JSON.
func (p *TestProvider) SetInvalidTokenJSON(invalid bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidTokenJSON = invalid
}

// SetOmitAuthorizationEndpoint removes authorization_endpoint from the
// discovery document.
func (p *TestProvider) SetOmitAuthorizationEndpoint(omit bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitAuthEndpoint = omit
}

// SetOmitTokenEndpoint removes token_endpoint from the discovery document.
func (p *TestProvider) SetOmitTokenEndpoint(omit bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitTokenEndpoint = omit
}

// SetDiscoveryDelay delays discovery responses, or until the client gives
// up.
func (p *TestProvider) SetDiscoveryDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discoveryDelay = d
}

// TokenRequests returns the number of requests made to /token.
func (p *TestProvider) TokenRequests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenRequests
}

// LastTokenRequest returns the form values of the most recent /token request.
func (p *TestProvider) LastTokenRequest() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastTokenRequestValues
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, out interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

func (p *TestProvider) writeAuthErrorResponse(w http.ResponseWriter, req *http.Request, errorCode, errorMessage string) {
	qv := req.URL.Query()
	u, err := url.Parse(qv.Get("redirect_uri"))
	if err != nil || qv.Get("redirect_uri") == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	rv := u.Query()
	rv.Set("state", qv.Get("state"))
	rv.Set("error", errorCode)
	if errorMessage != "" {
		rv.Set("error_description", errorMessage)
	}
	u.RawQuery = rv.Encode()
	http.Redirect(w, req, u.String(), http.StatusFound)
}

func (p *TestProvider) writeTokenErrorResponse(w http.ResponseWriter, statusCode int, errorCode, errorMessage string) error {
	body := struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: errorCode,
		Desc: errorMessage,
	}
	w.WriteHeader(statusCode)
	return p.writeJSON(w, &body)
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path == "/.well-known/openid-configuration" {
		p.mu.Lock()
		delay := p.discoveryDelay
		p.mu.Unlock()
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-req.Context().Done():
				return
			}
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch req.URL.Path {
	case "/.well-known/openid-configuration":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		reply := struct {
			Issuer        string `json:"issuer"`
			AuthEndpoint  string `json:"authorization_endpoint,omitempty"`
			TokenEndpoint string `json:"token_endpoint,omitempty"`
		}{
			Issuer:        p.Addr(),
			AuthEndpoint:  p.Addr() + "/auth",
			TokenEndpoint: p.Addr() + "/token",
		}
		if p.omitAuthEndpoint {
			reply.AuthEndpoint = ""
		}
		if p.omitTokenEndpoint {
			reply.TokenEndpoint = ""
		}
		_ = p.writeJSON(w, &reply)

	case "/auth":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		qv := req.URL.Query()
		switch {
		case !strutils.StrListContains(p.allowedRedirectURIs, qv.Get("redirect_uri")):
			w.WriteHeader(http.StatusBadRequest)
			return
		case qv.Get("response_type") != "code":
			p.writeAuthErrorResponse(w, req, "unsupported_response_type", "")
			return
		case qv.Get("client_id") != p.clientID:
			p.writeAuthErrorResponse(w, req, "unauthorized_client", "unknown client_id")
			return
		case qv.Get("state") == "":
			p.writeAuthErrorResponse(w, req, "invalid_request", "missing state parameter")
			return
		case p.expectedAuthCode == "":
			p.writeAuthErrorResponse(w, req, "access_denied", "user denied access")
			return
		}
		u, _ := url.Parse(qv.Get("redirect_uri"))
		rv := u.Query()
		rv.Set("state", qv.Get("state"))
		rv.Set("code", p.expectedAuthCode)
		u.RawQuery = rv.Encode()
		http.Redirect(w, req, u.String(), http.StatusFound)

	case "/token":
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.tokenRequests++
		if err := req.ParseForm(); err != nil {
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		p.lastTokenRequestValues = req.PostForm

		switch {
		case p.tokenErrorStatus != 0:
			_ = p.writeTokenErrorResponse(w, p.tokenErrorStatus, "server_error", "forced error")
			return
		case req.PostForm.Get("grant_type") != "authorization_code":
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", "bad grant_type")
			return
		case !strutils.StrListContains(p.allowedRedirectURIs, req.PostForm.Get("redirect_uri")):
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", "redirect_uri is not allowed")
			return
		case req.PostForm.Get("client_id") != p.clientID:
			_ = p.writeTokenErrorResponse(w, http.StatusUnauthorized, "invalid_client", "unknown client_id")
			return
		case p.clientSecret != "" && req.PostForm.Get("client_secret") != p.clientSecret:
			_ = p.writeTokenErrorResponse(w, http.StatusUnauthorized, "invalid_client", "bad client_secret")
			return
		case p.expectedAuthCode == "" || req.PostForm.Get("code") != p.expectedAuthCode:
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_grant", "unexpected auth code")
			return
		}

		if p.invalidTokenJSON {
			_, _ = w.Write([]byte("It's not a token!"))
			return
		}

		reply := struct {
			AccessToken  string `json:"access_token"`
			TokenType    string `json:"token_type,omitempty"`
			ExpiresIn    int64  `json:"expires_in,omitempty"`
			RefreshToken string `json:"refresh_token,omitempty"`
			IDToken      string `json:"id_token,omitempty"`
		}{
			AccessToken:  p.replyAccessToken,
			TokenType:    p.replyTokenType,
			ExpiresIn:    p.replyExpiresIn,
			RefreshToken: p.replyRefreshToken,
		}
		if p.issueIDToken {
			now := time.Now()
			reply.IDToken = TestSignJWT(p.t, p.signingKey, jwt.Claims{
				Subject:   "alice@example.com",
				Issuer:    p.Addr(),
				IssuedAt:  jwt.NewNumericDate(now),
				NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
				Expiry:    jwt.NewNumericDate(now.Add(5 * time.Minute)),
				Audience:  jwt.Audience{p.clientID},
			}, p.customClaims)
		}
		_ = p.writeJSON(w, &reply)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// testProviderOptions is the set of available options for TestProvider
// functions
type testProviderOptions struct {
	withPort  int
	withNoTLS bool
}

// testProviderDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func testProviderDefaults() testProviderOptions {
	return testProviderOptions{}
}

// getTestProviderOpts gets the test provider defaults and applies the opt
// overrides passed in
func getTestProviderOpts(opt ...Option) testProviderOptions {
	opts := testProviderDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithTestPort provides an optional port for the test provider. Zero picks a
// free port.
//
// Valid for: TestProvider.StartTestProvider
func WithTestPort(port int) Option {
	return func(o interface{}) {
		if o, ok := o.(*testProviderOptions); ok {
			o.withPort = port
		}
	}
}

// WithNoTLS provides the option to not use TLS for the test provider.
//
// Valid for: TestProvider.StartTestProvider
func WithNoTLS() Option {
	return func(o interface{}) {
		if o, ok := o.(*testProviderOptions); ok {
			o.withNoTLS = true
		}
	}
}

// httptestNewUnstartedServerWithPort is roughly the same as
// httptest.NewUnstartedServer() but allows the caller to explicitly choose the
// port if desired.
func httptestNewUnstartedServerWithPort(t *testing.T, handler http.Handler, port int) *httptest.Server {
	t.Helper()
	require := require.New(t)

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	l, err := net.Listen("tcp", addr)
	require.NoError(err)

	return &httptest.Server{
		Listener: l,
		Config:   &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second},
	}
}
