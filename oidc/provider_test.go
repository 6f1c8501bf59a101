// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func testProviderConfig(t *testing.T, tp *TestProvider, opt ...Option) *Config {
	t.Helper()
	clientID, clientSecret := tp.ClientCreds()
	if ca := tp.CACert(); ca != "" {
		opt = append([]Option{WithProviderCA(ca)}, opt...)
	}
	c, err := NewConfig(tp.Addr(), clientID, ClientSecret(clientSecret), opt...)
	require.NoError(t, err)
	return c
}

func TestNewProvider(t *testing.T) {
	t.Parallel()
	tp := StartTestProvider(t)

	t.Run("valid", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p, err := NewProvider(context.Background(), testProviderConfig(t, tp))
		require.NoError(err)
		assert.Equal(ProviderEndpoints{
			AuthorizationEndpoint: tp.Addr() + "/auth",
			TokenEndpoint:         tp.Addr() + "/token",
		}, p.Endpoints())
	})
	t.Run("nil-config", func(t *testing.T) {
		_, err := NewProvider(context.Background(), nil)
		assert.ErrorIs(t, err, ErrNilParameter)
	})
	t.Run("untrusted-tls", func(t *testing.T) {
		c, err := NewConfig(tp.Addr(), "", "")
		require.NoError(t, err)
		_, err = NewProvider(context.Background(), c)
		assert.ErrorIs(t, err, ErrDiscovery)
	})
	t.Run("insecure-tls", func(t *testing.T) {
		c, err := NewConfig(tp.Addr(), "", "", WithInsecure())
		require.NoError(t, err)
		_, err = NewProvider(context.Background(), c)
		assert.NoError(t, err)
	})
	t.Run("unreachable", func(t *testing.T) {
		c, err := NewConfig("http://127.0.0.1:1", "", "")
		require.NoError(t, err)
		_, err = NewProvider(context.Background(), c)
		assert.ErrorIs(t, err, ErrDiscovery)
	})
	t.Run("not-found", func(t *testing.T) {
		c := testProviderConfig(t, tp)
		c.Issuer = tp.Addr() + "/nope"
		_, err := NewProvider(context.Background(), c)
		assert.ErrorIs(t, err, ErrDiscovery)
	})
}

func TestNewProvider_MissingEndpoints(t *testing.T) {
	t.Parallel()
	t.Run("authorization-endpoint", func(t *testing.T) {
		tp := StartTestProvider(t)
		tp.SetOmitAuthorizationEndpoint(true)
		_, err := NewProvider(context.Background(), testProviderConfig(t, tp))
		assert.ErrorIs(t, err, ErrDiscovery)
	})
	t.Run("token-endpoint", func(t *testing.T) {
		tp := StartTestProvider(t)
		tp.SetOmitTokenEndpoint(true)
		_, err := NewProvider(context.Background(), testProviderConfig(t, tp))
		assert.ErrorIs(t, err, ErrDiscovery)
	})
}

func TestNewProvider_DiscoveryTimeout(t *testing.T) {
	t.Parallel()
	tp := StartTestProvider(t)
	tp.SetDiscoveryDelay(5 * time.Second)

	t.Run("config-timeout", func(t *testing.T) {
		start := time.Now()
		_, err := NewProvider(context.Background(), testProviderConfig(t, tp, WithDiscoveryTimeout(100*time.Millisecond)))
		assert.ErrorIs(t, err, ErrDiscovery)
		assert.Less(t, time.Since(start), 4*time.Second)
	})
	t.Run("cancelled-ctx", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewProvider(ctx, testProviderConfig(t, tp))
		assert.ErrorIs(t, err, ErrDiscovery)
	})
}

func TestProvider_AuthURL(t *testing.T) {
	t.Parallel()
	tp := StartTestProvider(t)

	tests := []struct {
		name       string
		opt        []Option
		wantPrompt string
		wantLocale string
	}{
		{
			name:       "defaults",
			wantPrompt: DefaultPrompt,
		},
		{
			name: "no-prompt",
			opt:  []Option{WithPrompt("")},
		},
		{
			name:       "ui-locales",
			opt:        []Option{WithPrompt("login"), WithUILocales(language.German, language.AmericanEnglish)},
			wantPrompt: "login",
			wantLocale: "de en-US",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			c := testProviderConfig(t, tp, append([]Option{WithScope("openid profile")}, tt.opt...)...)
			p, err := NewProvider(context.Background(), c)
			require.NoError(err)
			r, err := NewRequest(c)
			require.NoError(err)

			authURL, err := p.AuthURL(r)
			require.NoError(err)
			u, err := url.Parse(authURL)
			require.NoError(err)
			assert.Equal(tp.Addr()+"/auth", u.Scheme+"://"+u.Host+u.Path)

			qv := u.Query()
			assert.Equal([]string{r.State()}, qv["state"])
			assert.Equal("code", qv.Get("response_type"))
			assert.Equal(c.ClientID, qv.Get("client_id"))
			assert.Equal(c.RedirectURL(), qv.Get("redirect_uri"))
			assert.Equal("openid profile", qv.Get("scope"))
			if tt.wantPrompt == "" {
				_, ok := qv["prompt"]
				assert.False(ok)
			} else {
				assert.Equal(tt.wantPrompt, qv.Get("prompt"))
			}
			if tt.wantLocale == "" {
				_, ok := qv["ui_locales"]
				assert.False(ok)
			} else {
				assert.Equal(tt.wantLocale, qv.Get("ui_locales"))
			}
		})
	}
	t.Run("nil-request", func(t *testing.T) {
		p, err := NewProvider(context.Background(), testProviderConfig(t, tp))
		require.NoError(t, err)
		_, err = p.AuthURL(nil)
		assert.ErrorIs(t, err, ErrNilParameter)
	})
}

func TestProvider_Exchange(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	setup := func(t *testing.T) (*TestProvider, *Provider, *Request) {
		t.Helper()
		tp := StartTestProvider(t)
		tp.SetClientCreds("test-client", "test-secret")
		c := testProviderConfig(t, tp)
		p, err := NewProvider(context.Background(), c, WithClock(clock))
		require.NoError(t, err)
		r, err := NewRequest(c)
		require.NoError(t, err)
		return tp, p, r
	}

	t.Run("success", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp, p, r := setup(t)
		tp.SetTokenReply("at-1", "Bearer", 3600)
		tp.SetRefreshToken("rt-1")
		tp.SetIssueIDToken(true)

		tk, err := p.Exchange(context.Background(), r, r.State(), "test-code")
		require.NoError(err)
		assert.Equal(AccessToken("at-1"), tk.AccessToken)
		assert.Equal("Bearer", tk.TokenType)
		assert.Equal(int64(3600), tk.ExpiresIn)
		assert.Equal(clock.Now().Add(time.Hour).UTC(), tk.ExpiresAt)
		assert.Equal(RefreshToken("rt-1"), tk.RefreshToken)
		assert.NotEmpty(tk.IDToken)

		claims, err := tk.IDToken.UnverifiedClaims()
		require.NoError(err)
		assert.Equal("alice@example.com", claims["sub"])

		assert.Equal(1, tp.TokenRequests())
		form := tp.LastTokenRequest()
		assert.Equal("authorization_code", form.Get("grant_type"))
		assert.Equal("test-code", form.Get("code"))
		assert.Equal(r.RedirectURL(), form.Get("redirect_uri"))
		assert.Equal("test-client", form.Get("client_id"))
		assert.Equal("test-secret", form.Get("client_secret"))
	})
	t.Run("no-expiry", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp, p, r := setup(t)
		tp.SetTokenReply("at-2", "bearer", 0)

		tk, err := p.Exchange(context.Background(), r, r.State(), "test-code")
		require.NoError(err)
		assert.Equal("Bearer", tk.TokenType)
		assert.True(tk.ExpiresAt.IsZero())
		assert.Zero(tk.ExpiresIn)
	})
	t.Run("state-mismatch", func(t *testing.T) {
		assert := assert.New(t)
		tp, p, r := setup(t)
		_, err := p.Exchange(context.Background(), r, "wrong-state", "test-code")
		assert.ErrorIs(err, ErrStateMismatch)
		assert.Equal(0, tp.TokenRequests())
	})
	t.Run("empty-code", func(t *testing.T) {
		assert := assert.New(t)
		tp, p, r := setup(t)
		_, err := p.Exchange(context.Background(), r, r.State(), "")
		assert.ErrorIs(err, ErrInvalidParameter)
		assert.Equal(0, tp.TokenRequests())
	})
	t.Run("bad-code", func(t *testing.T) {
		assert := assert.New(t)
		tp, p, r := setup(t)
		_, err := p.Exchange(context.Background(), r, r.State(), "bad-code")
		assert.ErrorIs(err, ErrTokenExchange)
		assert.Equal(1, tp.TokenRequests())
	})
	t.Run("server-error", func(t *testing.T) {
		assert := assert.New(t)
		tp, p, r := setup(t)
		tp.SetTokenErrorStatus(http.StatusInternalServerError)
		_, err := p.Exchange(context.Background(), r, r.State(), "test-code")
		assert.ErrorIs(err, ErrTokenExchange)
		assert.Equal(1, tp.TokenRequests())
	})
	t.Run("invalid-json", func(t *testing.T) {
		assert := assert.New(t)
		tp, p, r := setup(t)
		tp.SetInvalidTokenJSON(true)
		_, err := p.Exchange(context.Background(), r, r.State(), "test-code")
		assert.ErrorIs(err, ErrTokenExchange)
	})
	t.Run("empty-access-token", func(t *testing.T) {
		assert := assert.New(t)
		tp, p, r := setup(t)
		tp.SetTokenReply("", "Bearer", 60)
		_, err := p.Exchange(context.Background(), r, r.State(), "test-code")
		assert.ErrorIs(err, ErrTokenExchange)
	})
	t.Run("bad-secret", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetClientCreds("test-client", "test-secret")
		c, err := NewConfig(tp.Addr(), "test-client", "wrong", WithProviderCA(tp.CACert()))
		require.NoError(err)
		p, err := NewProvider(context.Background(), c)
		require.NoError(err)
		r, err := NewRequest(c)
		require.NoError(err)
		_, err = p.Exchange(context.Background(), r, r.State(), "test-code")
		assert.ErrorIs(err, ErrTokenExchange)
		assert.Equal(1, tp.TokenRequests())
	})
}
