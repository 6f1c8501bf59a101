// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_StartTestProvider(t *testing.T) {
	t.Parallel()
	t.Run("tls", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		assert.True(strings.HasPrefix(tp.Addr(), "https://"))
		assert.NotEmpty(tp.CACert())

		resp, err := tp.HTTPClient().Get(tp.Addr() + "/.well-known/openid-configuration")
		require.NoError(err)
		defer resp.Body.Close()
		assert.Equal(http.StatusOK, resp.StatusCode)

		var doc map[string]interface{}
		require.NoError(json.NewDecoder(resp.Body).Decode(&doc))
		assert.Equal(tp.Addr(), doc["issuer"])
		assert.Equal(tp.Addr()+"/auth", doc["authorization_endpoint"])
		assert.Equal(tp.Addr()+"/token", doc["token_endpoint"])
	})
	t.Run("no-tls", func(t *testing.T) {
		assert := assert.New(t)
		tp := StartTestProvider(t, WithNoTLS())
		assert.True(strings.HasPrefix(tp.Addr(), "http://"))
		assert.Empty(tp.CACert())
	})
}

func Test_WithTestPort(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(l.Close())

	tp := StartTestProvider(t, WithTestPort(port), WithNoTLS())
	assert.Equal(fmt.Sprintf("http://127.0.0.1:%d", port), tp.Addr())

	opts := getTestProviderOpts(WithTestPort(port))
	testOpts := testProviderDefaults()
	testOpts.withPort = port
	assert.Equal(opts, testOpts)
}

func TestTestProvider_SetClientCreds(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	tp := StartTestProvider(t)
	tp.SetClientCreds("alice", "bob")
	id, secret := tp.ClientCreds()
	assert.Equal("alice", id)
	assert.Equal("bob", secret)
}

func TestTestProvider_Auth(t *testing.T) {
	t.Parallel()
	tp := StartTestProvider(t, WithNoTLS())
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	authURL := func(redirectURI, clientID, state string) string {
		qv := url.Values{}
		qv.Set("response_type", "code")
		qv.Set("redirect_uri", redirectURI)
		qv.Set("client_id", clientID)
		qv.Set("state", state)
		return tp.Addr() + "/auth?" + qv.Encode()
	}

	t.Run("redirect-with-code", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp.SetExpectedAuthCode("abc")
		resp, err := client.Get(authURL("http://localhost:8080/", DefaultClientID, "s1"))
		require.NoError(err)
		defer resp.Body.Close()
		assert.Equal(http.StatusFound, resp.StatusCode)
		loc, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(err)
		assert.Equal("localhost:8080", loc.Host)
		assert.Equal("abc", loc.Query().Get("code"))
		assert.Equal("s1", loc.Query().Get("state"))
	})
	t.Run("access-denied", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp.SetExpectedAuthCode("")
		defer tp.SetExpectedAuthCode("test-code")
		resp, err := client.Get(authURL("http://localhost:8080/", DefaultClientID, "s2"))
		require.NoError(err)
		defer resp.Body.Close()
		assert.Equal(http.StatusFound, resp.StatusCode)
		loc, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(err)
		assert.Equal("access_denied", loc.Query().Get("error"))
		assert.Equal("s2", loc.Query().Get("state"))
	})
	t.Run("bad-redirect", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp.SetAllowedRedirectURIs([]string{"http://127.0.0.1:9999/"})
		defer tp.SetAllowedRedirectURIs([]string{"http://localhost:8080/"})
		resp, err := client.Get(authURL("http://localhost:8080/", DefaultClientID, "s3"))
		require.NoError(err)
		defer resp.Body.Close()
		assert.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func TestTestProvider_Token(t *testing.T) {
	t.Parallel()
	tp := StartTestProvider(t, WithNoTLS())
	post := func(t *testing.T, v url.Values) (*http.Response, map[string]interface{}) {
		t.Helper()
		resp, err := http.PostForm(tp.Addr()+"/token", v)
		require.NoError(t, err)
		defer resp.Body.Close()
		body := map[string]interface{}{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp, body
	}
	good := func() url.Values {
		return url.Values{
			"grant_type":   {"authorization_code"},
			"code":         {"test-code"},
			"redirect_uri": {"http://localhost:8080/"},
			"client_id":    {DefaultClientID},
		}
	}

	t.Run("ok", func(t *testing.T) {
		assert := assert.New(t)
		resp, body := post(t, good())
		assert.Equal(http.StatusOK, resp.StatusCode)
		assert.Equal("test-access-token", body["access_token"])
		assert.Equal("Bearer", body["token_type"])
		assert.Equal(float64(3600), body["expires_in"])
	})
	t.Run("bad-grant", func(t *testing.T) {
		v := good()
		v.Set("grant_type", "password")
		resp, body := post(t, v)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid_request", body["error"])
	})
	t.Run("bad-code", func(t *testing.T) {
		v := good()
		v.Set("code", "nope")
		resp, body := post(t, v)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid_grant", body["error"])
	})
	t.Run("bad-client", func(t *testing.T) {
		v := good()
		v.Set("client_id", "mallory")
		resp, body := post(t, v)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "invalid_client", body["error"])
	})
}
