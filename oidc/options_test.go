// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestApplyOpts(t *testing.T) {
	// Let's make sure we don't panic on nil options
	anonymousOpts := struct {
		Names []string
	}{
		nil,
	}
	ApplyOpts(anonymousOpts, nil)
}

func Test_WithClock(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	clock := clockwork.NewFakeClock()
	opts := getProviderOpts(WithClock(clock))
	testOpts := providerDefaults()
	testOpts.withClock = clock
	assert.Equal(opts, testOpts)
}

func Test_ConfigOptions(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	opts := getConfigOpts(
		WithScope("openid email"),
		WithPrompt(""),
		WithUILocales(language.Dutch),
		WithListenAddr("127.0.0.1", 1234),
		WithInsecure(),
		WithProviderCA("ca"),
		WithDiscoveryTimeout(time.Second),
		WithCallbackTimeout(time.Minute),
		WithPrefix("ignored"),
	)
	testOpts := configDefaults()
	testOpts.withScope = "openid email"
	testOpts.withPrompt = ""
	testOpts.withUILocales = []language.Tag{language.Dutch}
	testOpts.withListenHost = "127.0.0.1"
	testOpts.withListenPort = 1234
	testOpts.withInsecure = true
	testOpts.withProviderCA = "ca"
	testOpts.withDiscoveryTimeout = time.Second
	testOpts.withCallbackTimeout = time.Minute
	assert.Equal(opts, testOpts)
}
