// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kopano-dev/get-access-token/oidc"
)

func TestParseResponse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		raw         string
		want        *Response
		wantAuthErr *AuthenErrorResponse
		wantIsErr   []error
	}{
		{
			name: "request-uri",
			raw:  "/?code=abc&state=xyz",
			want: &Response{Code: "abc", State: "xyz"},
		},
		{
			name: "full-url",
			raw:  "  http://localhost:8080/?state=xyz&code=abc\n",
			want: &Response{Code: "abc", State: "xyz"},
		},
		{
			name: "missing-state",
			raw:  "/?code=abc",
			want: &Response{Code: "abc"},
		},
		{
			name:      "empty",
			raw:       "   ",
			wantIsErr: []error{oidc.ErrCallback},
		},
		{
			name:      "missing-code",
			raw:       "/?state=xyz",
			wantIsErr: []error{oidc.ErrCallback},
		},
		{
			name:      "bad-query",
			raw:       "/?code=%zz",
			wantIsErr: []error{oidc.ErrCallback},
		},
		{
			name:      "not-a-url",
			raw:       "http://[::1",
			wantIsErr: []error{oidc.ErrCallback},
		},
		{
			name: "provider-error",
			raw:  "/?error=access_denied&error_description=user+said+no&state=xyz",
			wantAuthErr: &AuthenErrorResponse{
				Error:       "access_denied",
				Description: "user said no",
			},
			wantIsErr: []error{oidc.ErrCallback, oidc.ErrLoginFailed},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, authErr, err := ParseResponse(tt.raw)
			if len(tt.wantIsErr) > 0 {
				require.Error(err)
				for _, e := range tt.wantIsErr {
					assert.ErrorIs(err, e)
				}
				assert.Nil(got)
				assert.Equal(tt.wantAuthErr, authErr)
				return
			}
			require.NoError(err)
			assert.Nil(authErr)
			assert.Equal(tt.want, got)
		})
	}
}

func TestParseResponse_ErrorMessage(t *testing.T) {
	t.Parallel()
	_, _, err := ParseResponse("/?error=access_denied&error_description=user+said+no")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied: user said no")
}
