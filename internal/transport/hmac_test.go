// Copyright Veracode, Inc., 2026. All rights reserved.

package transport

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationHeader_Shape(t *testing.T) {
	u, err := url.Parse("https://api.veracode.com/appsec/v1/analytics/report/abc?page=0&size=100")
	require.NoError(t, err)

	header, err := AuthorizationHeader(testCreds, "GET", u)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(header, "VERACODE-HMAC-SHA-256 "), header)
	assert.Contains(t, header, "id="+testCreds.APIID)
	assert.Contains(t, header, ",ts=")
	assert.Contains(t, header, ",nonce=")
	assert.Contains(t, header, ",sig=")

	// The signature is 32 HMAC-SHA-256 bytes rendered as 64 hex chars.
	sig := header[strings.Index(header, ",sig=")+5:]
	assert.Len(t, sig, 64)
}

func TestAuthorizationHeader_FreshNoncePerRequest(t *testing.T) {
	u, err := url.Parse("https://api.veracode.com/appsec/v1/analytics/report")
	require.NoError(t, err)

	first, err := AuthorizationHeader(testCreds, "POST", u)
	require.NoError(t, err)
	second, err := AuthorizationHeader(testCreds, "POST", u)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestAuthorizationHeader_RejectsNonHexSecret(t *testing.T) {
	u, err := url.Parse("https://api.veracode.com/appsec/v1/analytics/report")
	require.NoError(t, err)

	bad := Credentials{APIID: "id", APIKey: "not-hex!"}
	_, err = AuthorizationHeader(bad, "GET", u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding API key secret")
}
