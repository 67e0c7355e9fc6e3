// Copyright Veracode, Inc., 2026. All rights reserved.

package transport

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	authScheme     = "VERACODE-HMAC-SHA-256"
	requestVersion = "vcode_request_version_1"
)

// Credentials are the API key pair read from VERACODE_API_KEY_ID and
// VERACODE_API_KEY_SECRET at startup.
type Credentials struct {
	APIID  string
	APIKey string
}

// AuthorizationHeader computes the HMAC Authorization header for one
// request. The signature chains four HMAC-SHA-256 derivations: nonce
// under the decoded key secret, millisecond timestamp under that,
// the fixed request version string under that, and finally the request
// descriptor (id, host, path+query, method) under the resulting key.
func AuthorizationHeader(creds Credentials, method string, u *url.URL) (string, error) {
	keyBytes, err := hex.DecodeString(creds.APIKey)
	if err != nil {
		return "", fmt.Errorf("decoding API key secret: %w", err)
	}

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	data := fmt.Sprintf("id=%s&host=%s&url=%s&method=%s",
		creds.APIID, u.Host, u.RequestURI(), method)

	encryptedNonce := hmacSHA256(nonce, keyBytes)
	encryptedTS := hmacSHA256([]byte(ts), encryptedNonce)
	signingKey := hmacSHA256([]byte(requestVersion), encryptedTS)
	signature := hmacSHA256([]byte(data), signingKey)

	return fmt.Sprintf("%s id=%s,ts=%s,nonce=%X,sig=%X",
		authScheme, creds.APIID, ts, nonce, signature), nil
}

func hmacSHA256(data, key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
