// Copyright Veracode, Inc., 2026. All rights reserved.

// Package transport is the only path to the Reporting API. Every call
// goes through the retry engine: transient failures back off and retry
// within a shared attempt budget, rate limits honor Retry-After,
// authentication failures abort immediately. No caller implements its
// own retry logic.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/internal/console"
)

// excerptLimit bounds the raw-body excerpt attached to malformed
// response and client-error messages.
const excerptLimit = 4096

// Client issues signed JSON requests against the Reporting API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Creds   Credentials

	// UserAgent is sent with every request.
	UserAgent string

	// MaxAttempts is the per-call attempt budget (default 7).
	MaxAttempts int

	// Printer reports retry waits. Nil silences them.
	Printer *console.Printer
}

// outcome is the classified result of one transport attempt.
type outcome struct {
	payload    map[string]any
	class      attemptClass
	retryAfter time.Duration // server-supplied Retry-After, when present
	err        error
}

// DoJSON executes one API call with retry. rawURL may be absolute (a
// followed pagination link) or a path resolved against BaseURL. A
// non-nil body is sent as JSON. The decoded response object is
// returned; a bare JSON array body is wrapped under "content" so item
// extraction downstream sees one shape.
func (c *Client) DoJSON(ctx context.Context, method, rawURL string, body map[string]any) (map[string]any, error) {
	u, err := c.resolve(rawURL)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	maxAttempts := c.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out := c.attempt(ctx, method, u, payload)
		if out.err == nil {
			return out.payload, nil
		}
		lastErr = out.err

		// Authentication failures are never transient.
		if errors.Is(out.err, ErrUnauthorized) {
			return nil, out.err
		}

		if attempt == maxAttempts {
			break
		}

		retryIn := out.retryAfter
		if retryIn <= 0 {
			retryIn = classBackoff(out.class, attempt)
		}
		c.warnf("  %s %s attempt %d/%d: %v; retrying in %v",
			method, u.Path, attempt, maxAttempts, out.err, retryIn)
		if werr := wait(ctx, retryIn); werr != nil {
			return nil, werr
		}
	}

	return nil, fmt.Errorf("%s %s failed after %d attempt(s): %w",
		method, u.Path, maxAttempts, lastErr)
}

// attempt performs a single signed request and classifies the result.
func (c *Client) attempt(ctx context.Context, method string, u *url.URL, payload []byte) outcome {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return outcome{err: fmt.Errorf("creating request: %w", err)}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	auth, err := AuthorizationHeader(c.Creds, method, u)
	if err != nil {
		return outcome{err: err}
	}
	req.Header.Set("Authorization", auth)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		// Connection-level failure: reset, timeout, refused.
		return outcome{class: classTransient, err: fmt.Errorf("connection error: %w", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return outcome{class: classTransient, err: fmt.Errorf("reading response body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return outcome{err: fmt.Errorf("HTTP 401: verify VERACODE_API_KEY_ID/VERACODE_API_KEY_SECRET and tenant access: %w", ErrUnauthorized)}

	case resp.StatusCode == http.StatusTooManyRequests:
		out := outcome{class: classRateLimited, err: fmt.Errorf("HTTP 429 rate limited")}
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, perr := strconv.Atoi(ra); perr == nil && secs >= 0 {
				out.retryAfter = time.Duration(secs) * BackoffUnit
			}
		}
		return out

	case resp.StatusCode >= 500:
		return outcome{class: classTransient, err: fmt.Errorf("HTTP %d", resp.StatusCode)}

	case resp.StatusCode >= 400:
		return outcome{class: classOther, err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, excerpt(data))}
	}

	result, perr := decodeObject(data)
	if perr != nil {
		return outcome{class: classMalformed, err: fmt.Errorf("parsing response body: %v\nraw (first 4KB):\n%s", perr, excerpt(data))}
	}
	return outcome{payload: result}
}

// decodeObject parses a JSON object body. An empty body decodes to an
// empty object; a bare array wraps under "content".
func decodeObject(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err == nil {
		return obj, nil
	}

	var arr []any
	if err := json.Unmarshal(data, &arr); err == nil {
		return map[string]any{"content": arr}, nil
	}

	return nil, errors.New("body is neither a JSON object nor a JSON array")
}

// excerpt truncates a raw body for inclusion in error messages.
func excerpt(data []byte) string {
	if len(data) > excerptLimit {
		data = data[:excerptLimit]
	}
	return string(data)
}

func (c *Client) resolve(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}
	if u.IsAbs() {
		return u, nil
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", c.BaseURL, err)
	}
	return base.ResolveReference(u), nil
}

func (c *Client) warnf(format string, args ...any) {
	if c.Printer != nil {
		c.Printer.Warnf(format, args...)
	}
}
