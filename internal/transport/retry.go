// Copyright Veracode, Inc., 2026. All rights reserved.

package transport

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// BackoffUnit scales every computed wait. Tests shrink this to avoid
// real sleeps; production leaves it at one second so backoff formulas
// and Retry-After values are interpreted in seconds.
var BackoffUnit = time.Second

const (
	// defaultMaxAttempts is the per-call attempt budget shared by every
	// retryable failure class.
	defaultMaxAttempts = 7

	// backoffBase is the exponent base for the jittered backoff formula
	// min(cap, base^attempt + jitter).
	backoffBase = 1.2

	// Caps in seconds, per failure class.
	transientCapSecs = 60
	rateLimitCapSecs = 60
	parseCapSecs     = 30
)

// ErrUnauthorized marks an authentication failure. It is never retried.
var ErrUnauthorized = errors.New("unauthorized")

// attemptClass is the outcome classification of one transport attempt.
type attemptClass int

const (
	classTransient attemptClass = iota // 5xx, connection error, timeout
	classRateLimited                   // HTTP 429
	classMalformed                     // unparseable body on a 2xx
	classOther                         // any other non-success status
)

// backoff computes the jittered exponential wait for an attempt:
// min(cap, base^attempt + uniform(0, jitterMax)), scaled by BackoffUnit.
func backoff(attempt int, capSecs float64, jitterMax float64) time.Duration {
	secs := math.Pow(backoffBase, float64(attempt)) + rand.Float64()*jitterMax
	if secs > capSecs {
		secs = capSecs
	}
	return time.Duration(secs * float64(BackoffUnit))
}

// classBackoff returns the wait for a failed attempt of the given class.
func classBackoff(class attemptClass, attempt int) time.Duration {
	switch class {
	case classRateLimited:
		return backoff(attempt, rateLimitCapSecs, 0.5)
	case classMalformed:
		return backoff(attempt, parseCapSecs, 0.5)
	default:
		return backoff(attempt, transientCapSecs, 0.75)
	}
}

// wait blocks for d or until the context is cancelled.
func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
