// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the rate-limited, retrying HTTP client shared
// by the resolver and the fetchers.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"syscall"
	"time"

	"golang.org/x/time/rate"
)

// RetryBaseDelay is the default first backoff delay when the client
// configuration does not set one. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// StatusError reports a non-success HTTP status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// IsTransientStatus reports whether an HTTP status is worth retrying:
// 429 and the 5xx codes a gateway or overloaded server returns.
func IsTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsTransientError reports whether a transport error is worth retrying:
// timeouts, resets, refused connections, and truncated responses.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// DoWithRetry executes req, waiting on limiter before every attempt, and
// retries transient failures with exponential backoff: baseDelay, 2x, 4x...
//
// maxRetries bounds the number of retries after the first attempt; zero
// means a single attempt. On a retried status the body is drained and closed
// before sleeping. If the context is cancelled during a wait the function
// returns ctx.Err(). After exhausting retries the last response is returned
// so the caller can inspect its status.
func DoWithRetry(ctx context.Context, client *http.Client, limiter *rate.Limiter, req *http.Request, maxRetries int, baseDelay time.Duration) (*http.Response, error) {
	if baseDelay <= 0 {
		baseDelay = RetryBaseDelay
	}

	for attempt := 0; ; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter: %w", err)
			}
		}

		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			if attempt >= maxRetries || !IsTransientError(err) {
				return nil, err
			}
		} else {
			if !IsTransientStatus(resp.StatusCode) || attempt >= maxRetries {
				return resp, nil
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * baseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
