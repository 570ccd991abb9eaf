// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"
)

// maxRetryAfter caps how long a server-supplied Retry-After can stall a
// download.
const maxRetryAfter = 2 * time.Minute

// retryable reports whether a status is worth another attempt.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// doWithRetry executes req and retries on 429 and 503 with exponential
// backoff starting at base: base, 2*base, 4*base, and so on. A Retry-After
// header given in seconds replaces the computed delay.
//
// After maxRetries retries the last response is returned unchanged so the
// caller can report its status. If ctx ends during a wait the function
// returns ctx.Err().
func doWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, base time.Duration) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * base
		if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s >= 0 {
			backoff = min(time.Duration(s)*time.Second, maxRetryAfter)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
