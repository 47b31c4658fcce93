// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vertex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"customjob-toolkit/pkg/logging"

	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/api/googleapi"
)

// RetryConfig controls how transient API errors are retried. The delays feed
// a jittered gax backoff.
type RetryConfig struct {
	MaxAttempts   int           // Maximum number of attempts, including the first
	InitialDelay  time.Duration // Upper bound of the first retry delay
	MaxDelay      time.Duration // Upper bound of the delay between retries
	BackoffFactor float64       // Multiplicative factor applied after each retry
}

// DefaultRetryConfig returns the retry configuration used for API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   5,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// IsTransientError reports whether an API call failing with err may succeed
// when repeated.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// IsRetryableCreate reports whether a failed create may be repeated without
// risking a second job. Only throttled requests are known to have been
// rejected before the job existed.
func IsRetryableCreate(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests
}

// withRetry runs fn until it succeeds, fails with an error retryable rejects,
// the attempts are used up or ctx is done.
func withRetry(ctx context.Context, cfg RetryConfig, operation string, retryable func(error) bool, fn func() error) error {
	bo := gax.Backoff{
		Initial:    cfg.InitialDelay,
		Max:        cfg.MaxDelay,
		Multiplier: cfg.BackoffFactor,
	}
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt >= cfg.MaxAttempts {
			return fmt.Errorf("failed to %s: %w", operation, err)
		}

		delay := bo.Pause()
		logging.Warn("Retrying %s after transient error (attempt %d/%d, next in %s): %v", operation, attempt, cfg.MaxAttempts, delay, err)
		if err := gax.Sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s cancelled: %w", operation, err)
		}
	}
}
