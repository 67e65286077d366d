// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingest

import (
	"context"
	"log/slog"
	"time"
)

// Policy bounds retries of transient dependency failures.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy returns the retry policy used for embedding calls.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond}
}

// RetryWithBackoff retries an operation with exponential backoff.
// Returns the error from the last attempt if all attempts fail.
func RetryWithBackoff(ctx context.Context, operation func() error, policy Policy) error {
	if policy.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		slog.Debug("operation failed, will retry",
			"attempt", attempt, "maxAttempts", policy.MaxAttempts, "error", lastErr)

		// Don't sleep after the last attempt
		if attempt == policy.MaxAttempts {
			break
		}

		// Exponential backoff: baseDelay * 2^(attempt-1)
		delay := policy.BaseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}
