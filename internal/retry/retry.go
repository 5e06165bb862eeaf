// Package retry wraps fallible operations with bounded, backoff-delayed
// reattempts. It is applied at external boundaries only; the merge and
// retention logic stays synchronous and retry-free.
package retry

import (
	"time"

	"techcal/internal/config"
)

// Do runs op up to policy.MaxAttempts times, sleeping the policy's backoff
// delay between attempts. A nil retryable predicate retries every error;
// otherwise a non-retryable error is returned immediately.
func Do(policy *config.RetryPolicy, retryable func(error) bool, op func() error) error {
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if delay := policy.GetRetryDelay(attempt); delay > 0 {
				time.Sleep(delay)
			}
		}

		err := op()
		if err == nil {
			return nil
		}

		lastErr = err

		if retryable != nil && !retryable(err) {
			return err
		}
	}

	return lastErr
}
