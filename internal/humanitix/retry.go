package humanitix

import (
	"errors"
	"math/rand"
	"time"

	"github.com/ds124wfegd/eventbot/internal/entity"
)

// RetryManager decides whether a failed remote call is retried and how long
// to wait before the next attempt.
type RetryManager struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func NewRetryManager(maxRetries int, baseDelay time.Duration) *RetryManager {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryManager{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   baseDelay * 16,
	}
}

// ShouldRetry reports whether attempt (zero based) may be followed by another
// one, and the delay before it.
func (r *RetryManager) ShouldRetry(attempt int, err error) (bool, time.Duration) {
	if attempt >= r.maxRetries {
		return false, 0
	}
	if !isRetryableError(err) {
		return false, 0
	}
	return true, r.calculateBackoff(attempt)
}

// isRetryableError accepts transport failures and 5xx/429 responses. Client
// errors and malformed payloads are final.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var remoteErr *entity.RemoteError
	if !errors.As(err, &remoteErr) {
		return false
	}
	if remoteErr.Err != nil {
		var permanent *permanentError
		return !errors.As(remoteErr.Err, &permanent)
	}
	return remoteErr.StatusCode >= 500 || remoteErr.StatusCode == 429
}

// calculateBackoff returns base * 2^attempt with ±25% jitter, capped at maxDelay.
func (r *RetryManager) calculateBackoff(attempt int) time.Duration {
	if r.baseDelay <= 0 {
		return 0
	}

	backoff := r.baseDelay * time.Duration(1<<attempt)

	if quarter := int64(backoff / 4); quarter > 0 {
		jitter := time.Duration(rand.Int63n(quarter))
		if rand.Intn(2) == 0 {
			backoff += jitter
		} else {
			backoff -= jitter
		}
	}

	if backoff > r.maxDelay {
		backoff = r.maxDelay
	}
	return backoff
}

// permanentError marks a failure that a retry cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}
