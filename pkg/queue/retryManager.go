package queue

import (
	"errors"
	"math/rand"
	"time"
)

// RetryManager decides whether a failed task runs again and after how long.
type RetryManager struct {
	baseDelay time.Duration
	maxDelay  time.Duration
}

func NewRetryManager(baseDelay time.Duration) *RetryManager {
	return &RetryManager{
		baseDelay: baseDelay,
		maxDelay:  baseDelay * 16,
	}
}

// ShouldRetry reports whether task should be retried after err and the
// delay before the next attempt.
func (r *RetryManager) ShouldRetry(task *Task, err error) (bool, time.Duration) {
	if task.Attempts >= task.MaxRetries {
		return false, 0
	}
	if !r.isRetryableError(err) {
		return false, 0
	}
	return true, r.calculateBackoff(task.Attempts)
}

func (r *RetryManager) isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var perm *permanentError
	return !errors.As(err, &perm)
}

// calculateBackoff is base * 2^(attempt-1) with ±25% jitter, capped at
// maxDelay.
func (r *RetryManager) calculateBackoff(attempt int) time.Duration {
	if attempt <= 0 || r.baseDelay <= 0 {
		return r.baseDelay
	}

	backoff := r.baseDelay * time.Duration(1<<(attempt-1))
	if backoff > r.maxDelay {
		backoff = r.maxDelay
	}

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
