package render

import (
	"math"
	"time"
)

// RetryStrategy handles exponential backoff for provider round trips.
type RetryStrategy struct {
	maxAttempts    int
	initialDelay   time.Duration
	maxDelay       time.Duration
	multiplier     float64
}

// NewRetryStrategy creates a retry strategy with provider defaults: the
// render credits are metered, so backoff starts in seconds.
func NewRetryStrategy(maxAttempts int) *RetryStrategy {
	return &RetryStrategy{
		maxAttempts:  maxAttempts,
		initialDelay: 2 * time.Second,
		maxDelay:     15 * time.Second,
		multiplier:   2,
	}
}

// MaxAttempts returns the maximum number of attempts.
func (rs *RetryStrategy) MaxAttempts() int {
	return rs.maxAttempts
}

// Delay calculates the backoff before the next attempt.
// delay = min(initial * multiplier^(attempt-1), max)
func (rs *RetryStrategy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(rs.initialDelay) * math.Pow(rs.multiplier, float64(attempt-1))
	if delay > float64(rs.maxDelay) {
		delay = float64(rs.maxDelay)
	}

	return time.Duration(delay)
}

// ShouldRetry determines whether another attempt is worthwhile.
func (rs *RetryStrategy) ShouldRetry(attempt int, statusCode int, err error) bool {
	if attempt >= rs.maxAttempts {
		return false
	}

	// Network errors are always worth a retry.
	if err != nil {
		return true
	}

	// Server errors and rate limiting.
	if statusCode >= 500 && statusCode < 600 {
		return true
	}
	if statusCode == 429 {
		return true
	}

	// Client errors (bad credential, bad URL) will not fix themselves.
	if statusCode >= 400 && statusCode < 500 {
		return false
	}

	return statusCode >= 300
}
