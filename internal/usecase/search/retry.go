package search

import (
	"context"
	"time"

	"github.com/askaws-cloud/askaws/internal/domain"
)

// RetryPolicy retries transient backend failures with exponential backoff.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Do runs op up to MaxAttempts times. Only transient backend errors are
// retried; context cancellation and permanent errors return immediately.
// onRetry, if non-nil, is invoked before each retry sleep with the attempt
// number that just failed.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error, onRetry func(attempt int, err error)) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil || !domain.RetryableBackendError(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}
		if onRetry != nil {
			onRetry(attempt, lastErr)
		}
		select {
		case <-time.After(p.delay(attempt)):
		case <-ctx.Done():
			return lastErr
		}
	}
	return lastErr
}

// delay is BaseDelay doubled per completed attempt, capped at MaxDelay.
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}
