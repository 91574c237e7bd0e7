package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// ---------------------------------------------------------------------------
// Attempt classification
// ---------------------------------------------------------------------------

// AttemptOutcome classifies a fetch attempt result for the retry loop
type AttemptOutcome int

const (
	// AttemptSuccess means the attempt succeeded
	AttemptSuccess AttemptOutcome = iota
	// AttemptRetryable means the attempt failed transiently and may be retried
	AttemptRetryable
	// AttemptFatal means the attempt failed permanently and retrying cannot help
	AttemptFatal
)

// ClassifyFetchError maps a fetch error to an attempt outcome. Rate limits
// and vendor unavailability are transient; auth and configuration failures
// are not. Context errors are fatal: the job's time budget is spent.
func ClassifyFetchError(err error) AttemptOutcome {
	if err == nil {
		return AttemptSuccess
	}

	var rateErr *marketplace.RateLimitedError
	if errors.As(err, &rateErr) {
		return AttemptRetryable
	}
	if errors.Is(err, marketplace.ErrPlatformUnavailable) ||
		errors.Is(err, marketplace.ErrPlatformRequestFailed) {
		return AttemptRetryable
	}
	return AttemptFatal
}

// ---------------------------------------------------------------------------
// RetryPolicy
// ---------------------------------------------------------------------------

// RetryPolicy bounds the fetch retry loop. Attempts are per page fetch;
// normalization and upsert failures are per item and never retried here.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int
	// BaseDelay is the first retry delay; later retries back off exponentially
	BaseDelay time.Duration
	// MaxDelay caps the backoff
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the standard fetch retry policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Minute,
		MaxDelay:    30 * time.Minute,
	}
}

// Validate validates the retry policy
func (p *RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return ErrInvalidConfig
	}
	if p.BaseDelay <= 0 || p.MaxDelay < p.BaseDelay {
		return ErrInvalidConfig
	}
	return nil
}

// Delay returns how long to wait before the given retry. attempt is
// 1-based: the delay after the first failed attempt is Delay(1). When the
// vendor supplied a Retry-After longer than the computed backoff, the
// vendor wins.
func (p RetryPolicy) Delay(attempt int, err error) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// Exponential backoff: BaseDelay * 2^(attempt-1)
	delay := p.BaseDelay * time.Duration(1<<(attempt-1))
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	var rateErr *marketplace.RateLimitedError
	if errors.As(err, &rateErr) && rateErr.RetryAfter > delay {
		delay = rateErr.RetryAfter
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return delay
}

// Sleep waits for the given delay or until the context ends, whichever
// comes first. Returns the context error when interrupted.
func Sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Failure detail mapping
// ---------------------------------------------------------------------------

// SyncErrorFor builds the structured error detail stored on a job that
// ended failed or partial
func SyncErrorFor(err error) *marketplace.SyncError {
	if err == nil {
		return nil
	}

	detail := &marketplace.SyncError{
		Message:   err.Error(),
		Retryable: ClassifyFetchError(err) == AttemptRetryable,
	}

	var rateErr *marketplace.RateLimitedError
	switch {
	case errors.As(err, &rateErr):
		detail.Code = marketplace.SyncErrorRateLimited
	case errors.Is(err, marketplace.ErrPlatformAuthFailed):
		detail.Code = marketplace.SyncErrorAuthFailed
	case errors.Is(err, marketplace.ErrPlatformUnavailable),
		errors.Is(err, marketplace.ErrPlatformRequestFailed):
		detail.Code = marketplace.SyncErrorNetwork
	case errors.Is(err, marketplace.ErrPlatformInvalidResponse):
		detail.Code = marketplace.SyncErrorInvalidResponse
	case errors.Is(err, context.DeadlineExceeded):
		detail.Code = marketplace.SyncErrorTimeout
	case errors.Is(err, context.Canceled):
		detail.Code = marketplace.SyncErrorCancelled
	default:
		detail.Code = marketplace.SyncErrorInternal
	}
	return detail
}
