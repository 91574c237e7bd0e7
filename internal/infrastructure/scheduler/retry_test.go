package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

func TestClassifyFetchError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want AttemptOutcome
	}{
		{"nil", nil, AttemptSuccess},
		{
			"rate limited",
			&marketplace.RateLimitedError{Platform: marketplace.PlatformEbay},
			AttemptRetryable,
		},
		{
			"wrapped rate limited",
			fmt.Errorf("fetch page: %w", &marketplace.RateLimitedError{Platform: marketplace.PlatformEtsy}),
			AttemptRetryable,
		},
		{"unavailable", marketplace.ErrPlatformUnavailable, AttemptRetryable},
		{"request failed", marketplace.ErrPlatformRequestFailed, AttemptRetryable},
		{"auth failed", marketplace.ErrPlatformAuthFailed, AttemptFatal},
		{"not configured", marketplace.ErrPlatformNotConfigured, AttemptFatal},
		{"invalid response", marketplace.ErrPlatformInvalidResponse, AttemptFatal},
		{"context canceled", context.Canceled, AttemptFatal},
		{"deadline exceeded", context.DeadlineExceeded, AttemptFatal},
		{"unknown", errors.New("boom"), AttemptFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFetchError(tt.err))
		})
	}
}

func TestRetryPolicyValidate(t *testing.T) {
	t.Run("default is valid", func(t *testing.T) {
		policy := DefaultRetryPolicy()
		assert.NoError(t, policy.Validate())
	})

	t.Run("zero attempts", func(t *testing.T) {
		policy := RetryPolicy{MaxAttempts: 0, BaseDelay: time.Second, MaxDelay: time.Minute}
		assert.ErrorIs(t, policy.Validate(), ErrInvalidConfig)
	})

	t.Run("max below base", func(t *testing.T) {
		policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Minute, MaxDelay: time.Second}
		assert.ErrorIs(t, policy.Validate(), ErrInvalidConfig)
	})
}

func TestRetryPolicyDelay(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Minute,
		MaxDelay:    10 * time.Minute,
	}

	t.Run("exponential backoff", func(t *testing.T) {
		assert.Equal(t, time.Minute, policy.Delay(1, errors.New("boom")))
		assert.Equal(t, 2*time.Minute, policy.Delay(2, errors.New("boom")))
		assert.Equal(t, 4*time.Minute, policy.Delay(3, errors.New("boom")))
		assert.Equal(t, 8*time.Minute, policy.Delay(4, errors.New("boom")))
	})

	t.Run("capped at max delay", func(t *testing.T) {
		assert.Equal(t, 10*time.Minute, policy.Delay(5, errors.New("boom")))
		assert.Equal(t, 10*time.Minute, policy.Delay(20, errors.New("boom")))
	})

	t.Run("retry-after longer than backoff wins", func(t *testing.T) {
		err := &marketplace.RateLimitedError{
			Platform:   marketplace.PlatformEbay,
			RetryAfter: 5 * time.Minute,
		}
		assert.Equal(t, 5*time.Minute, policy.Delay(1, err))
	})

	t.Run("retry-after shorter than backoff is ignored", func(t *testing.T) {
		err := &marketplace.RateLimitedError{
			Platform:   marketplace.PlatformEbay,
			RetryAfter: time.Second,
		}
		assert.Equal(t, 2*time.Minute, policy.Delay(2, err))
	})

	t.Run("retry-after still capped", func(t *testing.T) {
		err := &marketplace.RateLimitedError{
			Platform:   marketplace.PlatformEbay,
			RetryAfter: time.Hour,
		}
		assert.Equal(t, 10*time.Minute, policy.Delay(1, err))
	})
}

func TestSleep(t *testing.T) {
	t.Run("returns after delay", func(t *testing.T) {
		err := Sleep(context.Background(), time.Millisecond)
		assert.NoError(t, err)
	})

	t.Run("interrupted by cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := Sleep(ctx, time.Hour)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("non-positive delay returns immediately", func(t *testing.T) {
		assert.NoError(t, Sleep(context.Background(), 0))
	})
}

func TestSyncErrorFor(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.Nil(t, SyncErrorFor(nil))
	})

	tests := []struct {
		name      string
		err       error
		wantCode  string
		retryable bool
	}{
		{
			"rate limited",
			&marketplace.RateLimitedError{Platform: marketplace.PlatformReddit, RetryAfter: time.Minute},
			marketplace.SyncErrorRateLimited,
			true,
		},
		{"auth failed", marketplace.ErrPlatformAuthFailed, marketplace.SyncErrorAuthFailed, false},
		{"unavailable", marketplace.ErrPlatformUnavailable, marketplace.SyncErrorNetwork, true},
		{"request failed", marketplace.ErrPlatformRequestFailed, marketplace.SyncErrorNetwork, true},
		{"invalid response", marketplace.ErrPlatformInvalidResponse, marketplace.SyncErrorInvalidResponse, false},
		{"deadline", context.DeadlineExceeded, marketplace.SyncErrorTimeout, false},
		{"cancelled", context.Canceled, marketplace.SyncErrorCancelled, false},
		{"unknown", errors.New("boom"), marketplace.SyncErrorInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := SyncErrorFor(tt.err)
			require.NotNil(t, detail)
			assert.Equal(t, tt.wantCode, detail.Code)
			assert.Equal(t, tt.retryable, detail.Retryable)
			assert.NotEmpty(t, detail.Message)
		})
	}
}
