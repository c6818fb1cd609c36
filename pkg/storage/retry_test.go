package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds_first_time", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), fastRetry(), func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries_retryable_errors", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), fastRetry(), func() error {
			calls++
			if calls < 3 {
				return WrapError("offsite", "upload", ErrConnFailed)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives_up_after_max_attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), fastRetry(), func() error {
			calls++
			return ErrTimeout
		})
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Equal(t, 3, calls)
	})

	t.Run("does_not_retry_critical_errors", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), fastRetry(), func() error {
			calls++
			return ErrAuthFailed
		})
		assert.ErrorIs(t, err, ErrAuthFailed)
		assert.Equal(t, 1, calls)
	})

	t.Run("does_not_retry_unknown_errors", func(t *testing.T) {
		calls := 0
		boom := errors.New("disk full")
		err := WithRetry(context.Background(), fastRetry(), func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops_when_context_is_cancelled", func(t *testing.T) {
		clk := testclock.NewClock(time.Now())
		cfg := fastRetry()
		cfg.InitialDelay = time.Hour
		cfg.Clock = clk

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := WithRetry(ctx, cfg, func() error {
			calls++
			cancel()
			return ErrConnFailed
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type refusedErr struct{}

func (refusedErr) Error() string   { return "connection refused" }
func (refusedErr) Timeout() bool   { return false }
func (refusedErr) Temporary() bool { return false }

func TestWrapError_Classifies(t *testing.T) {
	assert.ErrorIs(t, WrapError("b", "op", context.DeadlineExceeded), ErrTimeout)
	assert.ErrorIs(t, WrapError("b", "op", timeoutErr{}), ErrTimeout)
	assert.ErrorIs(t, WrapError("b", "op", refusedErr{}), ErrConnFailed)

	plain := WrapError("b", "op", errors.New("bad request"))
	assert.False(t, IsRetryable(plain))
	assert.Equal(t, "op (b): bad request", plain.Error())

	notFound := WrapError("b", "delete", ErrNotFound)
	assert.ErrorIs(t, notFound, ErrNotFound)
	assert.False(t, IsRetryable(notFound))
}

func TestMatchPattern(t *testing.T) {
	assert.True(t, MatchPattern("acme/acme_20240101000000.zip", "acme/acme_*"))
	assert.False(t, MatchPattern("acme_prod/acme_prod_20240101000000.zip", "acme/acme_*"))
	assert.False(t, MatchPattern("acme/sub/acme_20240101000000.zip", "acme/acme_*"))
	assert.False(t, MatchPattern("anything", "[")) // malformed

	assert.Equal(t, "acme/acme_", PatternPrefix("acme/acme_*"))
	assert.Equal(t, "exact", PatternPrefix("exact"))
}
