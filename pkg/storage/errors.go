package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrAuthFailed       = errors.New("authentication failed")
	ErrConnFailed       = errors.New("connection failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("file not found")
	ErrTimeout          = errors.New("operation timeout")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// IsRetryable returns true if error should trigger a retry
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConnFailed) || errors.Is(err, ErrTimeout)
}

// IsCritical returns true if error should stop all operations
func IsCritical(err error) bool {
	return errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrInvalidConfig)
}

// WrapError adds context to an error. Network failures and deadlines are
// tagged with ErrConnFailed or ErrTimeout so WithRetry can recognise them.
func WrapError(backend, operation string, err error) error {
	if kind := classify(err); kind != nil {
		return fmt.Errorf("%s (%s): %w: %w", operation, backend, kind, err)
	}
	return fmt.Errorf("%s (%s): %w", operation, backend, err)
}

func classify(err error) error {
	if IsRetryable(err) || IsCritical(err) || errors.Is(err, ErrNotFound) {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrConnFailed
	}
	return nil
}
