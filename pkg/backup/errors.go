package backup

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	ErrContainerNotRunning = errors.New("container is not running")
	ErrRuntime             = errors.New("container runtime error")
	ErrBackupAPI           = errors.New("backup API request failed")
	ErrTransfer            = errors.New("transfer to host failed")
	ErrArtifactExists      = errors.New("backup file already exists")
	ErrTimeout             = errors.New("step timed out")
)

// Step names one stage of a database backup.
type Step string

const (
	StepLiveness Step = "liveness"
	StepPrepare  Step = "prepare"
	StepTrigger  Step = "trigger"
	StepTransfer Step = "transfer"
	StepVerify   Step = "verify"
	StepCleanup  Step = "cleanup"
)

// StepError is returned by Execute. Kind is one of the sentinel errors
// above, so errors.Is(err, ErrTransfer) and friends work on it.
type StepError struct {
	Step Step
	Kind error
	Err  error
}

func (e *StepError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// maxBodyFragment bounds how much of an error response is kept.
const maxBodyFragment = 512

// APIError describes a failed request to the backup endpoint.
type APIError struct {
	StatusCode int    // HTTP status, 0 when no response was received
	ExitCode   int    // curl exit code, 0 when curl itself succeeded
	Body       string // start of the response body or of curl's stderr
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Body == "":
		return fmt.Sprintf("request failed (curl exit code %d)", e.ExitCode)
	case e.StatusCode == 0:
		return fmt.Sprintf("request failed (curl exit code %d): %s", e.ExitCode, e.Body)
	case e.Body == "":
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	default:
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
}

// CleanupWarning reports a temp file that could not be removed from the
// container. The backup itself is still valid.
type CleanupWarning struct {
	Path string
	Err  error
}

func (w *CleanupWarning) Error() string {
	return fmt.Sprintf("failed to remove %s from container: %v", w.Path, w.Err)
}

func (w *CleanupWarning) Unwrap() error {
	return w.Err
}

func fragment(b []byte) string {
	if len(b) > maxBodyFragment {
		b = b[:maxBodyFragment]
	}
	return string(bytes.TrimSpace(b))
}
