package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/juju/clock"
	"github.com/rs/zerolog"

	"github.com/williamokano/odoo_backuper/pkg/config"
	"github.com/williamokano/odoo_backuper/pkg/container"
	"github.com/williamokano/odoo_backuper/pkg/rotation"
)

// cleanupTimeout bounds best-effort removal of the temp file after a failure.
const cleanupTimeout = 30 * time.Second

// Result represents the outcome of a successful backup
type Result struct {
	Record   rotation.BackupRecord
	Warnings []error // non-fatal problems, e.g. *CleanupWarning
	Duration time.Duration
}

// Executor runs the backup protocol for one database at a time:
// liveness check, trigger inside the container, transfer to the host,
// verification and cleanup. No step is retried.
type Executor struct {
	runtime     container.Runtime
	clock       clock.Clock
	stepTimeout time.Duration
	logger      zerolog.Logger
}

// NewExecutor creates an executor. stepTimeout bounds each step separately.
func NewExecutor(runtime container.Runtime, clk clock.Clock, stepTimeout time.Duration, logger zerolog.Logger) *Executor {
	if stepTimeout <= 0 {
		stepTimeout = config.DefaultStepTimeout
	}
	return &Executor{
		runtime:     runtime,
		clock:       clk,
		stepTimeout: stepTimeout,
		logger:      logger,
	}
}

// Execute backs up db into {backupRoot}/{database_name}/. Any returned
// error is a *StepError.
func (e *Executor) Execute(ctx context.Context, db config.DatabaseConfig, backupRoot string) (Result, error) {
	start := e.clock.Now()
	createdAt := start.UTC().Truncate(time.Second)

	dbLog := e.logger.With().
		Str("database", db.DatabaseName).
		Str("container", db.ContainerName).
		Logger()

	if err := e.checkLiveness(ctx, db); err != nil {
		return Result{}, err
	}

	filename := rotation.GenerateBackupFilename(db.DatabaseName, db.BackupFormat, createdAt)
	hostDir := rotation.DatabaseDir(backupRoot, db.DatabaseName)
	hostPath := filepath.Join(hostDir, filename)
	containerPath := path.Join(db.OutputPath, filename)

	if err := prepareHostPath(hostDir, hostPath); err != nil {
		return Result{}, err
	}

	dbLog.Info().
		Str("file", filename).
		Str("format", string(db.BackupFormat)).
		Msg("starting backup")

	status, err := e.trigger(ctx, db, containerPath)
	if err != nil {
		e.removeTemp(ctx, db.ContainerName, containerPath, dbLog)
		return Result{}, err
	}
	dbLog.Debug().Int("status", status).Msg("backup endpoint responded")

	if err := e.transfer(ctx, db.ContainerName, containerPath, hostPath); err != nil {
		e.removeTemp(ctx, db.ContainerName, containerPath, dbLog)
		return Result{}, err
	}

	size, err := verifyArtifact(hostPath, db.BackupFormat, status)
	if err != nil {
		if rmErr := os.Remove(hostPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			dbLog.Warn().Err(rmErr).Str("file", hostPath).Msg("failed to remove invalid backup file")
		}
		e.removeTemp(ctx, db.ContainerName, containerPath, dbLog)
		return Result{}, err
	}

	var warnings []error
	if err := e.cleanup(ctx, db.ContainerName, containerPath); err != nil {
		dbLog.Warn().Err(err).Msg("backup transferred but temp file was left in the container")
		warnings = append(warnings, err)
	}

	duration := e.clock.Now().Sub(start)
	dbLog.Info().
		Str("file", hostPath).
		Int64("size", size).
		Dur("duration", duration).
		Msg("backup completed")

	return Result{
		Record: rotation.BackupRecord{
			Path:         hostPath,
			DatabaseName: db.DatabaseName,
			CreatedAt:    createdAt,
			Format:       db.BackupFormat,
			Size:         size,
		},
		Warnings: warnings,
		Duration: duration,
	}, nil
}

// runStep runs fn under the per-step deadline and turns an expired
// deadline into ErrTimeout.
func (e *Executor) runStep(ctx context.Context, step Step, fn func(ctx context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	err := fn(stepCtx)
	if err != nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return &StepError{
			Step: step,
			Kind: ErrTimeout,
			Err:  fmt.Errorf("%s step exceeded %s", step, e.stepTimeout),
		}
	}
	return err
}

func (e *Executor) checkLiveness(ctx context.Context, db config.DatabaseConfig) error {
	return e.runStep(ctx, StepLiveness, func(ctx context.Context) error {
		running, err := e.runtime.IsRunning(ctx, db.ContainerName)
		if err != nil {
			return &StepError{Step: StepLiveness, Kind: ErrRuntime, Err: err}
		}
		if !running {
			return &StepError{
				Step: StepLiveness,
				Kind: ErrContainerNotRunning,
				Err:  fmt.Errorf("container %s", db.ContainerName),
			}
		}
		return nil
	})
}

// prepareHostPath creates the database directory and refuses to overwrite
// an artifact taken within the same second.
func prepareHostPath(hostDir, hostPath string) error {
	if err := os.MkdirAll(hostDir, 0750); err != nil {
		return &StepError{Step: StepPrepare, Kind: ErrTransfer, Err: err}
	}
	if _, err := os.Lstat(hostPath); err == nil {
		return &StepError{
			Step: StepPrepare,
			Kind: ErrTransfer,
			Err:  fmt.Errorf("%s: %w", hostPath, ErrArtifactExists),
		}
	}
	return nil
}

func (e *Executor) trigger(ctx context.Context, db config.DatabaseConfig, containerPath string) (int, error) {
	var status int
	err := e.runStep(ctx, StepTrigger, func(ctx context.Context) error {
		cmd, env := triggerCommand(db, db.OutputPath, containerPath, e.stepTimeout)

		res, err := e.runtime.Exec(ctx, db.ContainerName, cmd, env)
		if err != nil {
			return &StepError{Step: StepTrigger, Kind: ErrBackupAPI, Err: err}
		}
		if res.ExitCode != 0 {
			return &StepError{
				Step: StepTrigger,
				Kind: ErrBackupAPI,
				Err:  &APIError{ExitCode: res.ExitCode, Body: fragment(res.Stderr)},
			}
		}

		status, err = parseStatus(res.Stdout)
		if err != nil {
			return &StepError{Step: StepTrigger, Kind: ErrBackupAPI, Err: err}
		}
		if !isSuccess(status) {
			return &StepError{
				Step: StepTrigger,
				Kind: ErrBackupAPI,
				Err:  &APIError{StatusCode: status, Body: e.readFragment(ctx, db.ContainerName, containerPath)},
			}
		}
		return nil
	})
	return status, err
}

// readFragment returns the start of an error response saved in the
// container, or "" if it cannot be read.
func (e *Executor) readFragment(ctx context.Context, containerName, containerPath string) string {
	res, err := e.runtime.Exec(ctx, containerName,
		[]string{"head", "-c", fmt.Sprint(maxBodyFragment), "--", containerPath}, nil)
	if err != nil || res.ExitCode != 0 {
		return ""
	}
	return fragment(res.Stdout)
}

func (e *Executor) transfer(ctx context.Context, containerName, containerPath, hostPath string) error {
	return e.runStep(ctx, StepTransfer, func(ctx context.Context) error {
		if err := e.runtime.CopyFromContainer(ctx, containerName, containerPath, hostPath); err != nil {
			return &StepError{Step: StepTransfer, Kind: ErrTransfer, Err: err}
		}
		return nil
	})
}

// verifyArtifact checks that the transferred file is a real backup and not
// an error page served with a success status. It returns the file size.
func verifyArtifact(hostPath string, format config.BackupFormat, status int) (int64, error) {
	f, err := os.Open(hostPath)
	if err != nil {
		return 0, &StepError{Step: StepVerify, Kind: ErrTransfer, Err: err}
	}
	defer f.Close()

	head := make([]byte, maxBodyFragment)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, &StepError{Step: StepVerify, Kind: ErrTransfer, Err: err}
	}
	head = head[:n]

	if !bytes.HasPrefix(head, magic(format)) {
		return 0, &StepError{
			Step: StepVerify,
			Kind: ErrBackupAPI,
			Err:  &APIError{StatusCode: status, Body: "response is not a " + string(format) + " archive: " + fragment(head)},
		}
	}

	info, err := f.Stat()
	if err != nil {
		return 0, &StepError{Step: StepVerify, Kind: ErrTransfer, Err: err}
	}
	return info.Size(), nil
}

func (e *Executor) cleanup(ctx context.Context, containerName, containerPath string) error {
	err := e.runStep(ctx, StepCleanup, func(ctx context.Context) error {
		return e.runtime.RemoveInContainer(ctx, containerName, containerPath)
	})
	if err != nil {
		return &CleanupWarning{Path: containerPath, Err: err}
	}
	return nil
}

// removeTemp is the best-effort cleanup after a failed step. It runs on its
// own deadline so it still works once the step context has expired.
func (e *Executor) removeTemp(ctx context.Context, containerName, containerPath string, logger zerolog.Logger) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := e.runtime.RemoveInContainer(cleanupCtx, containerName, containerPath); err != nil {
		logger.Warn().
			Err(err).
			Str("path", containerPath).
			Msg("failed to remove temp file from container")
	}
}
