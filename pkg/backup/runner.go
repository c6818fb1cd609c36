package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/juju/clock"
	"github.com/rs/zerolog"

	"github.com/williamokano/odoo_backuper/pkg/config"
	"github.com/williamokano/odoo_backuper/pkg/container"
	"github.com/williamokano/odoo_backuper/pkg/rotation"
	"github.com/williamokano/odoo_backuper/pkg/storage"
)

// Outcome is what happened to one database during a run
type Outcome struct {
	Name         string
	DatabaseName string

	Record   *rotation.BackupRecord // nil when no backup was taken
	Warnings []error

	Replication []storage.Result

	Removed           []rotation.BackupRecord
	RemoteRemoved     []string // backend:path
	RetentionFailures []*rotation.RetentionError

	Err      error // backup failure, nil on success or for clean runs
	Duration time.Duration
}

// Failed reports whether any part of the database's run went wrong.
func (o Outcome) Failed() bool {
	return o.Err != nil || len(storage.Failed(o.Replication)) > 0 || len(o.RetentionFailures) > 0
}

// Report collects the outcomes of a batch run in configuration order
type Report struct {
	Outcomes []Outcome
}

// Failed returns the number of databases whose run failed.
func (r Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// ContainerStatus is the liveness of one configured container
type ContainerStatus struct {
	Name          string
	DatabaseName  string
	ContainerName string
	Running       bool
	Err           error // the runtime could not be queried; Running is false
}

// RunnerConfig wires a Runner
type RunnerConfig struct {
	Registry   *config.Registry
	Runtime    container.Runtime
	Executor   *Executor
	Replicator *storage.Replicator // optional
	BackupRoot string
	Clock      clock.Clock
	Logger     zerolog.Logger
}

// Runner drives backups and retention across the configured databases,
// strictly one database at a time. A failure on one database never stops
// the others.
type Runner struct {
	registry   *config.Registry
	runtime    container.Runtime
	executor   *Executor
	replicator *storage.Replicator
	backupRoot string
	clock      clock.Clock
	logger     zerolog.Logger
}

// NewRunner creates a runner
func NewRunner(cfg RunnerConfig) *Runner {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	return &Runner{
		registry:   cfg.Registry,
		runtime:    cfg.Runtime,
		executor:   cfg.Executor,
		replicator: cfg.Replicator,
		backupRoot: cfg.BackupRoot,
		clock:      clk,
		logger:     cfg.Logger,
	}
}

// RunAll backs up every configured database in order, applying retention
// after each successful backup.
func (r *Runner) RunAll(ctx context.Context) Report {
	databases := r.registry.Databases()
	r.logger.Info().
		Int("databases", len(databases)).
		Str("backup_dir", r.backupRoot).
		Msg("starting backup run")

	report := Report{Outcomes: make([]Outcome, 0, len(databases))}
	for _, db := range databases {
		report.Outcomes = append(report.Outcomes, r.runDatabase(ctx, db))
	}

	r.logSummary(report, "backup run completed")
	return report
}

// RunOne backs up the database whose display name is name.
func (r *Runner) RunOne(ctx context.Context, name string) (Outcome, error) {
	db, err := r.registry.FindByName(name)
	if err != nil {
		return Outcome{}, err
	}
	return r.runDatabase(ctx, db), nil
}

func (r *Runner) runDatabase(ctx context.Context, db config.DatabaseConfig) Outcome {
	start := r.clock.Now()
	outcome := Outcome{Name: db.Name, DatabaseName: db.DatabaseName}
	dbLog := r.logger.With().Str("client", db.Name).Str("database", db.DatabaseName).Logger()

	if err := ctx.Err(); err != nil {
		outcome.Err = err
		return outcome
	}

	res, err := r.executor.Execute(ctx, db, r.backupRoot)
	if err != nil {
		dbLog.Error().Err(err).Msg("backup failed, skipping retention")
		outcome.Err = err
		outcome.Duration = r.clock.Now().Sub(start)
		return outcome
	}
	outcome.Record = &res.Record
	outcome.Warnings = res.Warnings

	if r.replicator != nil && len(r.replicator.Backends()) > 0 {
		dest := rotation.ObjectPath(db.DatabaseName, filepath.Base(res.Record.Path))
		outcome.Replication = r.replicator.Replicate(ctx, res.Record.Path, dest)
	}

	r.applyRetention(ctx, db, &outcome, dbLog)

	outcome.Duration = r.clock.Now().Sub(start)
	return outcome
}

// CleanAll applies retention to every configured database without taking
// new backups.
func (r *Runner) CleanAll(ctx context.Context) Report {
	databases := r.registry.Databases()
	report := Report{Outcomes: make([]Outcome, 0, len(databases))}
	for _, db := range databases {
		report.Outcomes = append(report.Outcomes, r.cleanDatabase(ctx, db))
	}

	r.logSummary(report, "retention run completed")
	return report
}

// CleanOne applies retention to the database whose display name is name.
func (r *Runner) CleanOne(ctx context.Context, name string) (Outcome, error) {
	db, err := r.registry.FindByName(name)
	if err != nil {
		return Outcome{}, err
	}
	return r.cleanDatabase(ctx, db), nil
}

func (r *Runner) cleanDatabase(ctx context.Context, db config.DatabaseConfig) Outcome {
	start := r.clock.Now()
	outcome := Outcome{Name: db.Name, DatabaseName: db.DatabaseName}
	dbLog := r.logger.With().Str("client", db.Name).Str("database", db.DatabaseName).Logger()

	r.applyRetention(ctx, db, &outcome, dbLog)

	outcome.Duration = r.clock.Now().Sub(start)
	return outcome
}

func (r *Runner) applyRetention(ctx context.Context, db config.DatabaseConfig, outcome *Outcome, logger zerolog.Logger) {
	now := r.clock.Now()

	removed, failures := rotation.Sweep(r.backupRoot, db, now, logger)
	outcome.Removed = append(outcome.Removed, removed...)
	outcome.RetentionFailures = append(outcome.RetentionFailures, failures...)

	if r.replicator == nil {
		return
	}
	for _, backend := range r.replicator.Backends() {
		remote, failures, err := rotation.SweepBackend(ctx, backend, db, now, logger)
		if err != nil {
			outcome.RetentionFailures = append(outcome.RetentionFailures, &rotation.RetentionError{Path: backend.Name(), Err: err})
			continue
		}
		for _, p := range remote {
			outcome.RemoteRemoved = append(outcome.RemoteRemoved, fmt.Sprintf("%s:%s", backend.Name(), p))
		}
		outcome.RetentionFailures = append(outcome.RetentionFailures, failures...)
	}
}

// StatusAll reports the liveness of every configured container. A query
// error is attached to that entry and does not stop the others.
func (r *Runner) StatusAll(ctx context.Context) []ContainerStatus {
	databases := r.registry.Databases()
	statuses := make([]ContainerStatus, 0, len(databases))

	for _, db := range databases {
		status := ContainerStatus{
			Name:          db.Name,
			DatabaseName:  db.DatabaseName,
			ContainerName: db.ContainerName,
		}

		running, err := r.runtime.IsRunning(ctx, db.ContainerName)
		if err != nil {
			r.logger.Warn().Err(err).Str("container", db.ContainerName).Msg("failed to query container status")
			status.Err = err
		} else {
			status.Running = running
		}

		statuses = append(statuses, status)
	}

	return statuses
}

func (r *Runner) logSummary(report Report, msg string) {
	failed := report.Failed()
	r.logger.Info().
		Int("successful", len(report.Outcomes)-failed).
		Int("failed", failed).
		Msg(msg)
}
