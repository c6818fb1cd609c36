// Package cli is the odoo-backup command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/juju/clock"
	"github.com/rs/zerolog"

	"github.com/williamokano/odoo_backuper/pkg/backup"
	"github.com/williamokano/odoo_backuper/pkg/config"
	"github.com/williamokano/odoo_backuper/pkg/container"
	"github.com/williamokano/odoo_backuper/pkg/container/docker"
	"github.com/williamokano/odoo_backuper/pkg/logger"
	"github.com/williamokano/odoo_backuper/pkg/storage"

	// destination backends register themselves with the storage factory
	_ "github.com/williamokano/odoo_backuper/pkg/storage/backblaze"
	_ "github.com/williamokano/odoo_backuper/pkg/storage/local"
	_ "github.com/williamokano/odoo_backuper/pkg/storage/s3"
	_ "github.com/williamokano/odoo_backuper/pkg/storage/ssh"
)

const (
	DefaultConfigFile = "/etc/odoo-backup/config.json"
	DefaultBackupDir  = "/var/backups/odoo"

	EnvConfigFile = "ODOO_BACKUP_CONFIG"
	EnvBackupDir  = "ODOO_BACKUP_DIR"
)

// ErrRunFailed is returned when at least one database operation failed.
var ErrRunFailed = errors.New("one or more databases failed")

// RuntimeFactory opens the container runtime used by backup and status.
type RuntimeFactory func(logger zerolog.Logger) (container.Runtime, error)

// App holds the global options and the injectable dependencies of the CLI.
type App struct {
	ConfigFile  string
	BackupDir   string
	Verbose     bool
	LogFormat   string
	StepTimeout time.Duration

	NewRuntime RuntimeFactory
	Clock      clock.Clock

	// set by the root command from which flags the user passed
	backupDirSet   bool
	logFormatSet   bool
	stepTimeoutSet bool
}

// NewApp returns an App wired to Docker and the wall clock.
func NewApp() *App {
	return &App{
		NewRuntime: dockerRuntime,
		Clock:      clock.WallClock,
	}
}

func dockerRuntime(logger zerolog.Logger) (container.Runtime, error) {
	rt, err := docker.NewRuntime(logger)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// session is everything a command needs once the config file is loaded
type session struct {
	config     *config.Config
	registry   *config.Registry
	backupDir  string
	logger     zerolog.Logger
	runtime    container.Runtime
	replicator *storage.Replicator
}

// Close releases the runtime and destination connections.
func (s *session) Close() {
	if s.replicator != nil {
		s.replicator.Close()
	}
	if c, ok := s.runtime.(io.Closer); ok {
		_ = c.Close()
	}
}

type sessionOptions struct {
	runtime      bool // open the container runtime
	destinations bool // connect the replication destinations
}

// open loads and validates the configuration, sets up logging and opens
// the requested dependencies. A config error aborts before any database
// is touched.
func (a *App) open(ctx context.Context, opts sessionOptions) (*session, error) {
	cfg, err := config.ParseConfig(a.ConfigFile)
	if err != nil {
		return nil, err
	}

	registry, err := config.Load(cfg.Databases)
	if err != nil {
		return nil, err
	}

	level := cfg.GetLogLevel()
	if a.Verbose {
		level = "debug"
	}
	format := cfg.GetLogFormat()
	if a.logFormatSet {
		format = a.LogFormat
	}
	logger.Init(level, format)
	log := *logger.Get()

	if err := config.CheckPermissions(a.ConfigFile); err != nil {
		log.Warn().Err(err).Msg("insecure config file permissions")
	}

	s := &session{
		config:    cfg,
		registry:  registry,
		backupDir: a.resolveBackupDir(cfg),
		logger:    log,
	}

	if opts.runtime {
		rt, err := a.NewRuntime(log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to the container runtime: %w", err)
		}
		s.runtime = rt
	}

	if opts.destinations {
		backends, err := storage.NewFactory().CreateAll(ctx, cfg.EnabledDestinations())
		if err != nil {
			s.Close()
			return nil, err
		}
		s.replicator = storage.NewReplicator(backends, a.Clock, log)
	}

	log.Debug().
		Str("config_file", a.ConfigFile).
		Str("backup_dir", s.backupDir).
		Int("databases", registry.Len()).
		Msg("configuration loaded")

	return s, nil
}

// resolveBackupDir applies flag > config file > environment/default.
func (a *App) resolveBackupDir(cfg *config.Config) string {
	if a.backupDirSet || cfg.BackupDir == "" {
		return a.BackupDir
	}
	return cfg.BackupDir
}

func (a *App) stepTimeout(cfg *config.Config) (time.Duration, error) {
	if a.stepTimeoutSet {
		if a.StepTimeout <= 0 {
			return 0, fmt.Errorf("invalid --step-timeout %s: must be positive", a.StepTimeout)
		}
		return a.StepTimeout, nil
	}
	return cfg.GetStepTimeout()
}

func (a *App) runner(s *session) (*backup.Runner, error) {
	timeout, err := a.stepTimeout(s.config)
	if err != nil {
		return nil, err
	}

	var executor *backup.Executor
	if s.runtime != nil {
		executor = backup.NewExecutor(s.runtime, a.Clock, timeout, s.logger)
	}

	return backup.NewRunner(backup.RunnerConfig{
		Registry:   s.registry,
		Runtime:    s.runtime,
		Executor:   executor,
		Replicator: s.replicator,
		BackupRoot: s.backupDir,
		Clock:      a.Clock,
		Logger:     s.logger,
	}), nil
}
