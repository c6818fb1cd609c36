package rotation

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/williamokano/odoo_backuper/pkg/config"
	"github.com/williamokano/odoo_backuper/pkg/storage"
)

const day = 24 * time.Hour

// removeFile is swapped in tests to simulate a failed deletion.
var removeFile = os.Remove

// RetentionError records an artifact that was due for deletion but could
// not be removed.
type RetentionError struct {
	Path string
	Err  error
}

func (e *RetentionError) Error() string {
	return fmt.Sprintf("failed to delete %s: %v", e.Path, e.Err)
}

func (e *RetentionError) Unwrap() error {
	return e.Err
}

// Expired reports whether a backup taken at createdAt is older than
// retentionDays at now. A backup exactly retentionDays old is kept, so with
// retentionDays == 0 only a backup taken at now survives.
func Expired(createdAt time.Time, retentionDays int, now time.Time) bool {
	return now.Sub(createdAt) > time.Duration(retentionDays)*day
}

// Sweep deletes the database's artifacts under backupRoot that are past
// its retention. Files whose names do not follow the artifact convention
// are never touched. A failed deletion is collected and the sweep goes on.
func Sweep(backupRoot string, db config.DatabaseConfig, now time.Time, logger zerolog.Logger) ([]BackupRecord, []*RetentionError) {
	dbLogger := logger.With().Str("database", db.DatabaseName).Logger()

	records, skipped, err := scanDatabase(backupRoot, db.DatabaseName)
	if err != nil {
		return nil, []*RetentionError{{Path: DatabaseDir(backupRoot, db.DatabaseName), Err: err}}
	}

	for _, name := range skipped {
		dbLogger.Debug().
			Str("file", name).
			Msg("skipping file that does not match the backup naming convention")
	}

	var removed []BackupRecord
	var failures []*RetentionError
	for _, record := range records {
		if !Expired(record.CreatedAt, db.RetentionDays, now) {
			continue
		}

		if err := removeFile(record.Path); err != nil {
			dbLogger.Error().
				Err(err).
				Str("file", record.Path).
				Msg("failed to delete backup file")
			failures = append(failures, &RetentionError{Path: record.Path, Err: err})
			continue
		}

		dbLogger.Info().
			Str("file", record.Path).
			Time("created_at", record.CreatedAt).
			Msg("deleted expired backup")
		removed = append(removed, record)
	}

	dbLogger.Info().
		Int("deleted", len(removed)).
		Int("failed", len(failures)).
		Int("retention_days", db.RetentionDays).
		Msg("retention sweep completed")

	return removed, failures
}

// SweepBackend applies the same retention rule to a replication
// destination, where artifacts live under {database_name}/.
func SweepBackend(ctx context.Context, backend storage.Backend, db config.DatabaseConfig, now time.Time, logger zerolog.Logger) ([]string, []*RetentionError, error) {
	backendLogger := logger.With().
		Str("database", db.DatabaseName).
		Str("backend", backend.Name()).
		Logger()

	files, err := backend.List(ctx, GetBackupPattern(db.DatabaseName))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list backups on %s: %w", backend.Name(), err)
	}

	var removed []string
	var failures []*RetentionError
	for _, file := range files {
		createdAt, _, err := ParseBackupFilename(db.DatabaseName, file.Path)
		if err != nil {
			backendLogger.Debug().Str("file", file.Path).Msg("skipping unrecognized object")
			continue
		}
		if !Expired(createdAt, db.RetentionDays, now) {
			continue
		}

		if err := backend.Delete(ctx, file.Path); err != nil {
			backendLogger.Error().Err(err).Str("file", file.Path).Msg("failed to delete backup")
			failures = append(failures, &RetentionError{Path: file.Path, Err: err})
			continue
		}

		backendLogger.Info().Str("file", file.Path).Msg("deleted expired backup")
		removed = append(removed, file.Path)
	}

	return removed, failures, nil
}
