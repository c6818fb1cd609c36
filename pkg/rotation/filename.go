package rotation

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/williamokano/odoo_backuper/pkg/config"
)

const (
	// TimestampFormat is the UTC timestamp embedded in every artifact name.
	TimestampFormat = "20060102150405"

	// Separator joins the database name and the timestamp.
	Separator = "_"
)

// GenerateBackupFilename returns the artifact name for a database:
// {database_name}_{YYYYMMDDHHMMSS}.{zip|dump}
func GenerateBackupFilename(dbName string, format config.BackupFormat, timestamp time.Time) string {
	return fmt.Sprintf("%s%s%s.%s", dbName, Separator, timestamp.UTC().Format(TimestampFormat), format.Extension())
}

// DatabaseDir returns the host directory holding a database's artifacts.
func DatabaseDir(backupRoot, dbName string) string {
	return filepath.Join(backupRoot, dbName)
}

// ParseBackupFilename extracts the timestamp and format from an artifact
// name belonging to dbName. Names of other databases, unknown extensions
// and malformed timestamps are rejected.
func ParseBackupFilename(dbName, filename string) (time.Time, config.BackupFormat, error) {
	base := filepath.Base(filename)

	prefix := dbName + Separator
	if !strings.HasPrefix(base, prefix) {
		return time.Time{}, "", fmt.Errorf("%s does not belong to database %s", base, dbName)
	}

	ext := filepath.Ext(base)
	format := config.BackupFormat(strings.TrimPrefix(ext, "."))
	if !format.Valid() {
		return time.Time{}, "", fmt.Errorf("%s has unrecognized extension %q", base, ext)
	}

	stamp := strings.TrimSuffix(strings.TrimPrefix(base, prefix), ext)
	if len(stamp) != len(TimestampFormat) {
		return time.Time{}, "", fmt.Errorf("%s has malformed timestamp %q", base, stamp)
	}

	timestamp, err := time.Parse(TimestampFormat, stamp)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("failed to parse timestamp '%s' from %s: %w", stamp, base, err)
	}

	return timestamp, format, nil
}

// GetBackupPattern returns the slash-separated glob matching a database's
// artifacts on a storage backend.
func GetBackupPattern(dbName string) string {
	return path.Join(dbName, dbName+Separator+"*")
}

// ObjectPath returns where an artifact is stored on a storage backend.
func ObjectPath(dbName, filename string) string {
	return path.Join(dbName, filename)
}
