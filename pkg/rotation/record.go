package rotation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/williamokano/odoo_backuper/pkg/config"
)

// BackupRecord is a view of one artifact on disk, derived from its name.
type BackupRecord struct {
	Path         string
	DatabaseName string
	CreatedAt    time.Time
	Format       config.BackupFormat
	Size         int64
}

// scanDatabase returns the artifacts of dbName found directly under
// {backupRoot}/{dbName}, plus the names it could not parse.
// A missing directory yields no records.
func scanDatabase(backupRoot, dbName string) ([]BackupRecord, []string, error) {
	dir := DatabaseDir(backupRoot, dbName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to list backup directory %s: %w", dir, err)
	}

	var records []BackupRecord
	var skipped []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		createdAt, format, err := ParseBackupFilename(dbName, entry.Name())
		if err != nil {
			skipped = append(skipped, entry.Name())
			continue
		}

		var size int64
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}

		records = append(records, BackupRecord{
			Path:         filepath.Join(dir, entry.Name()),
			DatabaseName: dbName,
			CreatedAt:    createdAt,
			Format:       format,
			Size:         size,
		})
	}

	return records, skipped, nil
}

// List returns the artifacts of databaseName, newest first. An empty
// databaseName lists every database directory under backupRoot.
func List(backupRoot, databaseName string) ([]BackupRecord, error) {
	var names []string
	if databaseName != "" {
		names = []string{databaseName}
	} else {
		entries, err := os.ReadDir(backupRoot)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to list backup root %s: %w", backupRoot, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				names = append(names, entry.Name())
			}
		}
	}

	var records []BackupRecord
	for _, name := range names {
		found, _, err := scanDatabase(backupRoot, name)
		if err != nil {
			return nil, err
		}
		records = append(records, found...)
	}

	sortNewestFirst(records)
	return records, nil
}

func sortNewestFirst(records []BackupRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].Path < records[j].Path
	})
}
