package rotation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/williamokano/odoo_backuper/pkg/config"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("PK\x03\x04"), 0644))
	}
}

func testDatabase(dbName string, retentionDays int) config.DatabaseConfig {
	return config.DatabaseConfig{
		Name:          "C1",
		DatabaseName:  dbName,
		BackupFormat:  config.FormatZip,
		RetentionDays: retentionDays,
	}
}

func TestExpired(t *testing.T) {
	now := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		createdAt time.Time
		days      int
		want      bool
	}{
		{"exactly at retention is kept", now.Add(-7 * day), 7, false},
		{"one second past retention", now.Add(-7*day - time.Second), 7, true},
		{"eight days old", now.Add(-8 * day), 7, true},
		{"fresh", now.Add(-time.Hour), 7, false},
		{"zero retention prunes anything older than now", now.Add(-time.Second), 0, true},
		{"zero retention keeps a backup taken now", now, 0, false},
		{"future timestamp", now.Add(time.Hour), 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expired(tt.createdAt, tt.days, now))
		})
	}
}

func TestSweep_BoundaryIsStrict(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "acme")
	touch(t, dir,
		"acme_20231230000000.zip", // exactly 7 days old
		"acme_20231229000000.zip", // 8 days old
	)

	now := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	removed, failures := Sweep(root, testDatabase("acme", 7), now, zerolog.Nop())

	assert.Empty(t, failures)
	require.Len(t, removed, 1)
	assert.Equal(t, filepath.Join(dir, "acme_20231229000000.zip"), removed[0].Path)

	assert.FileExists(t, filepath.Join(dir, "acme_20231230000000.zip"))
	assert.NoFileExists(t, filepath.Join(dir, "acme_20231229000000.zip"))
}

func TestSweep_SkipsUnparseableFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "acme")
	touch(t, dir,
		"README.txt",
		"acme_backup_old.zip",
		"acme_20200101000000.tar",
		"globex_20200101000000.zip",
	)

	now := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	removed, failures := Sweep(root, testDatabase("acme", 1), now, zerolog.Nop())

	assert.Empty(t, removed)
	assert.Empty(t, failures)
	for _, name := range []string{"README.txt", "acme_backup_old.zip", "acme_20200101000000.tar", "globex_20200101000000.zip"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestSweep_EndToEndScenario(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "db1")
	touch(t, dir,
		"db1_20230101000000.zip", // about 400 days old
		"db1_20240101000000.zip", // 5 days old
	)

	now := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	removed, failures := Sweep(root, testDatabase("db1", 7), now, zerolog.Nop())

	assert.Empty(t, failures)
	require.Len(t, removed, 1)
	assert.Equal(t, "db1", removed[0].DatabaseName)
	assert.True(t, removed[0].CreatedAt.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)))

	assert.NoFileExists(t, filepath.Join(dir, "db1_20230101000000.zip"))
	assert.FileExists(t, filepath.Join(dir, "db1_20240101000000.zip"))
}

func TestSweep_ZeroRetention(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "db1")
	touch(t, dir,
		"db1_20240101000000.zip", // 5 days old
		"db1_20240106000000.zip", // taken at now
	)

	now := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	removed, failures := Sweep(root, testDatabase("db1", 0), now, zerolog.Nop())

	assert.Empty(t, failures)
	require.Len(t, removed, 1)
	assert.Equal(t, filepath.Join(dir, "db1_20240101000000.zip"), removed[0].Path)
	assert.NoFileExists(t, filepath.Join(dir, "db1_20240101000000.zip"))
	assert.FileExists(t, filepath.Join(dir, "db1_20240106000000.zip"))
}

func TestSweep_ContinuesAfterFailedDeletion(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "db1")
	touch(t, dir,
		"db1_20230101000000.zip",
		"db1_20230201000000.zip",
	)
	locked := filepath.Join(dir, "db1_20230201000000.zip")

	orig := removeFile
	t.Cleanup(func() { removeFile = orig })
	removeFile = func(name string) error {
		if name == locked {
			return &os.PathError{Op: "remove", Path: name, Err: os.ErrPermission}
		}
		return orig(name)
	}

	now := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	removed, failures := Sweep(root, testDatabase("db1", 7), now, zerolog.Nop())

	require.Len(t, removed, 1)
	assert.Equal(t, filepath.Join(dir, "db1_20230101000000.zip"), removed[0].Path)
	assert.NoFileExists(t, filepath.Join(dir, "db1_20230101000000.zip"))

	require.Len(t, failures, 1)
	assert.Equal(t, locked, failures[0].Path)
	assert.True(t, errors.Is(failures[0], os.ErrPermission))
	assert.FileExists(t, locked)
}

func TestSweep_MissingDirectory(t *testing.T) {
	removed, failures := Sweep(t.TempDir(), testDatabase("never_backed_up", 7), time.Now(), zerolog.Nop())

	assert.Empty(t, removed)
	assert.Empty(t, failures)
}

func TestSweep_IgnoresSubdirectories(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "db1")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "db1_20000101000000.zip"), 0755))

	removed, failures := Sweep(root, testDatabase("db1", 1), time.Now(), zerolog.Nop())

	assert.Empty(t, removed)
	assert.Empty(t, failures)
	assert.DirExists(t, filepath.Join(dir, "db1_20000101000000.zip"))
}
