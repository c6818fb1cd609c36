package rotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/williamokano/odoo_backuper/pkg/config"
)

func TestGenerateBackupFilename(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, "acme_20240102030405.zip", GenerateBackupFilename("acme", config.FormatZip, ts))
	assert.Equal(t, "acme_20240102030405.dump", GenerateBackupFilename("acme", config.FormatDump, ts))

	// non-UTC input is normalized
	local := ts.In(time.FixedZone("UTC+2", 2*60*60))
	assert.Equal(t, "acme_20240102030405.zip", GenerateBackupFilename("acme", config.FormatZip, local))
}

func TestParseBackupFilename(t *testing.T) {
	tests := []struct {
		name       string
		dbName     string
		filename   string
		want       time.Time
		wantFormat config.BackupFormat
		wantErr    bool
	}{
		{
			name:       "zip",
			dbName:     "acme",
			filename:   "acme_20240102030405.zip",
			want:       time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			wantFormat: config.FormatZip,
		},
		{
			name:       "dump with full path",
			dbName:     "acme",
			filename:   "/var/backups/odoo/acme/acme_20231231235959.dump",
			want:       time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
			wantFormat: config.FormatDump,
		},
		{
			name:       "database name with underscores",
			dbName:     "acme_prod",
			filename:   "acme_prod_20240102030405.zip",
			want:       time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			wantFormat: config.FormatZip,
		},
		{
			name:     "other database sharing a prefix",
			dbName:   "acme",
			filename: "acme_prod_20240102030405.zip",
			wantErr:  true,
		},
		{
			name:     "different database",
			dbName:   "acme",
			filename: "globex_20240102030405.zip",
			wantErr:  true,
		},
		{
			name:     "unknown extension",
			dbName:   "acme",
			filename: "acme_20240102030405.tar",
			wantErr:  true,
		},
		{
			name:     "short timestamp",
			dbName:   "acme",
			filename: "acme_202401020304.zip",
			wantErr:  true,
		},
		{
			name:     "invalid month",
			dbName:   "acme",
			filename: "acme_20241302030405.zip",
			wantErr:  true,
		},
		{
			name:     "notes file",
			dbName:   "acme",
			filename: "acme_notes.txt",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, format, err := ParseBackupFilename(tt.dbName, tt.filename)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
			assert.Equal(t, tt.wantFormat, format)
		})
	}
}

func TestGenerateThenParse(t *testing.T) {
	ts := time.Date(2025, 6, 30, 12, 0, 1, 0, time.UTC)
	name := GenerateBackupFilename("db1", config.FormatDump, ts)

	got, format, err := ParseBackupFilename("db1", name)
	require.NoError(t, err)
	assert.True(t, got.Equal(ts))
	assert.Equal(t, config.FormatDump, format)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/var/backups/odoo/db1", DatabaseDir("/var/backups/odoo", "db1"))
	assert.Equal(t, "db1/db1_*", GetBackupPattern("db1"))
	assert.Equal(t, "db1/db1_20240101000000.zip", ObjectPath("db1", "db1_20240101000000.zip"))
}
