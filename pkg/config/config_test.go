package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestParseConfig_BareArray(t *testing.T) {
	path := writeConfig(t, `[
		{
			"name": "C1",
			"database_name": "db1",
			"url": "http://localhost:8069",
			"container_name": "odoo1",
			"master_password": "secret",
			"backup_format": "zip",
			"output_path": "/tmp",
			"retention_days": 7
		}
	]`)

	cfg, err := ParseConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Databases, 1)
	assert.Equal(t, "db1", cfg.Databases[0].DatabaseName)
	assert.Equal(t, FormatZip, cfg.Databases[0].BackupFormat)
	assert.Equal(t, "secret", cfg.Databases[0].MasterPassword.Reveal())
	assert.Empty(t, cfg.BackupDir)
}

func TestParseConfig_Object(t *testing.T) {
	path := writeConfig(t, `{
		"backup_dir": "/srv/backups",
		"step_timeout": "10m",
		"log_level": "debug",
		"destinations": [
			{"name": "offsite", "type": "s3", "enabled": true, "options": {"bucket": "b"}},
			{"name": "nas", "type": "local", "enabled": false, "options": {"path": "/mnt/nas"}}
		],
		"databases": [
			{
				"name": "C1",
				"database_name": "db1",
				"url": "http://localhost:8069",
				"container_name": "odoo1",
				"master_password": "secret",
				"backup_format": "dump",
				"output_path": "/tmp",
				"retention_days": 0
			}
		]
	}`)

	cfg, err := ParseConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/backups", cfg.BackupDir)
	assert.Equal(t, "debug", cfg.GetLogLevel())
	assert.Equal(t, "console", cfg.GetLogFormat())

	timeout, err := cfg.GetStepTimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, timeout)

	enabled := cfg.EnabledDestinations()
	require.Len(t, enabled, 1)
	assert.Equal(t, "offsite", enabled[0].Name)
}

func TestParseConfig_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"retention is a string", `[{"name": "a", "retention_days": "7"}]`},
		{"missing databases", `{"backup_dir": "/srv"}`},
		{"unknown destination type", `{"databases": [], "destinations": [{"name": "x", "type": "ftp"}]}`},
		{"bad log level", `{"databases": [], "log_level": "loud"}`},
		{"scalar document", `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			var schemaErr *SchemaError
			assert.ErrorAs(t, err, &schemaErr)
		})
	}
}

func TestParseConfig_MissingRetention(t *testing.T) {
	entry := `{
		"name": "C2",
		"database_name": "db2",
		"url": "http://localhost:8069",
		"container_name": "odoo2",
		"master_password": "secret",
		"backup_format": "zip",
		"output_path": "/tmp"
	}`
	complete := `{
		"name": "C1",
		"database_name": "db1",
		"url": "http://localhost:8069",
		"container_name": "odoo1",
		"master_password": "secret",
		"backup_format": "zip",
		"output_path": "/tmp",
		"retention_days": 7
	}`

	tests := []struct {
		name    string
		content string
	}{
		{"array form", "[" + complete + "," + entry + "]"},
		{"object form", `{"databases": [` + complete + "," + entry + `]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(writeConfig(t, tt.content))
			require.Error(t, err)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, 1, cfgErr.Index)
			assert.Equal(t, "C2", cfgErr.Name)
			assert.Equal(t, "retention_days", cfgErr.Field)
			assert.Equal(t, "database 1 (C2): retention_days is required", err.Error())
		})
	}
}

func TestParseConfig_MissingFile(t *testing.T) {
	_, err := ParseConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestGetStepTimeout(t *testing.T) {
	cfg := &Config{}
	d, err := cfg.GetStepTimeout()
	require.NoError(t, err)
	assert.Equal(t, DefaultStepTimeout, d)

	cfg.StepTimeout = "soon"
	_, err = cfg.GetStepTimeout()
	assert.Error(t, err)

	cfg.StepTimeout = "-1m"
	_, err = cfg.GetStepTimeout()
	assert.Error(t, err)
}

func TestSecret_Redacted(t *testing.T) {
	db := DatabaseConfig{Name: "a", MasterPassword: "hunter2"}

	out, err := json.Marshal(db)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")
	assert.Contains(t, string(out), "[redacted]")

	assert.Equal(t, "[redacted]", db.MasterPassword.String())
	assert.Equal(t, "hunter2", db.MasterPassword.Reveal())
	assert.Equal(t, "", Secret("").String())
}

func TestBackupFormat(t *testing.T) {
	assert.True(t, FormatZip.Valid())
	assert.True(t, FormatDump.Valid())
	assert.False(t, BackupFormat("ZIP").Valid())
	assert.Equal(t, "dump", FormatDump.Extension())
}
