package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/williamokano/odoo_backuper/pkg/storage"
)

// BackupFormat is the artifact format requested from the backup endpoint.
type BackupFormat string

const (
	FormatZip  BackupFormat = "zip"  // database dump plus filestore
	FormatDump BackupFormat = "dump" // pg_dump custom format, no filestore
)

// Valid reports whether f is one of the recognized formats.
func (f BackupFormat) Valid() bool {
	return f == FormatZip || f == FormatDump
}

// Extension returns the file extension used for artifacts of this format.
func (f BackupFormat) Extension() string {
	return string(f)
}

// Secret holds a credential that must never end up in logs or output.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[redacted]"
}

// MarshalJSON keeps the secret out of any serialized form.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Reveal returns the plain value. Only the backup trigger should call it.
func (s Secret) Reveal() string {
	return string(s)
}

// DatabaseConfig defines one configured backup target
type DatabaseConfig struct {
	Name           string       `json:"name"`            // display label, used by --client
	DatabaseName   string       `json:"database_name"`   // database name on the Odoo side
	URL            string       `json:"url"`             // base URL reachable from inside the container
	ContainerName  string       `json:"container_name"`  // container running the Odoo instance
	MasterPassword Secret       `json:"master_password"` // Odoo master password
	BackupFormat   BackupFormat `json:"backup_format"`   // zip or dump
	OutputPath     string       `json:"output_path"`     // temp directory inside the container
	RetentionDays  int          `json:"retention_days"`  // required; 0 prunes everything older than the run
}

// Config is the root configuration structure
type Config struct {
	BackupDir    string           `json:"backup_dir,omitempty"`
	StepTimeout  string           `json:"step_timeout,omitempty"` // Go duration, e.g. "30m"
	LogLevel     string           `json:"log_level,omitempty"`    // debug, info, warn, error
	LogFormat    string           `json:"log_format,omitempty"`   // json, console
	Destinations []storage.Config `json:"destinations,omitempty"`
	Databases    []DatabaseConfig `json:"databases"`
}

// DefaultStepTimeout bounds every step of a single backup.
const DefaultStepTimeout = 30 * time.Minute

// GetStepTimeout returns the per-step deadline (defaults to 30m)
func (c *Config) GetStepTimeout() (time.Duration, error) {
	if c.StepTimeout == "" {
		return DefaultStepTimeout, nil
	}
	d, err := time.ParseDuration(c.StepTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid step_timeout %q: %w", c.StepTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid step_timeout %q: must be positive", c.StepTimeout)
	}
	return d, nil
}

// GetLogLevel returns the log level (defaults to info)
func (c *Config) GetLogLevel() string {
	if c.LogLevel != "" {
		return c.LogLevel
	}
	return "info"
}

// GetLogFormat returns the log format (defaults to console)
func (c *Config) GetLogFormat() string {
	if c.LogFormat != "" {
		return c.LogFormat
	}
	return "console"
}

// EnabledDestinations returns the destinations that are switched on, in file order.
func (c *Config) EnabledDestinations() []storage.Config {
	var out []storage.Config
	for _, d := range c.Destinations {
		if d.Enabled {
			out = append(out, d)
		}
	}
	return out
}
