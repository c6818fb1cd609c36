package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrNotFound is returned when no configured database matches a lookup.
var ErrNotFound = errors.New("database not found in configuration")

// ConfigError describes the first invalid entry found while loading.
type ConfigError struct {
	Index  int    // position in the configuration, 0-based; -1 when not tied to an entry
	Name   string // entry name, if it has one
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("configuration: %s", e.Reason)
	}
	label := fmt.Sprintf("database %d", e.Index)
	if e.Name != "" {
		label = fmt.Sprintf("database %d (%s)", e.Index, e.Name)
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", label, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", label, e.Field, e.Reason)
}

// Registry is the validated, ordered set of databases to back up.
type Registry struct {
	databases []DatabaseConfig
}

// Load validates raw entries and returns them as a Registry in input order.
// Validation stops at the first invalid entry.
func Load(raw []DatabaseConfig) (*Registry, error) {
	if len(raw) == 0 {
		return nil, &ConfigError{Index: -1, Reason: "no databases configured"}
	}

	names := make(map[string]int, len(raw))
	dbNames := make(map[string]int, len(raw))
	databases := make([]DatabaseConfig, 0, len(raw))

	for i, db := range raw {
		if err := validateDatabase(i, db); err != nil {
			return nil, err
		}
		if first, ok := names[db.Name]; ok {
			return nil, &ConfigError{
				Index: i, Name: db.Name, Field: "name",
				Reason: fmt.Sprintf("duplicates database %d", first),
			}
		}
		if first, ok := dbNames[db.DatabaseName]; ok {
			return nil, &ConfigError{
				Index: i, Name: db.Name, Field: "database_name",
				Reason: fmt.Sprintf("duplicates database %d", first),
			}
		}
		names[db.Name] = i
		dbNames[db.DatabaseName] = i
		databases = append(databases, db)
	}

	return &Registry{databases: databases}, nil
}

func validateDatabase(i int, db DatabaseConfig) error {
	required := []struct {
		field string
		value string
	}{
		{"name", db.Name},
		{"database_name", db.DatabaseName},
		{"url", db.URL},
		{"container_name", db.ContainerName},
		{"master_password", db.MasterPassword.Reveal()},
		{"backup_format", string(db.BackupFormat)},
		{"output_path", db.OutputPath},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ConfigError{Index: i, Name: db.Name, Field: r.field, Reason: "cannot be empty"}
		}
		// values end up in line-oriented curl config and shell environments
		if strings.ContainsFunc(r.value, unicode.IsControl) {
			return &ConfigError{Index: i, Name: db.Name, Field: r.field, Reason: "must not contain control characters"}
		}
	}

	if !db.BackupFormat.Valid() {
		return &ConfigError{
			Index: i, Name: db.Name, Field: "backup_format",
			Reason: fmt.Sprintf("must be 'zip' or 'dump', got %q", db.BackupFormat),
		}
	}

	// database_name becomes a directory and filename prefix on the host
	if strings.ContainsAny(db.DatabaseName, `/\`) || db.DatabaseName == "." || db.DatabaseName == ".." {
		return &ConfigError{Index: i, Name: db.Name, Field: "database_name", Reason: "must not contain path separators"}
	}

	if db.RetentionDays < 0 {
		return &ConfigError{Index: i, Name: db.Name, Field: "retention_days", Reason: "cannot be negative"}
	}

	return nil
}

// Databases returns a copy of the configured databases in configuration order.
func (r *Registry) Databases() []DatabaseConfig {
	out := make([]DatabaseConfig, len(r.databases))
	copy(out, r.databases)
	return out
}

// Len returns the number of configured databases.
func (r *Registry) Len() int {
	return len(r.databases)
}

// FindByName returns the database whose display name matches.
func (r *Registry) FindByName(name string) (DatabaseConfig, error) {
	for _, db := range r.databases {
		if db.Name == name {
			return db, nil
		}
	}
	return DatabaseConfig{}, fmt.Errorf("client %q: %w", name, ErrNotFound)
}

// FindByDatabaseName returns the database whose database_name matches.
func (r *Registry) FindByDatabaseName(dbName string) (DatabaseConfig, error) {
	for _, db := range r.databases {
		if db.DatabaseName == dbName {
			return db, nil
		}
	}
	return DatabaseConfig{}, fmt.Errorf("database %q: %w", dbName, ErrNotFound)
}
