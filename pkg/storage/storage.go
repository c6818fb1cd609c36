package storage

import (
	"context"
	"path"
	"strings"
	"time"
)

// Backend is a replication destination for backup artifacts
type Backend interface {
	// Name returns the destination name from the configuration (e.g. "offsite_s3")
	Name() string

	// Type returns the backend type (local, s3, backblaze, ssh)
	Type() string

	// Write uploads a local file to the backend.
	// destPath is slash-separated and relative to the backend root,
	// e.g. "acme/acme_20240102030405.zip".
	Write(ctx context.Context, sourcePath string, destPath string) error

	// Delete removes a file from the backend
	Delete(ctx context.Context, path string) error

	// List returns the files matching a slash-separated glob such as
	// "acme/acme_*", newest first
	List(ctx context.Context, pattern string) ([]FileInfo, error)

	// Stat returns metadata about a specific file, or ErrNotFound
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// Exists checks if a file exists in the backend
	Exists(ctx context.Context, path string) (bool, error)

	// Close releases connections and sessions
	Close() error
}

// FileInfo represents metadata about a stored file
type FileInfo struct {
	Path    string    // relative to the backend root
	Size    int64     // bytes
	ModTime time.Time // last modification or upload time
}

// Config represents a destination entry in the configuration file
type Config struct {
	Name    string                 `json:"name"`     // unique destination name (e.g. "nas_mirror")
	Type    string                 `json:"type"`     // local, s3, backblaze, ssh
	Enabled bool                   `json:"enabled"`  // disabled destinations are ignored
	BaseDir string                 `json:"base_dir"` // fallback root for the local backend
	Options map[string]interface{} `json:"options"`  // backend-specific options
}

// Result represents the outcome of replicating one artifact to one backend
type Result struct {
	BackendName string
	BackendType string
	Success     bool
	Error       error
	Duration    time.Duration
}

// MatchPattern reports whether a slash-separated relative path matches a
// List pattern. Malformed patterns match nothing.
func MatchPattern(p, pattern string) bool {
	ok, err := path.Match(pattern, p)
	return err == nil && ok
}

// PatternPrefix returns the literal part of a pattern before its first
// wildcard, suitable as a listing prefix for object stores.
func PatternPrefix(pattern string) string {
	if idx := strings.IndexAny(pattern, "*?["); idx >= 0 {
		return pattern[:idx]
	}
	return pattern
}
