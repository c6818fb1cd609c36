package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"

	"github.com/williamokano/odoo_backuper/pkg/storage"
)

// Backend mirrors artifacts into a directory on the host, typically a
// mounted NAS share.
type Backend struct {
	name     string
	basePath string
}

func init() {
	storage.RegisterBackend("local", func(ctx context.Context, cfg storage.Config) (storage.Backend, error) {
		return New(cfg)
	})
}

// New creates a new local filesystem backend
func New(cfg storage.Config) (*Backend, error) {
	path, _ := cfg.Options["path"].(string)
	if path == "" {
		path = cfg.BaseDir
	}
	if path == "" {
		return nil, fmt.Errorf("destination %s: missing required option: path: %w", cfg.Name, storage.ErrInvalidConfig)
	}

	if err := os.MkdirAll(path, 0750); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Backend{
		name:     cfg.Name,
		basePath: path,
	}, nil
}

func (b *Backend) Name() string { return b.name }
func (b *Backend) Type() string { return "local" }

func (b *Backend) fullPath(p string) string {
	return filepath.Join(b.basePath, filepath.FromSlash(p))
}

// Write copies a file into the mirror. The destination appears atomically.
func (b *Backend) Write(ctx context.Context, sourcePath, destPath string) error {
	destFullPath := b.fullPath(destPath)

	if err := os.MkdirAll(filepath.Dir(destFullPath), 0750); err != nil {
		return storage.WrapError(b.name, "write", err)
	}

	source, err := os.Open(sourcePath)
	if err != nil {
		return storage.WrapError(b.name, "write", err)
	}
	defer source.Close()

	if err := atomic.WriteFile(destFullPath, source); err != nil {
		return storage.WrapError(b.name, "write", err)
	}

	return nil
}

// Delete removes a file from the mirror
func (b *Backend) Delete(ctx context.Context, path string) error {
	if err := os.Remove(b.fullPath(path)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.WrapError(b.name, "delete", storage.ErrNotFound)
		}
		return storage.WrapError(b.name, "delete", err)
	}
	return nil
}

// List returns files matching the pattern
func (b *Backend) List(ctx context.Context, pattern string) ([]storage.FileInfo, error) {
	matches, err := filepath.Glob(b.fullPath(pattern))
	if err != nil {
		return nil, storage.WrapError(b.name, "list", err)
	}

	var files []storage.FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		// zero-byte files are interrupted writes
		if info.Size() == 0 {
			continue
		}

		relPath, err := filepath.Rel(b.basePath, match)
		if err != nil {
			relPath = filepath.Base(match)
		}

		files = append(files, storage.FileInfo{
			Path:    filepath.ToSlash(relPath),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

// Stat returns metadata about a file
func (b *Backend) Stat(ctx context.Context, path string) (*storage.FileInfo, error) {
	info, err := os.Stat(b.fullPath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, storage.WrapError(b.name, "stat", err)
	}

	return &storage.FileInfo{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Exists checks if a file exists
func (b *Backend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := b.Stat(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close is a no-op for local backend
func (b *Backend) Close() error {
	return nil
}
