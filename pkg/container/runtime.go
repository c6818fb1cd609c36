// Package container defines the operations the backup pipeline needs from
// the container engine hosting the Odoo instances.
package container

import (
	"context"
)

// Runtime is the container engine as seen by the backup executor.
type Runtime interface {
	// IsRunning reports whether the named container is running. An unknown
	// container is not running and is not an error.
	IsRunning(ctx context.Context, containerName string) (bool, error)

	// Exec runs cmd inside the container with extra environment variables
	// (KEY=value) and waits for it to finish.
	Exec(ctx context.Context, containerName string, cmd []string, env []string) (*ExecResult, error)

	// CopyFromContainer copies a single file out of the container. hostPath
	// is written atomically: it either holds the complete file or does not
	// exist.
	CopyFromContainer(ctx context.Context, containerName, containerPath, hostPath string) error

	// RemoveInContainer deletes a file inside the container. A missing file
	// is not an error.
	RemoveInContainer(ctx context.Context, containerName, path string) error
}

// Lister is implemented by runtimes that can enumerate running containers.
type Lister interface {
	ListRunning(ctx context.Context) ([]string, error)
}

// ExecResult holds the result of executing a command in a container.
type ExecResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}
