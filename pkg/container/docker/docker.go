// Package docker implements container.Runtime on top of the Docker Engine API.
package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/natefinch/atomic"
	"github.com/rs/zerolog"

	"github.com/williamokano/odoo_backuper/pkg/container"
)

// Runtime implements container.Runtime and container.Lister using the Docker API.
type Runtime struct {
	client *client.Client
	logger zerolog.Logger
}

var (
	_ container.Runtime = (*Runtime)(nil)
	_ container.Lister  = (*Runtime)(nil)
)

// NewRuntime creates a runtime from the standard DOCKER_* environment.
func NewRuntime(logger zerolog.Logger) (*Runtime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return NewRuntimeWithClient(cli, logger), nil
}

// NewRuntimeWithClient creates a runtime around an existing client (for testing).
func NewRuntimeWithClient(cli *client.Client, logger zerolog.Logger) *Runtime {
	return &Runtime{
		client: cli,
		logger: logger.With().Str("adapter", "docker").Logger(),
	}
}

// Close releases the underlying client.
func (r *Runtime) Close() error {
	return r.client.Close()
}

// IsRunning checks if a container is running.
func (r *Runtime) IsRunning(ctx context.Context, containerName string) (bool, error) {
	resp, err := r.client.ContainerInspect(ctx, containerName)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			r.logger.Debug().Str("container", containerName).Msg("container does not exist")
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect container %s: %w", containerName, err)
	}

	return resp.ContainerJSONBase != nil && resp.State != nil && resp.State.Running, nil
}

// Exec runs a command in the container and collects its output.
func (r *Runtime) Exec(ctx context.Context, containerName string, cmd []string, env []string) (*container.ExecResult, error) {
	if len(cmd) == 0 {
		return nil, errors.New("exec: empty command")
	}

	// env may carry credentials and is never logged
	r.logger.Debug().
		Str("container", containerName).
		Str("command", cmd[0]).
		Msg("exec in container")

	created, err := r.client.ContainerExecCreate(ctx, containerName, containertypes.ExecOptions{
		Cmd:          cmd,
		Env:          env,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exec in %s: %w", containerName, err)
	}

	attach, err := r.client.ContainerExecAttach(ctx, created.ID, containertypes.ExecAttachOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec in %s: %w", containerName, err)
	}
	defer attach.Close()

	type output struct {
		stdout, stderr []byte
		err            error
	}
	done := make(chan output, 1)
	go func() {
		stdout, stderr, err := parseExecOutput(attach.Reader)
		done <- output{stdout, stderr, err}
	}()

	var out output
	select {
	case out = <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if out.err != nil {
		return nil, fmt.Errorf("failed to read exec output from %s: %w", containerName, out.err)
	}

	inspect, err := r.client.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect exec in %s: %w", containerName, err)
	}

	return &container.ExecResult{
		ExitCode: inspect.ExitCode,
		Stdout:   out.stdout,
		Stderr:   out.stderr,
	}, nil
}

// parseExecOutput splits Docker's multiplexed exec stream.
func parseExecOutput(r io.Reader) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, r); err != nil {
		return nil, nil, err
	}
	return stdout.Bytes(), stderr.Bytes(), nil
}

// CopyFromContainer streams a single regular file out of the container.
func (r *Runtime) CopyFromContainer(ctx context.Context, containerName, containerPath, hostPath string) error {
	stream, _, err := r.client.CopyFromContainer(ctx, containerName, containerPath)
	if err != nil {
		return fmt.Errorf("failed to copy %s from %s: %w", containerPath, containerName, err)
	}
	defer stream.Close()

	if err := extractSingleFile(stream, path.Base(containerPath), hostPath); err != nil {
		return fmt.Errorf("failed to copy %s from %s: %w", containerPath, containerName, err)
	}

	r.logger.Debug().
		Str("container", containerName).
		Str("source", containerPath).
		Str("destination", hostPath).
		Msg("copied file from container")

	return nil
}

// extractSingleFile writes the tar entry named name to hostPath.
func extractSingleFile(archive io.Reader, name, hostPath string) error {
	tr := tar.NewReader(archive)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return fmt.Errorf("%s not found in archive", name)
		}
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}

		if path.Clean(hdr.Name) != name {
			continue
		}
		if hdr.Typeflag != tar.TypeReg {
			return fmt.Errorf("%s is not a regular file", name)
		}

		return atomic.WriteFile(hostPath, io.LimitReader(tr, hdr.Size))
	}
}

// RemoveInContainer deletes a file inside the container.
func (r *Runtime) RemoveInContainer(ctx context.Context, containerName, filePath string) error {
	result, err := r.Exec(ctx, containerName, []string{"rm", "-f", "--", filePath}, nil)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("rm %s exited with code %d: %s", filePath, result.ExitCode, strings.TrimSpace(string(result.Stderr)))
	}
	return nil
}

// ListRunning returns the names of all running containers.
func (r *Runtime) ListRunning(ctx context.Context) ([]string, error) {
	containers, err := r.client.ContainerList(ctx, containertypes.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	var names []string
	for _, c := range containers {
		if len(c.Names) == 0 {
			continue
		}
		names = append(names, strings.TrimPrefix(c.Names[0], "/"))
	}
	return names, nil
}
