package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/williamokano/odoo_backuper/pkg/storage"
)

// Backend replicates artifacts to a remote host over SFTP.
type Backend struct {
	name       string
	sshClient  *ssh.Client
	sftpClient *sftp.Client
	remotePath string
}

func init() {
	storage.RegisterBackend("ssh", func(ctx context.Context, cfg storage.Config) (storage.Backend, error) {
		return New(cfg)
	})
}

// New creates a new SSH/SFTP backend
func New(cfg storage.Config) (*Backend, error) {
	sshCfg, err := parseConfig(cfg.Options)
	if err != nil {
		return nil, err
	}

	hostKeyCallback, err := sshCfg.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            sshCfg.User,
		HostKeyCallback: hostKeyCallback,
		Timeout:         30 * time.Second,
	}

	// Add authentication methods
	if sshCfg.Password != "" {
		clientConfig.Auth = append(clientConfig.Auth, ssh.Password(sshCfg.Password))
	}

	if sshCfg.KeyPath != "" {
		key, err := os.ReadFile(sshCfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read SSH key: %w", err)
		}

		var signer ssh.Signer
		if sshCfg.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(sshCfg.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}

		if err != nil {
			return nil, fmt.Errorf("failed to parse SSH key: %w", err)
		}

		clientConfig.Auth = append(clientConfig.Auth, ssh.PublicKeys(signer))
	}

	// Set default port
	if sshCfg.Port == 0 {
		sshCfg.Port = 22
	}

	// Connect to SSH server
	addr := fmt.Sprintf("%s:%d", sshCfg.Host, sshCfg.Port)
	sshClient, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("connect (%s): %w: %w", cfg.Name, storage.ErrConnFailed, err)
	}

	// Create SFTP client
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, storage.WrapError(cfg.Name, "sftp init", err)
	}

	// Ensure remote directory exists
	if err := sftpClient.MkdirAll(sshCfg.RemotePath); err != nil {
		sftpClient.Close()
		sshClient.Close()
		return nil, storage.WrapError(cfg.Name, "mkdir", err)
	}

	return &Backend{
		name:       cfg.Name,
		sshClient:  sshClient,
		sftpClient: sftpClient,
		remotePath: sshCfg.RemotePath,
	}, nil
}

func (b *Backend) Name() string { return b.name }
func (b *Backend) Type() string { return "ssh" }

// Write uploads a file via SFTP
func (b *Backend) Write(ctx context.Context, sourcePath, destPath string) error {
	return storage.WithRetry(ctx, storage.DefaultRetryConfig(), func() error {
		localFile, err := os.Open(sourcePath)
		if err != nil {
			return err
		}
		defer localFile.Close()

		remotePath := path.Join(b.remotePath, destPath)

		remoteDir := path.Dir(remotePath)
		if err := b.sftpClient.MkdirAll(remoteDir); err != nil {
			return storage.WrapError(b.name, "mkdir", err)
		}

		// upload under a temporary name so List never sees a partial artifact
		tmpPath := remotePath + ".part"
		remoteFile, err := b.sftpClient.Create(tmpPath)
		if err != nil {
			return storage.WrapError(b.name, "create", err)
		}

		if _, err := io.Copy(remoteFile, localFile); err != nil {
			remoteFile.Close()
			_ = b.sftpClient.Remove(tmpPath)
			return storage.WrapError(b.name, "upload", err)
		}
		if err := remoteFile.Close(); err != nil {
			_ = b.sftpClient.Remove(tmpPath)
			return storage.WrapError(b.name, "upload", err)
		}

		if err := b.sftpClient.PosixRename(tmpPath, remotePath); err != nil {
			_ = b.sftpClient.Remove(tmpPath)
			return storage.WrapError(b.name, "rename", err)
		}

		return nil
	})
}

// Delete removes a file via SFTP
func (b *Backend) Delete(ctx context.Context, filePath string) error {
	remotePath := path.Join(b.remotePath, filePath)

	if err := b.sftpClient.Remove(remotePath); err != nil {
		if os.IsNotExist(err) {
			return storage.WrapError(b.name, "delete", storage.ErrNotFound)
		}
		return storage.WrapError(b.name, "delete", err)
	}

	return nil
}

// List returns files matching pattern. Only the pattern's final element
// may contain wildcards.
func (b *Backend) List(ctx context.Context, pattern string) ([]storage.FileInfo, error) {
	dir := path.Dir(pattern)
	entries, err := b.sftpClient.ReadDir(path.Join(b.remotePath, dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, storage.WrapError(b.name, "list", err)
	}

	var files []storage.FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		relPath := path.Join(dir, entry.Name())
		if !storage.MatchPattern(relPath, pattern) {
			continue
		}

		// zero-byte files are interrupted uploads
		if entry.Size() == 0 {
			continue
		}

		files = append(files, storage.FileInfo{
			Path:    relPath,
			Size:    entry.Size(),
			ModTime: entry.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

// Stat returns file metadata
func (b *Backend) Stat(ctx context.Context, filePath string) (*storage.FileInfo, error) {
	remotePath := path.Join(b.remotePath, filePath)

	info, err := b.sftpClient.Stat(remotePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, storage.WrapError(b.name, "stat", err)
	}

	return &storage.FileInfo{
		Path:    filePath,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Exists checks if file exists
func (b *Backend) Exists(ctx context.Context, filePath string) (bool, error) {
	_, err := b.Stat(ctx, filePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close releases resources
func (b *Backend) Close() error {
	if b.sftpClient != nil {
		b.sftpClient.Close()
	}
	if b.sshClient != nil {
		b.sshClient.Close()
	}
	return nil
}

func parseConfig(options map[string]interface{}) (*Config, error) {
	cfg := &Config{
		Port:           22,
		UseCompression: true,
	}

	if v, ok := options["host"].(string); ok {
		cfg.Host = v
	} else {
		return nil, fmt.Errorf("missing required option: host: %w", storage.ErrInvalidConfig)
	}
	if v, ok := options["user"].(string); ok {
		cfg.User = v
	} else {
		return nil, fmt.Errorf("missing required option: user: %w", storage.ErrInvalidConfig)
	}
	if v, ok := options["remote_path"].(string); ok {
		cfg.RemotePath = v
	} else {
		return nil, fmt.Errorf("missing required option: remote_path: %w", storage.ErrInvalidConfig)
	}
	if v, ok := options["password"].(string); ok {
		cfg.Password = v
	}
	if v, ok := options["key_path"].(string); ok {
		cfg.KeyPath = v
	}
	if v, ok := options["key_passphrase"].(string); ok {
		cfg.KeyPassphrase = v
	}
	if v, ok := options["port"].(float64); ok {
		cfg.Port = int(v)
	}
	if v, ok := options["use_compression"].(bool); ok {
		cfg.UseCompression = v
	}
	if v, ok := options["known_hosts"].(string); ok {
		cfg.KnownHosts = v
	}
	if cfg.Password == "" && cfg.KeyPath == "" {
		return nil, fmt.Errorf("one of password or key_path is required: %w", storage.ErrInvalidConfig)
	}

	return cfg, nil
}
