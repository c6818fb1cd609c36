package ssh

import (
	"fmt"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Config holds the options of an ssh destination
type Config struct {
	Host           string `json:"host"`
	Port           int    `json:"port"` // default 22
	User           string `json:"user"`
	Password       string `json:"password"`        // optional
	KeyPath        string `json:"key_path"`        // optional, path to a private key
	KeyPassphrase  string `json:"key_passphrase"`  // optional
	RemotePath     string `json:"remote_path"`     // base directory on the remote host
	UseCompression bool   `json:"use_compression"` // default true
	KnownHosts     string `json:"known_hosts"`     // optional known_hosts file; host keys are not verified without it
}

func (c *Config) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if c.KnownHosts == "" {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	cb, err := knownhosts.New(c.KnownHosts)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts %s: %w", c.KnownHosts, err)
	}
	return cb, nil
}
