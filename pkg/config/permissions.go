package config

import (
	"fmt"
	"os"
)

// CheckPermissions reports an error when the config file, which holds
// master passwords, is readable or writable by group or others.
// Callers treat the result as a warning.
func CheckPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	mode := info.Mode().Perm()
	if mode&0077 != 0 {
		return fmt.Errorf("config file %s has permissions %o, expected 0600 (it contains master passwords)", path, mode)
	}

	return nil
}
