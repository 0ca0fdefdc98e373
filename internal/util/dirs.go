package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RedactdDir returns the path to the ~/.redactd directory.
func RedactdDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".redactd"), nil
}

// ExpandPath expands a leading "~/" (or "~\\") to the current user's home
// directory, so config values like "~/.redactd/models/pii" work as expected.
//
// It intentionally does not expand "~user/..." (which is shell-specific).
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}

	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	if strings.HasPrefix(path, "~\\") {
		return filepath.Join(home, path[2:])
	}

	return path
}

// EnsureDir ensures that a directory exists, creating it if necessary.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
