// Package storage keeps a history of finished sweeps in a bbolt file.
package storage

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// openTimeout bounds the wait for the file lock held by another process.
const openTimeout = time.Second

// ExpandPath resolves a leading "~" to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
