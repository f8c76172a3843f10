package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the outlog home directory.
const HomeEnv = "OUTLOG_HOME"

// GetHome returns the outlog home directory
// Priority order:
//  1. OUTLOG_HOME environment variable (if set)
//  2. .outlog in the current working directory
//
// The directory is created if it doesn't exist
func GetHome() (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		home = filepath.Join(cwd, ".outlog")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create outlog home directory: %w", err)
	}
	return home, nil
}

// DefaultHistoryPath returns the history database location used when
// history is enabled without an explicit path.
// Always returns: $OUTLOG_HOME/history/lines.db
func DefaultHistoryPath() (string, error) {
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history", "lines.db"), nil
}

// ConfigPath returns the config file path inside dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, ".outlog", "config.yaml")
}
