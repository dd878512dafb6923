package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Home returns the root directory for codenote state.
// Priority: $CODENOTE_HOME -> $XDG_CACHE_HOME/codenote -> ~/.cache/codenote (Unix) / %LOCALAPPDATA%\codenote (Windows)
func Home() (string, error) {
	if home := os.Getenv("CODENOTE_HOME"); home != "" {
		return home, nil
	}

	if runtime.GOOS != "windows" {
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "codenote"), nil
		}
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(userHome, "AppData", "Local", "codenote"), nil
	default:
		return filepath.Join(userHome, ".cache", "codenote"), nil
	}
}

// DefaultPath returns the location of the settings database.
func DefaultPath() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "settings.db"), nil
}

// EnsureHome creates the home and bin directories if they don't exist.
func EnsureHome() error {
	home, err := Home()
	if err != nil {
		return err
	}
	for _, dir := range []string{home, filepath.Join(home, "bin")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
