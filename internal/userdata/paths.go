package userdata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/tilepad/tilepad-cli/internal/branding"
)

// PluginsDir is the directory under the host root that plugins load from.
const PluginsDir = "plugins"

// ErrHostNotFound is returned when the host application's data directory does
// not exist, which usually means the desktop app was never installed or run.
var ErrHostNotFound = errors.New("tilepad directory does not exist, do you have it installed?")

// GetDataDir returns the OS per-user data directory.
// It checks the TILEPAD_DATA_DIR environment variable first, then falls back
// to $XDG_DATA_HOME or ~/.local/share on Linux, ~/Library/Application Support
// on macOS and %APPDATA% on Windows.
func GetDataDir() (string, error) {
	if v := os.Getenv(branding.EnvVar("DATA_DIR")); v != "" {
		return v, nil
	}

	switch runtime.GOOS {
	case "windows":
		if v := os.Getenv("APPDATA"); v != "" {
			return v, nil
		}
		return "", errors.New("resolving app data directory: APPDATA is not set")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if v := os.Getenv("XDG_DATA_HOME"); v != "" && filepath.IsAbs(v) {
			return v, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}

// GetHostRoot returns the host application's directory inside the data dir,
// e.g. ~/.local/share/com.jacobtread.tilepad.desktop.
func GetHostRoot() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, branding.HostAppID()), nil
}

// RequireHostRoot returns the host root and fails with ErrHostNotFound when it
// is missing or not a directory.
func RequireHostRoot() (string, error) {
	root, err := GetHostRoot()
	if err != nil {
		return "", err
	}

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w (looked in %s)", ErrHostNotFound, root)
		}
		return "", fmt.Errorf("checking host directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w (%s is not a directory)", ErrHostNotFound, root)
	}
	return root, nil
}

// GetPluginsDir returns the path to the host's plugins/ directory.
func GetPluginsDir() (string, error) {
	root, err := GetHostRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, PluginsDir), nil
}

// GetPluginSlot returns the path a plugin with the given id is loaded from,
// e.g. <host-root>/plugins/com.example.demo.
func GetPluginSlot(pluginID string) (string, error) {
	dir, err := GetPluginsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, pluginID), nil
}
