// Package paths resolves configuration, database, and backup file
// locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Default file and directory names.
const (
	DefaultDBName    = "thoracic.db"
	DefaultLogName   = "thorax.log"
	DefaultBackupDir = "backups"
)

// Environment variable names for location overrides.
const (
	EnvConfigDir = "THORAX_CONFIG_DIR"
	EnvDBPath    = "THORAX_DB_PATH"
	EnvBackupDir = "THORAX_BACKUP_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/thorax (fallback ~/.config/thorax)
// macOS:   ~/Library/Application Support/thorax
// Windows: %APPDATA%/thorax
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "thorax"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "thorax"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "thorax"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > THORAX_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDBPath returns the database file path following the precedence
// chain: flag > config file value > THORAX_DB_PATH env > $(CWD)/thoracic.db.
//
// The CWD-relative default keeps the common single-directory workflow: the
// database sits next to wherever the program is run.
func ResolveDBPath(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDBPath); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDBName), nil
}

// ResolveBackupDir returns the backup directory following the precedence
// chain: flag > config file value > THORAX_BACKUP_DIR env > a backups
// directory next to the database file.
func ResolveBackupDir(flag, configValue, dbPath string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvBackupDir); env != "" {
		return filepath.Abs(env)
	}
	return filepath.Join(filepath.Dir(dbPath), DefaultBackupDir), nil
}
