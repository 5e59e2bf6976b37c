// ABOUTME: Default on-disk locations for the study database
// ABOUTME: Follows XDG, honoring XDG_DATA_HOME overrides for tests
package storage

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	// AppDirName is the per-user application data directory name
	AppDirName = "kemmei"
	// DefaultDBName is the database file name inside the data directory
	DefaultDBName = "kemmei.db"
)

// DefaultDataDir returns ~/.local/share/kemmei (or the platform equivalent)
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, AppDirName)
}

// DefaultDBPath returns the default database file path
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), DefaultDBName)
}

// EnsureDir creates the parent directory of path
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}
