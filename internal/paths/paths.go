package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/thoreinstein/hostenv/internal/errors"
)

// AppName names hostenv's directories under the XDG roots.
const AppName = "hostenv"

// File names inside the hostenv directories.
const (
	ConfigFileName  = "config.yaml"
	ProfileFileName = "runtime.yaml"
)

// ErrHomeDirNotFound indicates the user's home directory could not be
// determined.
var ErrHomeDirNotFound = errors.New("home directory not found")

// DefaultDirPerm is the default permission for newly created directories (private).
const DefaultDirPerm = 0o700

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm (0700) is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// Home returns the user's home directory, or "" when it cannot be
// determined. Use ResolveHome for the error.
func Home() string {
	h, _ := ResolveHome()
	return h
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func ConfigHome() string {
	return xdg.ConfigHome
}

// CacheHome returns the XDG cache home directory.
// On Linux: ~/.cache
// On macOS: ~/Library/Caches
// On Windows: %LOCALAPPDATA%\cache
func CacheHome() string {
	return xdg.CacheHome
}

// ConfigDir returns <ConfigHome>/hostenv.
func ConfigDir() string {
	return filepath.Join(ConfigHome(), AppName)
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// CacheDir returns <CacheHome>/hostenv.
func CacheDir() string {
	return filepath.Join(CacheHome(), AppName)
}

// DefaultProfilePath is where "hostenv runtime capture" writes the probed
// interpreter snapshot unless runtime.profile says otherwise.
func DefaultProfilePath() string {
	return filepath.Join(CacheDir(), ProfileFileName)
}
