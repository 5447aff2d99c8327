package runtimeconfig

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/thoreinstein/hostenv/internal/errors"
	"github.com/thoreinstein/hostenv/pkg/fileutil"
)

// Snapshot is a point-in-time description of a PHP interpreter: its version,
// loaded extensions, defined symbols and ini directives.
type Snapshot struct {
	// Version is the interpreter version string (PHP_VERSION).
	Version string `json:"version" yaml:"version" toml:"version"`

	// SAPI is the server API name (cli, fpm-fcgi, apache2handler, ...).
	SAPI string `json:"sapi,omitempty" yaml:"sapi,omitempty" toml:"sapi,omitempty"`

	// Extensions lists loaded extension names.
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty" toml:"extensions,omitempty"`

	// ExtensionVersions maps extension names to their reported version.
	ExtensionVersions map[string]string `json:"extension_versions,omitempty" yaml:"extension_versions,omitempty" toml:"extension_versions,omitempty"`

	// Functions lists defined function names.
	Functions []string `json:"functions,omitempty" yaml:"functions,omitempty" toml:"functions,omitempty"`

	// Classes lists declared class names, namespaced with backslashes.
	Classes []string `json:"classes,omitempty" yaml:"classes,omitempty" toml:"classes,omitempty"`

	// Ini maps directive names to their current string value.
	Ini map[string]string `json:"ini,omitempty" yaml:"ini,omitempty" toml:"ini,omitempty"`

	// MemoryUsage is the interpreter's current memory usage in bytes.
	MemoryUsage int64 `json:"memory_usage,omitempty" yaml:"memory_usage,omitempty" toml:"memory_usage,omitempty"`
}

// LoadProfile reads a Snapshot from a YAML, JSON or TOML file, chosen by
// extension.
func LoadProfile(path string) (*Snapshot, error) {
	format, ok := fileutil.FormatOf(path)
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnsupportedFormat, "runtime profile extension %q", filepath.Ext(path))
	}

	data, err := fileutil.ReadFileLimit(path, fileutil.MaxDocumentSize)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(errors.ErrNotFound, "runtime profile %s", path)
		}
		return nil, errors.Wrap(err, "reading runtime profile")
	}

	var snap Snapshot
	if err := fileutil.Decode(format, data, &snap); err != nil {
		return nil, errors.Wrapf(err, "parsing %s runtime profile", format)
	}
	if strings.TrimSpace(snap.Version) == "" {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "runtime profile %s: version is required", path)
	}
	return &snap, nil
}

// SupportedProfileExt reports whether LoadProfile and SaveProfile handle
// the extension ext.
func SupportedProfileExt(ext string) bool {
	_, ok := fileutil.FormatOf("profile" + ext)
	return ok
}

// SaveProfile writes snap to path atomically, encoded by extension like
// LoadProfile. Profiles are written 0600 since ini dumps can carry
// credentials.
func SaveProfile(path string, snap *Snapshot) error {
	if snap == nil {
		return errors.New("snapshot is nil")
	}
	if err := fileutil.WriteDocument(path, snap, profilePerm); err != nil {
		return errors.Wrap(err, "writing runtime profile")
	}
	return nil
}

const profilePerm = 0o600
