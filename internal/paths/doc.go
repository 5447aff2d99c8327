// Package paths resolves where hostenv keeps its own files.
//
// The package wraps github.com/adrg/xdg for cross-platform XDG Base Directory
// Specification compliance. On Linux and macOS, paths follow XDG conventions
// (~/.config, ~/.cache):
//
//	paths.ConfigFile()         // ~/.config/hostenv/config.yaml
//	paths.DefaultProfilePath() // ~/.cache/hostenv/runtime.yaml
//
// Nothing here touches the filesystem except [EnsureDir].
package paths
