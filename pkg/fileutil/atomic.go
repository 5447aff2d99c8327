// Package fileutil reads and writes the small structured documents hostenv
// keeps on disk: configuration files and captured runtime profiles.
package fileutil

import (
	"os"
	"path/filepath"

	"github.com/thoreinstein/hostenv/internal/errors"
)

// AtomicWriteFile replaces path with data via a sibling temp file and a
// rename, so readers never observe a partial write. The parent directory
// must exist.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".hostenv-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}
	// chmod before the rename so the final path never has looser bits
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return errors.Wrap(err, "setting file permissions")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "syncing temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "replacing %s", path)
	}
	renamed = true
	return nil
}
