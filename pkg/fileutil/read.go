package fileutil

import (
	"io"
	"os"

	"github.com/thoreinstein/hostenv/internal/errors"
)

// MaxDocumentSize caps how much of a config file or runtime profile is read.
// A full get_defined_functions dump stays well under it.
const MaxDocumentSize = 4 << 20

// ErrFileTooLarge is returned when a file exceeds the read limit.
var ErrFileTooLarge = errors.New("file exceeds read limit")

// ReadFileLimit reads path, failing with ErrFileTooLarge when it holds more
// than limit bytes.
func ReadFileLimit(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "%s is %d bytes, limit %d", path, info.Size(), limit)
	}

	// one extra byte detects files that grew after Stat
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}
	if int64(len(data)) > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "%s exceeds limit %d", path, limit)
	}
	return data, nil
}
