// Package units converts between PHP-style human-readable sizes ("256M",
// "1G", "-1") and byte counts.
package units

import (
	"strconv"
	"strings"

	dockerunits "github.com/docker/go-units"
	"github.com/dustin/go-humanize"

	"github.com/thoreinstein/hostenv/internal/errors"
)

// Unlimited is the byte count reported for a size of "-1" or "unlimited".
const Unlimited int64 = -1

// Converter resolves a human-readable size string to a byte count.
type Converter interface {
	ToBytes(size string) (int64, error)
}

// ConverterFunc adapts a plain function to the Converter interface.
type ConverterFunc func(size string) (int64, error)

// ToBytes calls f(size).
func (f ConverterFunc) ToBytes(size string) (int64, error) {
	return f(size)
}

// Default is the ini-style converter: K, M, G, T and P suffixes are binary
// multiples, matching how PHP reads memory_limit and upload_max_filesize.
var Default Converter = ConverterFunc(ParseSize)

// ParseSize converts an ini-style size string to bytes.
//
// "-1" and "unlimited" (any case) return Unlimited. An empty string is zero.
// Any other negative value is rejected.
func ParseSize(size string) (int64, error) {
	s := strings.TrimSpace(size)
	if s == "" {
		return 0, nil
	}
	if s == "-1" || strings.EqualFold(s, "unlimited") {
		return Unlimited, nil
	}
	if strings.HasPrefix(s, "-") {
		return 0, errors.Wrapf(errors.ErrInvalidSize, "negative size %q", size)
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}

	n, err := dockerunits.RAMInBytes(s)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInvalidSize, "parsing %q", size)
	}
	return n, nil
}

// FormatBytes renders a byte count with IEC units ("256 MiB").
// Unlimited renders as "unlimited".
func FormatBytes(n int64) string {
	if n == Unlimited {
		return "unlimited"
	}
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

// FormatUint is FormatBytes for unsigned counts such as disk sizes.
func FormatUint(n uint64) string {
	return humanize.IBytes(n)
}
