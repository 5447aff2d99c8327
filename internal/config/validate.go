package config

import (
	"cmp"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/thoreinstein/hostenv/internal/errors"
	"github.com/thoreinstein/hostenv/internal/logging"
	"github.com/thoreinstein/hostenv/internal/runtimeconfig"
	"github.com/thoreinstein/hostenv/internal/units"
)

// Validation errors for configuration fields.
var (
	// ErrVersionTooLow indicates the version field is below the minimum.
	ErrVersionTooLow = errors.New("version must be >= 1")

	// ErrInvalidURL indicates a site or home URL without scheme and host.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidSize indicates a size requirement that does not parse.
	ErrInvalidSize = errors.New("invalid size")

	// ErrInvalidValue covers every other out-of-range field.
	ErrInvalidValue = errors.New("invalid value")
)

// Validate checks a Config for validity.
// Returns nil if valid, or every field error found.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error
	add := func(field, value string, err error) {
		errs = append(errs, &FieldError{Field: field, Value: value, Err: err})
	}

	if cfg.Version < 1 {
		errs = append(errs, ErrVersionTooLow)
	}

	for field, raw := range map[string]string{KeySiteURL: cfg.SiteURL, KeyHomeURL: cfg.HomeURL} {
		if raw != "" && !validURL(raw) {
			add(field, raw, ErrInvalidURL)
		}
	}

	if cfg.Log.Format != "" {
		if _, ok := logging.ParseFormat(cfg.Log.Format); !ok {
			add(KeyLogFormat, cfg.Log.Format, ErrInvalidValue)
		}
	}

	for field, p := range map[string]string{
		KeyLogFile:     cfg.Log.File,
		KeyRuntimeProf: cfg.Runtime.Profile,
		KeyApacheCtl:   cfg.Server.ApacheCtl,
		KeyDiskPath:    cfg.System.DiskPath,
	} {
		if err := validatePath(p); err != nil {
			add(field, p, err)
		}
	}

	if cfg.Runtime.Timeout < 0 {
		add(KeyRuntimeTime, cfg.Runtime.Timeout.String(), ErrInvalidValue)
	}
	if cfg.System.LoadThreshold < 0 {
		add(KeyLoadThreshold, "", ErrInvalidValue)
	}

	if v := cfg.Requirements.RuntimeVersion; v != "" && !strings.ContainsAny(v, "0123456789") {
		add(KeyReqVersion, v, ErrInvalidValue)
	}
	if v := cfg.Runtime.Profile; v != "" {
		if ext := strings.ToLower(filepath.Ext(v)); !runtimeconfig.SupportedProfileExt(ext) {
			add(KeyRuntimeProf, v, errors.ErrUnsupportedFormat)
		}
	}

	for field, size := range map[string]string{KeyReqMemory: cfg.Requirements.Memory, KeyReqDisk: cfg.Requirements.DiskSpace} {
		if size == "" {
			continue
		}
		if _, err := units.ParseSize(size); err != nil {
			add(field, size, ErrInvalidSize)
		}
	}

	sortFieldErrors(errs)
	return errs
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// validatePath checks if a path string is well-formed.
// It does not check if the path exists, only that it's syntactically valid.
func validatePath(path string) error {
	// Empty paths are valid (they mean "use default")
	if path == "" {
		return nil
	}

	// Check for null bytes which are never valid in paths
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}

	// Clean the path and check it's not empty after cleaning
	cleaned := filepath.Clean(path)
	if cleaned == "" || cleaned == "." {
		return ErrInvalidPath
	}

	return nil
}

// sortFieldErrors orders field errors by key so output is stable across
// map iteration.
func sortFieldErrors(errs []error) {
	key := func(err error) string {
		var fe *FieldError
		if errors.As(err, &fe) {
			return fe.Field
		}
		return ""
	}
	slices.SortStableFunc(errs, func(a, b error) int {
		return cmp.Compare(key(a), key(b))
	})
}

// FieldError represents an error for a specific config key.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return e.Field + ": " + e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error() + ": " + e.Value
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
