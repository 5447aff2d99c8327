package errors

import (
	"fmt"

	crdberrors "github.com/cockroachdb/errors"
)

// Exit codes for CLI applications.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitUser indicates a user-related error (invalid input, configuration, etc.).
	ExitUser = 1

	// ExitSystem indicates a system-related error (I/O, missing binaries, permissions, etc.).
	ExitSystem = 2
)

// Sentinel errors for common failure conditions.
var (
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = crdberrors.New("resource not found")

	// ErrInvalidConfig indicates configuration validation failed.
	ErrInvalidConfig = crdberrors.New("invalid configuration")

	// ErrUnsupportedFormat indicates a file extension hostenv cannot decode.
	ErrUnsupportedFormat = crdberrors.New("unsupported file format")

	// ErrInvalidSize indicates a human-readable size string could not be parsed.
	ErrInvalidSize = crdberrors.New("invalid size")
)

// New returns an error with the given message and a stack trace.
func New(msg string) error {
	return crdberrors.NewWithDepth(1, msg)
}

// Newf returns a formatted error with a stack trace.
func Newf(format string, args ...any) error {
	return crdberrors.NewWithDepthf(1, format, args...)
}

// Wrap annotates err with msg. Returns nil if err is nil.
func Wrap(err error, msg string) error {
	return crdberrors.WrapWithDepth(1, err, msg)
}

// Wrapf annotates err with a formatted message. Returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	return crdberrors.WrapWithDepthf(1, err, format, args...)
}

// WithHint attaches a user-facing hint to err.
func WithHint(err error, hint string) error {
	return crdberrors.WithHint(err, hint)
}

// FlattenHints returns all hints attached to err, joined by newlines.
func FlattenHints(err error) string {
	return crdberrors.FlattenHints(err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return crdberrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return crdberrors.As(err, target)
}

// Mark makes err match reference under Is without changing its message.
func Mark(err, reference error) error {
	return crdberrors.Mark(err, reference)
}

// Join combines errs into one error. Nil errors are dropped; Join returns
// nil when every err is nil.
func Join(errs ...error) error {
	return crdberrors.Join(errs...)
}

// ExitError carries the process exit code for a failed command, plus an
// optional suggestion shown under the message.
type ExitError struct {
	Err        error
	Code       int
	Suggestion string
}

// NewExitError returns an ExitError for err with code. A nil err gives a
// bare exit code that prints nothing.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// NewUserError reports bad input or configuration (ExitUser).
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{Err: err, Code: ExitUser, Suggestion: suggestion}
}

// NewSystemError reports a host failure such as a missing interpreter or an
// unreadable file (ExitSystem).
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{Err: err, Code: ExitSystem, Suggestion: suggestion}
}

// NewConfigError reports a config file that failed to load.
func NewConfigError(err error) *ExitError {
	return &ExitError{Err: err, Code: ExitUser, Suggestion: "Run: hostenv doctor"}
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		if e.Suggestion != "" {
			return e.Suggestion
		}
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Message returns the text to print for e and the hint beneath it. With no
// underlying error the suggestion becomes the message. Otherwise the hint
// is the suggestion or, failing that, the hints attached to Err. Both are
// empty for a bare exit code.
func (e *ExitError) Message() (msg, hint string) {
	if e.Err == nil {
		return e.Suggestion, ""
	}
	hint = e.Suggestion
	if hint == "" {
		hint = FlattenHints(e.Err)
	}
	return e.Err.Error(), hint
}

// AsExitError returns the ExitError in err's chain, wrapping err with
// ExitUser when there is none. It returns nil for a nil err.
func AsExitError(err error) *ExitError {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if As(err, &exitErr) {
		return exitErr
	}
	return NewExitError(err, ExitUser)
}
