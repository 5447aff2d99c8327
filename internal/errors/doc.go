// Package errors provides error handling conventions for the hostenv CLI.
//
// It re-exports the constructors and inspectors of
// github.com/cockroachdb/errors so that every package wraps errors with a
// stack trace and a consistent message style, defines sentinel errors for
// common failure conditions, and provides an ExitError type for CLI exit code
// handling.
//
// # Sentinel Errors
//
// Sentinel errors allow callers to check for specific error conditions
// using [Is]:
//
//	if errors.Is(err, errors.ErrUnsupportedFormat) {
//	    // handle unknown profile extension
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (invalid input, configuration, etc.)
//   - ExitSystem (2): System-related error (I/O, missing binaries, etc.)
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and optional
// suggestion. [AsExitError] finds it in a chain, treating any other error
// as ExitUser:
//
//	err := errors.NewSystemError(errors.ErrNotFound, "set runtime.binary")
//	os.Exit(errors.AsExitError(err).Code)
package errors
