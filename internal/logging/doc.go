// Package logging provides structured logging for the hostenv CLI on top
// of [log/slog].
//
// Text output goes through [Handler], which colours levels on a terminal and
// masks attribute values that look like credentials. JSON output uses the
// standard library handler. [MultiHandler] fans records out to several
// handlers, which is how --log-file works.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//		Level:  logging.LevelFromVerbosity(verbosity),
//		Format: logging.FormatText,
//		Output: os.Stderr,
//	})
//	ctx = logging.NewContext(ctx, logger)
//
// Code further down the call chain retrieves it with [FromContext], which
// falls back to [slog.Default].
//
// # Testing
//
// [ForTest] routes log output through t.Log so it only shows up for failing
// tests or under -v.
package logging
