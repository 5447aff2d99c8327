// Package runtimeconfig answers questions about a PHP interpreter's
// configuration: its version, loaded extensions, available functions and
// ini directives.
//
// The interpreter itself is described by a [Snapshot], captured live with
// [Probe] or loaded from a saved profile with [LoadProfile].
package runtimeconfig

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/thoreinstein/hostenv/internal/errors"
	"github.com/thoreinstein/hostenv/internal/units"
)

// Ini directive names read by Config.
const (
	IniMemoryLimit       = "memory_limit"
	IniDisableFunctions  = "disable_functions"
	IniMaxExecutionTime  = "max_execution_time"
	IniUploadMaxFilesize = "upload_max_filesize"
	IniPostMaxSize       = "post_max_size"
	IniMaxInputVars      = "max_input_vars"
)

// Config is a read-only view over a Snapshot.
type Config struct {
	snap      Snapshot
	conv      units.Converter
	logger    *slog.Logger
	exts      map[string]struct{}
	funcs     map[string]struct{}
	classes   map[string]struct{}
	disabled  map[string]struct{}
	extByName map[string]string
}

// Option configures a Config.
type Option func(*Config)

// WithConverter replaces the size-string converter used for byte-valued
// directives.
func WithConverter(c units.Converter) Option {
	return func(cfg *Config) {
		if c != nil {
			cfg.conv = c
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *Config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// New builds a Config from snap. A nil snap yields an empty interpreter
// with no version, extensions or functions.
func New(snap *Snapshot, opts ...Option) *Config {
	c := &Config{
		conv:   units.Default,
		logger: slog.Default(),
	}
	if snap != nil {
		c.snap = *snap
	}
	for _, opt := range opts {
		opt(c)
	}

	// Extension, function and class names are case-insensitive in PHP.
	c.exts = make(map[string]struct{}, len(c.snap.Extensions))
	for _, e := range c.snap.Extensions {
		c.exts[strings.ToLower(e)] = struct{}{}
	}
	c.extByName = make(map[string]string, len(c.snap.ExtensionVersions))
	for name, v := range c.snap.ExtensionVersions {
		c.extByName[strings.ToLower(name)] = v
	}
	c.funcs = make(map[string]struct{}, len(c.snap.Functions))
	for _, f := range c.snap.Functions {
		c.funcs[strings.ToLower(f)] = struct{}{}
	}
	c.classes = make(map[string]struct{}, len(c.snap.Classes))
	for _, cl := range c.snap.Classes {
		c.classes[normalizeClass(cl)] = struct{}{}
	}
	c.disabled = parseDisabled(c.snap.Ini[IniDisableFunctions])

	return c
}

// Snapshot returns a copy of the underlying snapshot.
func (c *Config) Snapshot() Snapshot {
	return c.snap
}

// Version returns the interpreter version string.
func (c *Config) Version() string {
	return c.snap.Version
}

// SAPI returns the server API name.
func (c *Config) SAPI() string {
	return c.snap.SAPI
}

// MeetsVersionRequirement reports whether the interpreter version is at
// least required.
func (c *Config) MeetsVersionRequirement(required string) bool {
	return CompareVersions(c.snap.Version, required) >= 0
}

// HasExtension reports whether the named extension is loaded.
func (c *Config) HasExtension(name string) bool {
	_, ok := c.exts[strings.ToLower(name)]
	return ok
}

// ExtensionVersion returns the version reported by a loaded extension.
func (c *Config) ExtensionVersion(name string) (string, bool) {
	if !c.HasExtension(name) {
		return "", false
	}
	v, ok := c.extByName[strings.ToLower(name)]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// MissingExtensions returns the entries of names that are not loaded, in
// input order. Duplicates are kept.
func (c *Config) MissingExtensions(names []string) []string {
	missing := make([]string, 0, len(names))
	for _, n := range names {
		if !c.HasExtension(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// HasFunction reports whether name exists and is not disabled.
func (c *Config) HasFunction(name string) bool {
	return c.FunctionAvailable(name, true)
}

// FunctionAvailable reports whether name exists. With checkDisabled, a name
// listed in disable_functions is reported as unavailable.
func (c *Config) FunctionAvailable(name string, checkDisabled bool) bool {
	key := strings.ToLower(strings.TrimSpace(name))
	if _, ok := c.funcs[key]; !ok {
		return false
	}
	if checkDisabled {
		if _, off := c.disabled[key]; off {
			c.logger.Debug("function disabled by ini", "function", name)
			return false
		}
	}
	return true
}

// DisabledFunctions returns the parsed disable_functions list.
func (c *Config) DisabledFunctions() []string {
	out := make([]string, 0, len(c.disabled))
	for _, f := range strings.Split(c.snap.Ini[IniDisableFunctions], ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// HasClass reports whether the named class is declared. A leading
// backslash is ignored.
func (c *Config) HasClass(name string) bool {
	_, ok := c.classes[normalizeClass(name)]
	return ok
}

// IniGet returns the raw value of an ini directive.
func (c *Config) IniGet(name string) (string, bool) {
	v, ok := c.snap.Ini[name]
	return v, ok
}

// MemoryUsage returns the interpreter's current memory usage in bytes.
func (c *Config) MemoryUsage() int64 {
	return c.snap.MemoryUsage
}

// MemoryLimit returns memory_limit in bytes. units.Unlimited means no limit;
// an unset directive is also reported as unlimited.
func (c *Config) MemoryLimit() (int64, error) {
	v, ok := c.snap.Ini[IniMemoryLimit]
	if !ok {
		return units.Unlimited, nil
	}
	return c.bytes(IniMemoryLimit, v)
}

// UploadMaxFilesize returns upload_max_filesize in bytes.
func (c *Config) UploadMaxFilesize() (int64, error) {
	return c.bytes(IniUploadMaxFilesize, c.snap.Ini[IniUploadMaxFilesize])
}

// PostMaxSize returns post_max_size in bytes.
func (c *Config) PostMaxSize() (int64, error) {
	return c.bytes(IniPostMaxSize, c.snap.Ini[IniPostMaxSize])
}

// MaxExecutionTime returns max_execution_time in seconds; 0 means no limit.
func (c *Config) MaxExecutionTime() int {
	return c.intValue(IniMaxExecutionTime)
}

// MaxInputVars returns max_input_vars, or 0 when unset.
func (c *Config) MaxInputVars() int {
	return c.intValue(IniMaxInputVars)
}

// HasSufficientMemory reports whether at least required (e.g. "64M") is
// still available below memory_limit. An unlimited limit always suffices; a
// limit of 0 leaves nothing available.
func (c *Config) HasSufficientMemory(required string) bool {
	limit, err := c.MemoryLimit()
	if err != nil {
		c.logger.Debug("unreadable memory_limit", "error", err)
		return false
	}
	if limit == units.Unlimited {
		return true
	}

	need, err := c.conv.ToBytes(required)
	if err != nil {
		c.logger.Debug("unreadable memory requirement", "required", required, "error", err)
		return false
	}
	return limit-c.snap.MemoryUsage >= need
}

func (c *Config) bytes(name, value string) (int64, error) {
	n, err := c.conv.ToBytes(value)
	if err != nil {
		return 0, errors.Wrapf(err, "ini %s", name)
	}
	return n, nil
}

func (c *Config) intValue(name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.snap.Ini[name]))
	if err != nil {
		return 0
	}
	return n
}

func parseDisabled(list string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.Split(list, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out[f] = struct{}{}
		}
	}
	return out
}

func normalizeClass(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), `\`))
}
