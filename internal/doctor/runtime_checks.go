package doctor

import (
	"fmt"
	"strings"

	"github.com/thoreinstein/hostenv/internal/errors"
	"github.com/thoreinstein/hostenv/internal/units"
)

// VersionSource reports the interpreter version.
type VersionSource interface {
	Version() string
	MeetsVersionRequirement(required string) bool
}

// ExtensionSource reports loaded extensions.
type ExtensionSource interface {
	MissingExtensions(required []string) []string
}

// FunctionSource reports function availability.
type FunctionSource interface {
	FunctionAvailable(name string, checkDisabled bool) bool
}

// MemorySource reports the interpreter memory budget.
type MemorySource interface {
	MemoryLimit() (int64, error)
	MemoryUsage() int64
	HasSufficientMemory(required string) bool
}

// RuntimeSourceCheck reports where the interpreter snapshot came from, or
// why there is none. Without a snapshot the other runtime checks cannot run.
type RuntimeSourceCheck struct {
	Source string
	Err    error
}

var _ Check = (*RuntimeSourceCheck)(nil)

// Name returns the unique identifier for this check.
func (c *RuntimeSourceCheck) Name() string { return "runtime-source" }

// Category returns the grouping for this check.
func (c *RuntimeSourceCheck) Category() string { return "runtime" }

// Run reports the snapshot source.
func (c *RuntimeSourceCheck) Run() *CheckResult {
	if c.Err != nil {
		r := newResult(c, SeverityWarning, "no PHP interpreter snapshot; runtime checks skipped: "+c.Err.Error())
		r.FixHint = errors.FlattenHints(c.Err)
		if r.FixHint == "" {
			r.FixHint = "set runtime.binary or run 'hostenv runtime capture'"
		}
		return r
	}
	r := newResult(c, SeverityPass, "using "+c.Source)
	r.Details = map[string]any{"source": c.Source}
	return r
}

// RuntimeVersionCheck fails when the interpreter is older than required.
type RuntimeVersionCheck struct {
	Runtime  VersionSource
	Required string
}

var _ Check = (*RuntimeVersionCheck)(nil)

// Name returns the unique identifier for this check.
func (c *RuntimeVersionCheck) Name() string { return "runtime-version" }

// Category returns the grouping for this check.
func (c *RuntimeVersionCheck) Category() string { return "runtime" }

// Run compares the interpreter version against the requirement.
func (c *RuntimeVersionCheck) Run() *CheckResult {
	current := c.Runtime.Version()
	if c.Required == "" {
		r := newResult(c, SeverityInfo, "no version requirement configured; running "+current)
		r.Details = map[string]any{"version": current}
		return r
	}

	details := map[string]any{"version": current, "required": c.Required}
	if !c.Runtime.MeetsVersionRequirement(c.Required) {
		r := newResult(c, SeverityError, fmt.Sprintf("PHP %s is older than the required %s", current, c.Required))
		r.Details = details
		r.FixHint = "upgrade PHP to " + c.Required + " or later"
		return r
	}
	r := newResult(c, SeverityPass, fmt.Sprintf("PHP %s satisfies %s", current, c.Required))
	r.Details = details
	return r
}

// RuntimeExtensionsCheck fails when a required extension is not loaded.
type RuntimeExtensionsCheck struct {
	Runtime  ExtensionSource
	Required []string
}

var _ Check = (*RuntimeExtensionsCheck)(nil)

// Name returns the unique identifier for this check.
func (c *RuntimeExtensionsCheck) Name() string { return "runtime-extensions" }

// Category returns the grouping for this check.
func (c *RuntimeExtensionsCheck) Category() string { return "runtime" }

// Run lists the missing extensions.
func (c *RuntimeExtensionsCheck) Run() *CheckResult {
	if len(c.Required) == 0 {
		return newResult(c, SeverityPass, "no extensions required")
	}

	missing := c.Runtime.MissingExtensions(c.Required)
	if len(missing) > 0 {
		r := newResult(c, SeverityError, fmt.Sprintf("%d of %d required extension(s) missing: %s",
			len(missing), len(c.Required), strings.Join(missing, ", ")))
		r.Details = map[string]any{"required": c.Required, "missing": missing}
		r.FixHint = "install or enable the missing PHP extensions"
		return r
	}
	r := newResult(c, SeverityPass, fmt.Sprintf("all %d required extension(s) loaded", len(c.Required)))
	r.Details = map[string]any{"required": c.Required}
	return r
}

// RuntimeFunctionsCheck warns when required functions are undefined or
// disabled through disable_functions.
type RuntimeFunctionsCheck struct {
	Runtime  FunctionSource
	Required []string
}

var _ Check = (*RuntimeFunctionsCheck)(nil)

// Name returns the unique identifier for this check.
func (c *RuntimeFunctionsCheck) Name() string { return "runtime-functions" }

// Category returns the grouping for this check.
func (c *RuntimeFunctionsCheck) Category() string { return "runtime" }

// Run classifies each required function as available, disabled or
// undefined.
func (c *RuntimeFunctionsCheck) Run() *CheckResult {
	if len(c.Required) == 0 {
		return newResult(c, SeverityPass, "no functions required")
	}

	var undefined, disabled []string
	for _, fn := range c.Required {
		switch {
		case c.Runtime.FunctionAvailable(fn, true):
		case c.Runtime.FunctionAvailable(fn, false):
			disabled = append(disabled, fn)
		default:
			undefined = append(undefined, fn)
		}
	}

	if len(undefined)+len(disabled) == 0 {
		return newResult(c, SeverityPass, fmt.Sprintf("all %d required function(s) available", len(c.Required)))
	}

	details := map[string]any{"required": c.Required}
	var parts []string
	if len(disabled) > 0 {
		details["disabled"] = disabled
		parts = append(parts, "disabled: "+strings.Join(disabled, ", "))
	}
	if len(undefined) > 0 {
		details["undefined"] = undefined
		parts = append(parts, "undefined: "+strings.Join(undefined, ", "))
	}
	r := newResult(c, SeverityWarning, "required functions unavailable ("+strings.Join(parts, "; ")+")")
	r.Details = details
	if len(disabled) > 0 {
		r.FixHint = "remove the functions from disable_functions in php.ini"
	}
	return r
}

// RuntimeMemoryCheck warns when memory_limit leaves less than the required
// headroom.
type RuntimeMemoryCheck struct {
	Runtime  MemorySource
	Required string
}

var _ Check = (*RuntimeMemoryCheck)(nil)

// Name returns the unique identifier for this check.
func (c *RuntimeMemoryCheck) Name() string { return "runtime-memory" }

// Category returns the grouping for this check.
func (c *RuntimeMemoryCheck) Category() string { return "runtime" }

// Run compares available memory to the requirement.
func (c *RuntimeMemoryCheck) Run() *CheckResult {
	details := map[string]any{"usage": units.FormatBytes(c.Runtime.MemoryUsage())}

	limit, err := c.Runtime.MemoryLimit()
	if err != nil {
		r := newResult(c, SeverityWarning, "memory_limit could not be parsed")
		r.Details = details
		r.FixHint = "set memory_limit to a size such as 256M"
		return r
	}
	details["limit"] = units.FormatBytes(limit)

	if c.Required == "" {
		r := newResult(c, SeverityInfo, "memory_limit is "+units.FormatBytes(limit))
		r.Details = details
		return r
	}
	details["required"] = c.Required

	if !c.Runtime.HasSufficientMemory(c.Required) {
		r := newResult(c, SeverityWarning, fmt.Sprintf("less than %s of memory available under memory_limit %s",
			c.Required, units.FormatBytes(limit)))
		r.Details = details
		r.FixHint = "raise memory_limit in php.ini"
		return r
	}
	r := newResult(c, SeverityPass, fmt.Sprintf("at least %s of memory available", c.Required))
	r.Details = details
	return r
}
