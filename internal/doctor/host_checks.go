package doctor

import (
	"fmt"

	"github.com/thoreinstein/hostenv/internal/environment"
	"github.com/thoreinstein/hostenv/internal/server"
	"github.com/thoreinstein/hostenv/internal/system"
	"github.com/thoreinstein/hostenv/internal/units"
)

// DiskSource reports filesystem usage.
type DiskSource interface {
	DiskSpace(path string) (*system.DiskSpace, bool)
	HasSufficientDiskSpace(required, path string) bool
}

// LoadSource reports the load average and judges it against a threshold.
type LoadSource interface {
	LoadAverage() (*system.LoadAverage, bool)
	IsHighLoad(threshold float64) bool
}

// RewriteSource reports the web server and its rewriting support.
type RewriteSource interface {
	Info() server.Info
	SupportsURLRewriting() bool
}

// EnvironmentSource reports the environment classification.
type EnvironmentSource interface {
	Info() environment.Info
}

// DiskSpaceCheck fails when less than Required is free at Path.
type DiskSpaceCheck struct {
	System   DiskSource
	Path     string
	Required string
}

var _ Check = (*DiskSpaceCheck)(nil)

// Name returns the unique identifier for this check.
func (c *DiskSpaceCheck) Name() string { return "disk-space" }

// Category returns the grouping for this check.
func (c *DiskSpaceCheck) Category() string { return "system" }

// Run reports usage and compares free space with the requirement.
func (c *DiskSpaceCheck) Run() *CheckResult {
	ds, ok := c.System.DiskSpace(c.Path)
	if !ok {
		r := newResult(c, SeverityWarning, "disk usage unavailable for "+c.Path)
		r.FixHint = "set system.disk_path to an existing directory"
		return r
	}

	details := map[string]any{
		"path":    c.Path,
		"total":   units.FormatUint(ds.Total),
		"free":    units.FormatUint(ds.Free),
		"used":    units.FormatUint(ds.Used),
		"percent": ds.Percent,
	}

	if c.Required != "" {
		details["required"] = c.Required
		if !c.System.HasSufficientDiskSpace(c.Required, c.Path) {
			r := newResult(c, SeverityError, fmt.Sprintf("only %s free on %s, %s required",
				units.FormatUint(ds.Free), c.Path, c.Required))
			r.Details = details
			r.FixHint = "free up disk space or move the site to a larger volume"
			return r
		}
	}

	r := newResult(c, SeverityPass, fmt.Sprintf("%s free on %s (%.2f%% used)", units.FormatUint(ds.Free), c.Path, ds.Percent))
	r.Details = details
	return r
}

// SystemLoadCheck warns when the 1-minute load exceeds Threshold.
type SystemLoadCheck struct {
	System    LoadSource
	Threshold float64
}

var _ Check = (*SystemLoadCheck)(nil)

// Name returns the unique identifier for this check.
func (c *SystemLoadCheck) Name() string { return "system-load" }

// Category returns the grouping for this check.
func (c *SystemLoadCheck) Category() string { return "system" }

// Run reports the load average.
func (c *SystemLoadCheck) Run() *CheckResult {
	la, ok := c.System.LoadAverage()
	if !ok {
		return newResult(c, SeverityInfo, "load average not supported on this system")
	}

	details := map[string]any{
		"load1":     la.Load1,
		"load5":     la.Load5,
		"load15":    la.Load15,
		"threshold": c.Threshold,
	}
	if c.System.IsHighLoad(c.Threshold) {
		r := newResult(c, SeverityWarning, fmt.Sprintf("1-minute load %.2f is above %.2f", la.Load1, c.Threshold))
		r.Details = details
		return r
	}
	r := newResult(c, SeverityPass, fmt.Sprintf("1-minute load %.2f", la.Load1))
	r.Details = details
	return r
}

// URLRewritingCheck warns when pretty permalinks cannot work.
type URLRewritingCheck struct {
	Server RewriteSource
}

var _ Check = (*URLRewritingCheck)(nil)

// Name returns the unique identifier for this check.
func (c *URLRewritingCheck) Name() string { return "url-rewriting" }

// Category returns the grouping for this check.
func (c *URLRewritingCheck) Category() string { return "server" }

// Run checks rewriting support for the detected server.
func (c *URLRewritingCheck) Run() *CheckResult {
	info := c.Server.Info()
	details := map[string]any{"type": string(info.Type), "software": info.Software}

	if info.Software == "" {
		r := newResult(c, SeverityInfo, "no server software advertised; set server.software to check rewriting")
		r.Details = details
		return r
	}
	if !c.Server.SupportsURLRewriting() {
		r := newResult(c, SeverityWarning, fmt.Sprintf("%s does not support URL rewriting", info.Type))
		r.Details = details
		if info.Type == server.TypeApache {
			r.FixHint = "enable mod_rewrite (a2enmod rewrite)"
		}
		return r
	}
	r := newResult(c, SeverityPass, fmt.Sprintf("%s supports URL rewriting", info.Type))
	r.Details = details
	return r
}

// EnvironmentCheck reports how the environment is classified. It never
// fails. Constants are listed with secrets masked.
type EnvironmentCheck struct {
	Env       EnvironmentSource
	Constants map[string]string
}

var _ Check = (*EnvironmentCheck)(nil)

// Name returns the unique identifier for this check.
func (c *EnvironmentCheck) Name() string { return "environment" }

// Category returns the grouping for this check.
func (c *EnvironmentCheck) Category() string { return "environment" }

// Run summarises the classification.
func (c *EnvironmentCheck) Run() *CheckResult {
	info := c.Env.Info()

	msg := string(info.Type) + " environment"
	if info.HostingPlatform != "" {
		msg += " on " + info.HostingPlatform
	}
	switch {
	case info.Docker:
		msg += " (docker)"
	case info.VirtualMachine:
		msg += " (virtual machine)"
	}

	details := map[string]any{
		"type":            string(info.Type),
		"site_host":       info.SiteHost,
		"docker":          info.Docker,
		"virtual_machine": info.VirtualMachine,
	}
	if info.HostingPlatform != "" {
		details["hosting_platform"] = info.HostingPlatform
	}
	if len(c.Constants) > 0 {
		details["constants"] = MaskSecrets(c.Constants)
	}

	r := newResult(c, SeverityInfo, msg)
	r.Details = details
	return r
}
