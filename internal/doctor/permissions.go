package doctor

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Path kinds checked by PathPermissionCheck.
const (
	KindFile      = "file"
	KindDirectory = "directory"
)

// maxFilePerm is the loosest acceptable mode for a readable config file.
const maxFilePerm os.FileMode = 0o644

// maxSensitiveFilePerm is the loosest acceptable mode for a file that may
// hold credentials, such as a config with database constants.
const maxSensitiveFilePerm os.FileMode = 0o600

// PathTarget is one path inspected by PathPermissionCheck.
type PathTarget struct {
	// Path is the file or directory.
	Path string
	// Label says what the path is for ("config", "profile", ...).
	Label string
	// Kind is KindFile or KindDirectory.
	Kind string
	// Sensitive marks files that may contain credentials. They must not be
	// readable by group or others.
	Sensitive bool
}

// PathPermissionCheck validates that hostenv's config and runtime profile
// paths exist with sane permissions. Missing paths are not an issue.
type PathPermissionCheck struct {
	PermissionFixer
	targets []PathTarget
	goos    string
}

var (
	_ Check = (*PathPermissionCheck)(nil)
	_ Fixer = (*PathPermissionCheck)(nil)
)

// NewPathPermissionCheck creates a check over the given targets.
func NewPathPermissionCheck(targets ...PathTarget) *PathPermissionCheck {
	return &PathPermissionCheck{targets: targets, goos: runtime.GOOS}
}

// Name returns the unique identifier for this check.
func (c *PathPermissionCheck) Name() string {
	return "path-permissions"
}

// Category returns the grouping for this check.
func (c *PathPermissionCheck) Category() string {
	return "filesystem"
}

// Run inspects every target and records fixable issues for Fix.
func (c *PathPermissionCheck) Run() *CheckResult {
	var issues []pathIssue
	checked := 0

	for _, t := range c.targets {
		if t.Path == "" {
			continue
		}
		checked++
		switch t.Kind {
		case KindDirectory:
			issues = append(issues, c.checkDirectory(t)...)
		default:
			issues = append(issues, c.checkFile(t)...)
		}
	}

	c.setIssues(issues)
	return c.buildResult(issues, checked)
}

// pathIssue represents a single path or permission problem.
type pathIssue struct {
	Path        string
	Label       string
	Type        string
	Problem     string
	Severity    Severity
	Permissions string
	Want        os.FileMode
	Fixable     bool
	FixHint     string
}

func (c *PathPermissionCheck) checkFile(t PathTarget) []pathIssue {
	info, err := os.Stat(t.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return []pathIssue{{
			Path:     t.Path,
			Label:    t.Label,
			Type:     KindFile,
			Problem:  fmt.Sprintf("cannot stat file: %v", err),
			Severity: SeverityError,
		}}
	}
	if info.IsDir() {
		return []pathIssue{{
			Path:     t.Path,
			Label:    t.Label,
			Type:     KindFile,
			Problem:  "expected file but found directory",
			Severity: SeverityError,
		}}
	}

	f, err := os.Open(t.Path)
	if err != nil {
		return []pathIssue{{
			Path:        t.Path,
			Label:       t.Label,
			Type:        KindFile,
			Problem:     "file is not readable",
			Severity:    SeverityError,
			Permissions: formatPermissions(info.Mode()),
			FixHint:     "chmod u+r " + t.Path,
		}}
	}
	f.Close()

	if c.goos == "windows" {
		return nil
	}
	return checkFilePermissions(t, info.Mode())
}

func checkFilePermissions(t PathTarget, mode os.FileMode) []pathIssue {
	var issues []pathIssue
	perm := mode.Perm()

	limit := maxFilePerm
	if t.Sensitive {
		limit = maxSensitiveFilePerm
	}
	// drop whatever the limit forbids; the owner always keeps read/write
	want := perm&limit | 0o600
	hint := fmt.Sprintf("chmod %04o %s", want, t.Path)

	if perm&0o002 != 0 {
		issues = append(issues, pathIssue{
			Path:        t.Path,
			Label:       t.Label,
			Type:        KindFile,
			Problem:     "file is world-writable",
			Severity:    SeverityWarning,
			Permissions: formatPermissions(mode),
			Want:        want,
			Fixable:     true,
			FixHint:     hint,
		})
	} else if perm&^limit != 0 {
		issues = append(issues, pathIssue{
			Path:        t.Path,
			Label:       t.Label,
			Type:        KindFile,
			Problem:     fmt.Sprintf("file permissions %s are looser than %04o", formatPermissions(mode), limit),
			Severity:    SeverityWarning,
			Permissions: formatPermissions(mode),
			Want:        want,
			Fixable:     true,
			FixHint:     hint,
		})
	}
	return issues
}

func (c *PathPermissionCheck) checkDirectory(t PathTarget) []pathIssue {
	info, err := os.Stat(t.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return []pathIssue{{
			Path:     t.Path,
			Label:    t.Label,
			Type:     KindDirectory,
			Problem:  fmt.Sprintf("cannot stat directory: %v", err),
			Severity: SeverityError,
		}}
	}
	if !info.IsDir() {
		return []pathIssue{{
			Path:     t.Path,
			Label:    t.Label,
			Type:     KindDirectory,
			Problem:  "expected directory but found file",
			Severity: SeverityError,
		}}
	}

	var issues []pathIssue
	if !isDirectoryWritable(t.Path) {
		issues = append(issues, pathIssue{
			Path:        t.Path,
			Label:       t.Label,
			Type:        KindDirectory,
			Problem:     "directory is not writable",
			Severity:    SeverityWarning,
			Permissions: formatPermissions(info.Mode()),
			FixHint:     "chmod u+w " + t.Path,
		})
	}

	if c.goos != "windows" && info.Mode().Perm()&0o002 != 0 {
		want := info.Mode().Perm()&^0o022 | 0o700
		issues = append(issues, pathIssue{
			Path:        t.Path,
			Label:       t.Label,
			Type:        KindDirectory,
			Problem:     "directory is world-writable",
			Severity:    SeverityWarning,
			Permissions: formatPermissions(info.Mode()),
			Want:        want,
			Fixable:     true,
			FixHint:     fmt.Sprintf("chmod %04o %s", want, t.Path),
		})
	}
	return issues
}

// isDirectoryWritable probes a directory by creating and removing a temp
// file in it.
func isDirectoryWritable(path string) bool {
	f, err := os.CreateTemp(path, ".hostenv-doctor-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

func (c *PathPermissionCheck) buildResult(issues []pathIssue, checked int) *CheckResult {
	if len(issues) == 0 {
		return newResult(c, SeverityPass, fmt.Sprintf("all %d paths have valid permissions", checked))
	}

	status := SeverityPass
	issueDetails := make([]map[string]any, 0, len(issues))
	var fixHints []string
	fixable := false
	for _, issue := range issues {
		status = status.Max(issue.Severity)

		m := map[string]any{
			"path":     issue.Path,
			"label":    issue.Label,
			"type":     issue.Type,
			"problem":  issue.Problem,
			"severity": issue.Severity.String(),
		}
		if issue.Permissions != "" {
			m["permissions"] = issue.Permissions
		}
		if issue.FixHint != "" {
			m["fix_hint"] = issue.FixHint
		}
		issueDetails = append(issueDetails, m)

		if issue.Fixable {
			fixable = true
			if issue.FixHint != "" {
				fixHints = append(fixHints, issue.FixHint)
			}
		}
	}

	result := newResult(c, status, fmt.Sprintf("found %d permission issue(s) across %d paths", len(issues), checked))
	result.Details = map[string]any{
		"checked_paths": checked,
		"issue_count":   len(issues),
		"issues":        issueDetails,
	}
	result.Fixable = fixable
	if len(fixHints) > 0 {
		result.FixHint = strings.Join(fixHints, "; ")
	}
	return result
}

// formatPermissions renders a mode's permission bits in octal, e.g. "0644".
func formatPermissions(mode os.FileMode) string {
	return fmt.Sprintf("%04o", mode.Perm())
}
