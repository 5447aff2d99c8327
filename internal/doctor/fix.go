package doctor

import (
	"fmt"
	"os"

	"github.com/thoreinstein/hostenv/internal/errors"
)

// Fixer is implemented by checks that can remediate what they find.
// CanFix and Fix are only meaningful after Run.
type Fixer interface {
	CanFix() bool
	Fix() []FixResult
}

// FixResult describes the outcome of an attempted fix operation.
type FixResult struct {
	// Path is the file or directory that was targeted for fixing.
	Path string `json:"path" yaml:"path"`

	// Fixed indicates whether the fix was successfully applied.
	Fixed bool `json:"fixed" yaml:"fixed"`

	// Description explains what was fixed or why it couldn't be fixed.
	Description string `json:"description" yaml:"description"`

	// Error contains the error if the fix failed.
	Error error `json:"-" yaml:"-"`
}

// default modes when an issue does not carry its own target
const (
	defaultFileMode os.FileMode = 0o644
	defaultDirMode  os.FileMode = 0o755
)

// PermissionFixer chmods paths flagged by PathPermissionCheck.
type PermissionFixer struct {
	issues []pathIssue
}

// CanFix reports whether any recorded issue is fixable.
func (f *PermissionFixer) CanFix() bool {
	return f.CountFixable() > 0
}

// CountFixable returns the number of fixable issues.
func (f *PermissionFixer) CountFixable() int {
	n := 0
	for _, issue := range f.issues {
		if issue.Fixable {
			n++
		}
	}
	return n
}

// Fix applies every fixable issue and reports one FixResult per issue.
func (f *PermissionFixer) Fix() []FixResult {
	results := make([]FixResult, 0, f.CountFixable())
	for _, issue := range f.issues {
		if issue.Fixable {
			results = append(results, fixIssue(issue))
		}
	}
	return results
}

func fixIssue(issue pathIssue) FixResult {
	result := FixResult{Path: issue.Path}

	target := issue.Want
	if target == 0 {
		switch issue.Type {
		case KindFile:
			target = defaultFileMode
		case KindDirectory:
			target = defaultDirMode
		default:
			result.Description = "unknown type: " + issue.Type
			result.Error = errors.Newf("cannot fix unknown type: %s", issue.Type)
			return result
		}
	}

	if err := os.Chmod(issue.Path, target); err != nil {
		result.Description = fmt.Sprintf("failed to chmod %04o: %v", target, err)
		result.Error = errors.Wrapf(err, "chmod %04o %s", target, issue.Path)
		return result
	}

	result.Fixed = true
	result.Description = fmt.Sprintf("chmod %04o", target)
	return result
}

func (f *PermissionFixer) setIssues(issues []pathIssue) {
	f.issues = issues
}
