package doctor

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
}

func TestPermissionFixer_CanFix(t *testing.T) {
	tests := []struct {
		name   string
		issues []pathIssue
		want   int
	}{
		{name: "no issues", issues: nil, want: 0},
		{
			name:   "non-fixable issue",
			issues: []pathIssue{{Path: "/p", Type: KindFile, Severity: SeverityError}},
			want:   0,
		},
		{
			name:   "fixable issue",
			issues: []pathIssue{{Path: "/p", Type: KindFile, Severity: SeverityWarning, Fixable: true}},
			want:   1,
		},
		{
			name: "mixed issues",
			issues: []pathIssue{
				{Path: "/a", Fixable: false},
				{Path: "/b", Fixable: true},
				{Path: "/c", Fixable: true},
			},
			want: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f PermissionFixer
			f.setIssues(tt.issues)
			assert.Equal(t, tt.want, f.CountFixable())
			assert.Equal(t, tt.want > 0, f.CanFix())
		})
	}
}

func TestPermissionFixer_Fix(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()

	file := filepath.Join(dir, "hostenv.yaml")
	require.NoError(t, os.WriteFile(file, []byte("a: 1\n"), 0o600))
	require.NoError(t, os.Chmod(file, 0o666))

	sub := filepath.Join(dir, "cache")
	require.NoError(t, os.Mkdir(sub, 0o700))
	require.NoError(t, os.Chmod(sub, 0o777))

	var f PermissionFixer
	f.setIssues([]pathIssue{
		{Path: file, Type: KindFile, Want: 0o600, Fixable: true},
		{Path: sub, Type: KindDirectory, Fixable: true},
		{Path: filepath.Join(dir, "other"), Type: KindFile, Fixable: false},
	})

	results := f.Fix()
	require.Len(t, results, 2, "non-fixable issues are skipped")
	for _, r := range results {
		assert.True(t, r.Fixed, r.Path)
		assert.NoError(t, r.Error)
	}

	fi, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	di, err := os.Stat(sub)
	require.NoError(t, err)
	assert.Equal(t, defaultDirMode, di.Mode().Perm())
}

func TestPermissionFixer_FixMissingPath(t *testing.T) {
	var f PermissionFixer
	f.setIssues([]pathIssue{{Path: filepath.Join(t.TempDir(), "gone"), Type: KindFile, Fixable: true}})

	results := f.Fix()
	require.Len(t, results, 1)
	assert.False(t, results[0].Fixed)
	assert.Error(t, results[0].Error)
	assert.Contains(t, results[0].Description, "failed to chmod")
}

func TestPermissionFixer_FixUnknownType(t *testing.T) {
	var f PermissionFixer
	f.setIssues([]pathIssue{{Path: t.TempDir(), Type: "socket", Fixable: true}})

	results := f.Fix()
	require.Len(t, results, 1)
	assert.False(t, results[0].Fixed)
	assert.Error(t, results[0].Error)
	assert.Equal(t, "unknown type: socket", results[0].Description)
}

func TestPathPermissionCheck_FixRoundTrip(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	cfg := filepath.Join(dir, "wp-config.php")
	require.NoError(t, os.WriteFile(cfg, []byte("<?php\n"), 0o600))
	require.NoError(t, os.Chmod(cfg, 0o664))

	check := NewPathPermissionCheck(PathTarget{Path: cfg, Label: "config", Kind: KindFile, Sensitive: true})

	result := check.Run()
	require.Equal(t, SeverityWarning, result.Status)
	assert.True(t, result.Fixable)
	assert.Contains(t, result.FixHint, "chmod 0600")
	require.True(t, check.CanFix())

	fixed := check.Fix()
	require.Len(t, fixed, 1)
	assert.True(t, fixed[0].Fixed)

	assert.Equal(t, SeverityPass, check.Run().Status)
	assert.False(t, check.CanFix())
}
