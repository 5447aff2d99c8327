package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMode(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	require.NoError(t, os.Chmod(path, mode))
}

func TestPathPermissionCheck_Metadata(t *testing.T) {
	c := NewPathPermissionCheck()
	assert.Equal(t, "path-permissions", c.Name())
	assert.Equal(t, "filesystem", c.Category())
}

func TestPathPermissionCheck_Files(t *testing.T) {
	skipOnWindows(t)

	tests := []struct {
		name      string
		mode      os.FileMode
		sensitive bool
		want      Severity
		problem   string
	}{
		{name: "owner only", mode: 0o600, want: SeverityPass},
		{name: "readable config", mode: 0o644, want: SeverityPass},
		{name: "world-writable", mode: 0o646, want: SeverityWarning, problem: "file is world-writable"},
		{name: "group-writable", mode: 0o664, want: SeverityWarning, problem: "looser than 0644"},
		{name: "sensitive group-readable", mode: 0o640, sensitive: true, want: SeverityWarning, problem: "looser than 0600"},
		{name: "sensitive owner only", mode: 0o600, sensitive: true, want: SeverityPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "profile.json")
			writeMode(t, path, tt.mode)

			result := NewPathPermissionCheck(PathTarget{Path: path, Label: "profile", Kind: KindFile, Sensitive: tt.sensitive}).Run()
			assert.Equal(t, tt.want, result.Status)
			if tt.problem == "" {
				return
			}
			issues, ok := result.Details["issues"].([]map[string]any)
			require.True(t, ok)
			require.Len(t, issues, 1)
			assert.Contains(t, issues[0]["problem"], tt.problem)
			assert.True(t, result.Fixable)
		})
	}
}

func TestPathPermissionCheck_MissingPathsPass(t *testing.T) {
	dir := t.TempDir()
	c := NewPathPermissionCheck(
		PathTarget{Path: filepath.Join(dir, "missing.yaml"), Kind: KindFile},
		PathTarget{Path: filepath.Join(dir, "missing"), Kind: KindDirectory},
		PathTarget{Path: ""},
	)
	result := c.Run()
	assert.Equal(t, SeverityPass, result.Status)
	assert.Equal(t, "all 2 paths have valid permissions", result.Message)
}

func TestPathPermissionCheck_WrongKind(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	writeMode(t, file, 0o600)

	result := NewPathPermissionCheck(
		PathTarget{Path: dir, Label: "config", Kind: KindFile},
		PathTarget{Path: file, Label: "cache", Kind: KindDirectory},
	).Run()

	assert.Equal(t, SeverityError, result.Status)
	assert.Equal(t, 2, result.Details["issue_count"])
	assert.False(t, result.Fixable)
}

func TestPathPermissionCheck_WorldWritableDirectory(t *testing.T) {
	skipOnWindows(t)
	dir := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.Mkdir(dir, 0o700))
	require.NoError(t, os.Chmod(dir, 0o777))

	result := NewPathPermissionCheck(PathTarget{Path: dir, Kind: KindDirectory}).Run()
	assert.Equal(t, SeverityWarning, result.Status)
	assert.True(t, result.Fixable)
	assert.Contains(t, result.FixHint, "chmod 0755")
}

func TestFormatPermissions(t *testing.T) {
	assert.Equal(t, "0644", formatPermissions(0o644))
	assert.Equal(t, "0755", formatPermissions(os.ModeDir|0o755))
}
