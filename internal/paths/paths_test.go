package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/hostenv/internal/errors"
)

func TestHome(t *testing.T) {
	want, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("os.UserHomeDir() failed: %v", err)
	}
	assert.Equal(t, want, Home())
}

func TestResolveHome(t *testing.T) {
	got, err := ResolveHome()
	if err != nil {
		assert.True(t, errors.Is(err, ErrHomeDirNotFound), "unexpected error type: %v", err)
		return
	}
	want, _ := os.UserHomeDir()
	assert.Equal(t, want, got)
}

func TestXDGRoots(t *testing.T) {
	for name, dir := range map[string]string{
		"ConfigHome": ConfigHome(),
		"CacheHome":  CacheHome(),
	} {
		assert.NotEmpty(t, dir, name)
		assert.True(t, filepath.IsAbs(dir), "%s = %q, want absolute path", name, dir)
	}
}

func TestHostenvPaths(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ConfigDir", ConfigDir(), filepath.Join(ConfigHome(), "hostenv")},
		{"ConfigFile", ConfigFile(), filepath.Join(ConfigHome(), "hostenv", "config.yaml")},
		{"CacheDir", CacheDir(), filepath.Join(CacheHome(), "hostenv")},
		{"DefaultProfilePath", DefaultProfilePath(), filepath.Join(CacheHome(), "hostenv", "runtime.yaml")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestEnsureDir(t *testing.T) {
	t.Run("creates nested directories", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "a", "b", "c")
		require.NoError(t, EnsureDir(dir, 0))

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		if runtime.GOOS != "windows" {
			assert.Equal(t, os.FileMode(DefaultDirPerm), info.Mode().Perm())
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		dir := t.TempDir()
		assert.NoError(t, EnsureDir(dir, 0o755))
		assert.NoError(t, EnsureDir(dir, 0o755))
	})

	t.Run("path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, nil, 0o600))
		assert.Error(t, EnsureDir(filepath.Join(file, "sub"), 0))
	})
}
