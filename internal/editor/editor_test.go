package editor

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand(t *testing.T) {
	found := func(string) (string, error) { return "/usr/bin/nano", nil }
	missing := func(string) (string, error) { return "", os.ErrNotExist }

	tests := []struct {
		name     string
		env      map[string]string
		lookPath func(string) (string, error)
		want     []string
	}{
		{"editor wins", map[string]string{"EDITOR": "nvim", "VISUAL": "code"}, found, []string{"nvim"}},
		{"editor with args", map[string]string{"EDITOR": "code --wait"}, found, []string{"code", "--wait"}},
		{"visual", map[string]string{"EDITOR": "  ", "VISUAL": "emacs"}, found, []string{"emacs"}},
		{"nano installed", nil, found, []string{"nano"}},
		{"vi fallback", nil, missing, []string{"vi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(k string) string { return tt.env[k] }
			assert.Equal(t, tt.want, Command(getenv, tt.lookPath))
		})
	}
}

func TestOpen(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the editor")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(target, []byte("site_url: x\n"), 0o600))

	// the fake editor appends a line to the file it is given
	script := filepath.Join(dir, "fake-editor")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'edited: true' >> \"$1\"\n"), 0o700))
	t.Setenv("EDITOR", script)

	var out bytes.Buffer
	require.NoError(t, Open(t.Context(), target, Streams{Out: &out, Err: &out}))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "edited: true")
}

func TestOpen_Failure(t *testing.T) {
	t.Setenv("EDITOR", filepath.Join(t.TempDir(), "no-such-editor"))

	err := Open(t.Context(), "config.yaml", Streams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running editor")
}
