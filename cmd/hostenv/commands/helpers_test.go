package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const testProfile = `version: 8.2.12
sapi: cli
extensions: [Core, curl, mbstring, zlib]
functions: [gzencode, curl_init, exec]
ini:
  memory_limit: 256M
  disable_functions: exec
  upload_max_filesize: 8M
  max_execution_time: "30"
memory_usage: 2097152
`

// isolate points hostenv's config and cache at a fresh directory, moves
// into it and returns it.
func isolate(t *testing.T) string {
	t.Helper()
	// registered first so it runs after the env vars are restored
	t.Cleanup(xdg.Reload)

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	xdg.Reload()
	t.Chdir(dir)
	return dir
}

// writeProfile saves testProfile in dir and returns its path.
func writeProfile(t *testing.T, dir string) string {
	t.Helper()
	return writeFileIn(t, dir, "runtime.yaml", testProfile)
}

// resetFlags restores every flag of c and its subcommands to its default.
// Cobra keeps flag values between Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		// "[]" would parse as a one-element slice
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func writeFileIn(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
