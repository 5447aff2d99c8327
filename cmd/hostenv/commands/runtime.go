package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/hostenv/internal/errors"
	"github.com/thoreinstein/hostenv/internal/logging"
	"github.com/thoreinstein/hostenv/internal/paths"
	"github.com/thoreinstein/hostenv/internal/report"
	"github.com/thoreinstein/hostenv/internal/runtimeconfig"
)

var (
	runtimeFormat string
	runtimeLive   bool
	captureOutput string
)

func init() {
	for _, c := range []*cobra.Command{runtimeCmd, runtimeShowCmd} {
		c.Flags().StringVarP(&runtimeFormat, "format", "f", formatText,
			"output format: text, json, yaml")
		c.Flags().BoolVar(&runtimeLive, "live", false,
			"probe the interpreter even when a profile exists")
	}
	runtimeCaptureCmd.Flags().StringVarP(&captureOutput, "output", "o", "",
		"profile to write (.yaml, .json or .toml; default the hostenv cache)")

	runtimeCmd.AddCommand(runtimeShowCmd)
	runtimeCmd.AddCommand(runtimeCaptureCmd)
	rootCmd.AddCommand(runtimeCmd)
}

var runtimeCmd = &cobra.Command{
	Use:   "runtime",
	Short: "Show the PHP interpreter configuration",
	Long: `Show the PHP interpreter's version, extensions and ini limits.

The snapshot comes from runtime.profile when set, else from a profile saved
by 'hostenv runtime capture', else from probing runtime.binary.

Without a subcommand, behaves like 'hostenv runtime show'.`,
	Example: `  # Show the interpreter
  hostenv runtime

  # Ignore saved profiles
  hostenv runtime show --live --format json

  # Save a profile for later runs
  hostenv runtime capture

See Also: hostenv doctor, hostenv report`,
	RunE: runRuntimeShow,
}

var runtimeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the PHP interpreter configuration",
	Args:  cobra.NoArgs,
	RunE:  runRuntimeShow,
}

var runtimeCaptureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Probe the interpreter and save a runtime profile",
	Long: `Run the PHP binary once and save what it reports as a runtime profile.

Later commands read the profile instead of starting PHP. The file is written
with 0600 permissions.`,
	Example: `  # Save to the default location
  hostenv runtime capture

  # Save a profile from a specific binary as TOML
  hostenv config set runtime.binary /usr/bin/php8.3
  hostenv runtime capture -o ./php83.toml

See Also: hostenv runtime show, hostenv config`,
	Args: cobra.NoArgs,
	RunE: runRuntimeCapture,
}

func runRuntimeShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)

	snap, source, err := runtimeSnapshot(ctx, cfg, runtimeLive)
	if err != nil {
		return runtimeError(err)
	}
	rt := runtimeconfig.New(snap, runtimeconfig.WithLogger(logger))
	summary := report.NewRuntime(rt)

	return writeOutput(cmd.OutOrStdout(), runtimeFormat, summary, func(w io.Writer) {
		printRuntime(w, summary, source)
	})
}

func printRuntime(w io.Writer, rt *report.Runtime, source string) {
	heading(w, "Runtime")
	field(w, "Version", rt.Version)
	field(w, "SAPI", orNone(rt.SAPI))
	if source != "" {
		field(w, "Source", source)
	}
	field(w, "Memory limit", rt.MemoryLimit)
	field(w, "Memory usage", rt.MemoryUsage)
	field(w, "Upload max filesize", orNone(rt.UploadMaxFilesize))
	field(w, "Post max size", orNone(rt.PostMaxSize))
	field(w, "Max execution time", fmt.Sprintf("%ds", rt.MaxExecutionTime))
	field(w, "Max input vars", rt.MaxInputVars)
	field(w, "Disabled functions", orNone(strings.Join(rt.DisabledFunctions, ", ")))
	field(w, "Extensions", len(rt.Extensions))
	for _, ext := range rt.Extensions {
		fmt.Fprintf(w, "    %s\n", ext)
	}
}

func runRuntimeCapture(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)

	out := captureOutput
	if out == "" {
		out = paths.DefaultProfilePath()
	}
	if !runtimeconfig.SupportedProfileExt(strings.ToLower(filepath.Ext(out))) {
		return errors.NewUserError(
			errors.Wrapf(errors.ErrUnsupportedFormat, "profile %s", out),
			"use a .yaml, .json or .toml file name",
		)
	}

	snap, _, err := runtimeSnapshot(ctx, cfg, true)
	if err != nil {
		return runtimeError(err)
	}

	if err := paths.EnsureDir(filepath.Dir(out), paths.DefaultDirPerm); err != nil {
		return errors.NewSystemError(err, "check permissions on the profile directory")
	}
	if err := runtimeconfig.SaveProfile(out, snap); err != nil {
		return errors.NewSystemError(err, "check permissions on the profile directory")
	}
	logger.Info("runtime profile saved", "path", out, "version", snap.Version)

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved PHP %s profile to %s\n", snap.Version, out)
	}
	return nil
}
