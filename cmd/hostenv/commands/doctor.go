package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/hostenv/internal/config"
	"github.com/thoreinstein/hostenv/internal/doctor"
	"github.com/thoreinstein/hostenv/internal/errors"
	"github.com/thoreinstein/hostenv/internal/logging"
	"github.com/thoreinstein/hostenv/internal/paths"
)

var (
	doctorJSON    bool
	doctorQuiet   bool
	doctorVerbose bool
	doctorFix     bool
	doctorOnly    []string
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false,
		"output results as JSON")
	doctorCmd.Flags().BoolVar(&doctorQuiet, "quiet", false,
		"suppress output, exit code only")
	doctorCmd.Flags().BoolVar(&doctorVerbose, "verbose", false,
		"show detailed check-by-check output")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false,
		"repair fixable issues, such as file permissions, then check again")
	doctorCmd.Flags().StringSliceVar(&doctorOnly, "category", nil,
		"only run checks in these categories (runtime, system, server, environment, filesystem, config)")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the host against configured requirements",
	Long: `Run diagnostic checks on the PHP runtime, web server, host and hostenv's
own files.

Minimums come from the requirements section of the config:
runtime_version, extensions, functions, memory and disk_space. Checks
without a configured requirement report what they found as info.

Output modes (mutually exclusive):
  (default)   Show errors and warnings
  --verbose   Show all checks including passed ones
  --quiet     No output, exit code only
  --json      Machine-readable JSON output

Exit codes:
  0 - All checks passed (no errors or warnings)
  1 - Warnings present, no errors
  2 - Errors present`,
	Example: `  # Check the host
  hostenv doctor

  # Only the PHP runtime checks
  hostenv doctor --category runtime

  # Show every check
  hostenv doctor --verbose

  # Tighten permissions on hostenv's files
  hostenv doctor --fix

See Also: hostenv config, hostenv report`,
	Args:    cobra.NoArgs,
	PreRunE: validateDoctorFlags,
	RunE:    runDoctor,
}

// validateDoctorFlags ensures output flags are mutually exclusive.
func validateDoctorFlags(_ *cobra.Command, _ []string) error {
	count := 0
	if doctorJSON {
		count++
	}
	if doctorQuiet {
		count++
	}
	if doctorVerbose {
		count++
	}

	if count > 1 {
		return errors.NewUserError(
			errors.New("flags --json, --quiet, and --verbose are mutually exclusive"),
			"pick one output mode",
		)
	}

	return nil
}

// profilePath is the runtime profile doctor inspects.
func profilePath(c *config.Config) string {
	if c.Runtime.Profile != "" {
		return c.Runtime.Profile
	}
	return paths.DefaultProfilePath()
}

// newDoctorRunner registers every check for c.
func newDoctorRunner(comp *components, c *config.Config, logger *slog.Logger) *doctor.Runner {
	runner := doctor.NewRunner(doctor.WithLogger(logger), doctor.WithCategories(doctorOnly...))

	runner.AddCheck(doctor.NewConfigSyntaxCheck(config.Path(), profilePath(c)))
	runner.AddCheck(doctor.NewPathPermissionCheck(
		doctor.PathTarget{Path: paths.ConfigDir(), Label: "config directory", Kind: doctor.KindDirectory},
		doctor.PathTarget{Path: config.Path(), Label: "config", Kind: doctor.KindFile, Sensitive: true},
		doctor.PathTarget{Path: paths.CacheDir(), Label: "cache directory", Kind: doctor.KindDirectory},
		doctor.PathTarget{Path: profilePath(c), Label: "runtime profile", Kind: doctor.KindFile},
	))

	runner.AddCheck(&doctor.RuntimeSourceCheck{Source: comp.runtimeSource, Err: comp.runtimeErr})
	if rt := comp.runtime; rt != nil {
		req := c.Requirements
		runner.AddCheck(&doctor.RuntimeVersionCheck{Runtime: rt, Required: req.RuntimeVersion})
		runner.AddCheck(&doctor.RuntimeExtensionsCheck{Runtime: rt, Required: req.Extensions})
		runner.AddCheck(&doctor.RuntimeFunctionsCheck{Runtime: rt, Required: req.Functions})
		runner.AddCheck(&doctor.RuntimeMemoryCheck{Runtime: rt, Required: req.Memory})
	}

	runner.AddCheck(&doctor.DiskSpaceCheck{
		System:   comp.system,
		Path:     c.System.DiskPath,
		Required: c.Requirements.DiskSpace,
	})
	runner.AddCheck(&doctor.SystemLoadCheck{System: comp.system, Threshold: c.System.LoadThreshold})
	runner.AddCheck(&doctor.URLRewritingCheck{Server: comp.server})
	runner.AddCheck(&doctor.EnvironmentCheck{Env: comp.env, Constants: comp.constants})

	return runner
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)
	out := cmd.OutOrStdout()

	if configLoadErr != nil {
		logger.Warn("config did not load; checking with defaults", "error", configLoadErr)
	}

	comp := buildComponents(ctx, cfg, logger)
	runner := newDoctorRunner(comp, cfg, logger)
	report := runner.Run()

	if doctorFix {
		results := applyFixes(runner.Checks())
		if len(results) > 0 {
			if !doctorQuiet && !doctorJSON {
				outputFixResults(out, results)
			}
			report = runner.Run()
		}
	}

	if err := outputDoctorReport(out, report); err != nil {
		return err
	}

	// Determine exit code based on results
	if report.HasErrors() {
		return errDoctorErrors
	}
	if report.HasWarnings() {
		return errDoctorWarnings
	}
	return nil
}

// applyFixes runs every fixer that found something to fix.
func applyFixes(checks []doctor.Check) []doctor.FixResult {
	var results []doctor.FixResult
	for _, c := range checks {
		f, ok := c.(doctor.Fixer)
		if !ok || !f.CanFix() {
			continue
		}
		results = append(results, f.Fix()...)
	}
	return results
}

func outputFixResults(w io.Writer, results []doctor.FixResult) {
	for _, r := range results {
		if r.Fixed {
			fmt.Fprintf(w, "%s fixed %s: %s\n", passColor.Sprint("✓"), r.Path, r.Description)
			continue
		}
		fmt.Fprintf(w, "%s could not fix %s: %s\n", errorColor.Sprint("✗"), r.Path, r.Description)
	}
	fmt.Fprintln(w)
}

func outputDoctorReport(w io.Writer, report *doctor.DoctorReport) error {
	if doctorQuiet {
		return nil
	}

	if doctorJSON {
		return outputDoctorJSON(w, report)
	}

	outputDoctorText(w, report)
	return nil
}

func outputDoctorJSON(w io.Writer, report *doctor.DoctorReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return errors.Wrap(err, "encoding JSON")
	}
	return nil
}

func outputDoctorText(w io.Writer, report *doctor.DoctorReport) {
	// In normal mode, show only errors and warnings
	// In verbose mode, show all checks
	showAll := doctorVerbose

	hasOutput := false
	for _, result := range report.Results {
		problem := result.Status == doctor.SeverityError || result.Status == doctor.SeverityWarning
		if !showAll && !problem {
			continue
		}

		hasOutput = true
		fmt.Fprintf(w, "%s [%s] %s: %s\n", statusIcon(result.Status), result.Category, result.Name, result.Message)

		if result.FixHint != "" && problem {
			fmt.Fprintf(w, "  hint: %s\n", result.FixHint)
		}
		if result.Fixable && problem {
			fmt.Fprintf(w, "  %s\n", mutedColor.Sprint("fixable with --fix"))
		}
	}

	// Print summary
	if hasOutput || showAll {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Summary: %d passed, %d info, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Info, report.Summary.Warnings, report.Summary.Errors)
}

func statusIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return passColor.Sprint("✓")
	case doctor.SeverityInfo:
		return labelColor.Sprint("ℹ")
	case doctor.SeverityWarning:
		return warnColor.Sprint("⚠")
	case doctor.SeverityError:
		return errorColor.Sprint("✗")
	default:
		return "?"
	}
}

// errDoctorWarnings is a sentinel error for exit code 1.
var errDoctorWarnings = errors.New("warnings found")

// errDoctorErrors is a sentinel error for exit code 2.
var errDoctorErrors = errors.New("errors found")
