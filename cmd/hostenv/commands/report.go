package commands

import (
	"github.com/spf13/cobra"

	"github.com/thoreinstein/hostenv/internal/errors"
	"github.com/thoreinstein/hostenv/internal/logging"
	"github.com/thoreinstein/hostenv/internal/report"
)

var reportFormat string

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", string(report.FormatJSON),
		"output format: json, yaml")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print everything hostenv knows about the host",
	Long: `Print one document combining the runtime, environment, server and
system sections.

The runtime section is omitted when no interpreter snapshot is available.`,
	Example: `  # JSON report
  hostenv report

  # YAML report into a file
  hostenv report --format yaml > host.yaml

See Also: hostenv doctor`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, _ []string) error {
	format, err := report.ParseFormat(reportFormat)
	if err != nil {
		return errors.NewUserError(err, "use --format json or --format yaml")
	}

	ctx := cmd.Context()
	logger := logging.FromContext(ctx)
	comp := buildComponents(ctx, cfg, logger)
	if comp.runtimeErr != nil {
		logger.Warn("runtime section omitted", "error", comp.runtimeErr)
	}

	r := report.Build(report.Sources{
		Runtime:     comp.runtime,
		Environment: comp.env,
		Server:      comp.server,
		System:      comp.system,
		DiskPath:    cfg.System.DiskPath,
	})
	return r.Write(cmd.OutOrStdout(), format)
}
