package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/hostenv/internal/logging"
	"github.com/thoreinstein/hostenv/internal/system"
	"github.com/thoreinstein/hostenv/internal/units"
)

var (
	systemFormat   string
	systemDiskPath string
)

func init() {
	systemCmd.Flags().StringVarP(&systemFormat, "format", "f", formatText,
		"output format: text, json, yaml")
	systemCmd.Flags().StringVar(&systemDiskPath, "path", "",
		"directory whose filesystem is measured (default system.disk_path)")
	rootCmd.AddCommand(systemCmd)
}

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Show OS, disk and load figures",
	Long: `Show the operating system family, disk usage for one filesystem and
the load average.

Load average is not reported on Windows.`,
	Example: `  # Host summary
  hostenv system

  # Disk usage of the uploads volume
  hostenv system --path /var/www/uploads --format json

See Also: hostenv doctor, hostenv report`,
	Args: cobra.NoArgs,
	RunE: runSystem,
}

func runSystem(cmd *cobra.Command, _ []string) error {
	logger := logging.FromContext(cmd.Context())

	path := systemDiskPath
	if path == "" {
		path = cfg.System.DiskPath
	}
	info := system.New(system.WithLogger(logger)).Info(path)

	return writeOutput(cmd.OutOrStdout(), systemFormat, info, func(w io.Writer) {
		printSystem(w, info)
	})
}

func printSystem(w io.Writer, info system.Info) {
	heading(w, "System")
	field(w, "OS family", info.OSFamily)
	field(w, "Architecture", info.Arch)
	field(w, "CPUs", info.CPUs)
	field(w, "Kernel", orNone(info.Kernel))
	field(w, "Hostname", orNone(info.Hostname))
	if d := info.Disk; d != nil {
		field(w, "Disk "+info.DiskPath, fmt.Sprintf("%s free of %s (%.2f%% used)",
			units.FormatUint(d.Free), units.FormatUint(d.Total), d.Percent))
	} else {
		field(w, "Disk "+info.DiskPath, orNone(""))
	}
	if l := info.Load; l != nil {
		field(w, "Load average", fmt.Sprintf("%.2f %.2f %.2f", l.Load1, l.Load5, l.Load15))
	} else {
		field(w, "Load average", mutedColor.Sprint("not supported"))
	}
}
