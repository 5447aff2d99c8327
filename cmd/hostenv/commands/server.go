package commands

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/hostenv/internal/logging"
	"github.com/thoreinstein/hostenv/internal/report"
)

var serverFormat string

func init() {
	serverCmd.Flags().StringVarP(&serverFormat, "format", "f", formatText,
		"output format: text, json, yaml")
	rootCmd.AddCommand(serverCmd)
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Identify the web server",
	Long: `Identify the web server from its software string and report what it
supports.

The software string is read from SERVER_SOFTWARE, or from server.software
when hostenv runs outside a request. For Apache, loaded modules are listed
with apachectl -M.`,
	Example: `  # Identify the server from the environment
  hostenv server

  # Describe a server by its software string
  hostenv server --server-software "Apache/2.4.58 (Ubuntu)"

See Also: hostenv env, hostenv doctor`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func runServer(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	comp := buildComponents(ctx, cfg, logging.FromContext(ctx))

	s := report.NewServer(comp.server)
	return writeOutput(cmd.OutOrStdout(), serverFormat, s, func(w io.Writer) {
		printServer(w, s)
	})
}

func printServer(w io.Writer, s report.Server) {
	heading(w, "Server")
	field(w, "Type", s.Type)
	field(w, "Software", orNone(s.Software))
	field(w, "Cloudflare", yesNo(s.Cloudflare))
	field(w, "URL rewriting", yesNo(s.URLRewriting))
	field(w, ".htaccess", yesNo(s.Htaccess))
	field(w, "Gzip", yesNo(s.Gzip))
	field(w, "Brotli", yesNo(s.Brotli))
	if len(s.ApacheModules) > 0 {
		field(w, "Apache modules", strings.Join(s.ApacheModules, ", "))
	}
}
