package commands

import (
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/hostenv/internal/environment"
	"github.com/thoreinstein/hostenv/internal/errors"
	"github.com/thoreinstein/hostenv/internal/logging"
)

var (
	envFormat string
	envIs     string
)

var envTypes = []environment.Type{
	environment.TypeLocalhost,
	environment.TypeStaging,
	environment.TypeDevelopment,
	environment.TypeProduction,
}

func init() {
	envCmd.Flags().StringVarP(&envFormat, "format", "f", formatText,
		"output format: text, json, yaml")
	envCmd.Flags().StringVar(&envIs, "is", "",
		"print nothing and exit 0 if the environment is this type, 1 otherwise")
	rootCmd.AddCommand(envCmd)
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Classify the environment",
	Long: `Classify the site as localhost, staging, development or production and
name the hosting platform.

Classification reads site_url and home_url, WordPress-style constants from
the config or the process environment, and markers left by hosting
providers, Docker and virtual machines.`,
	Example: `  # Classify using the configured site URL
  hostenv env

  # Classify another URL
  hostenv env --site-url https://staging.example.com

  # Use in scripts
  hostenv env --is production && echo "careful"

See Also: hostenv server, hostenv report`,
	Args: cobra.NoArgs,
	RunE: runEnv,
}

// envView adds the individual class predicates to environment.Info.
type envView struct {
	environment.Info `yaml:",inline"`

	HomeHost    string `json:"home_host" yaml:"home_host"`
	Localhost   bool   `json:"localhost" yaml:"localhost"`
	Staging     bool   `json:"staging" yaml:"staging"`
	Development bool   `json:"development" yaml:"development"`
	Production  bool   `json:"production" yaml:"production"`
}

func newEnvView(c *environment.Classifier) envView {
	return envView{
		Info:        c.Info(),
		HomeHost:    c.HomeHost(),
		Localhost:   c.IsLocalhost(),
		Staging:     c.IsStaging(),
		Development: c.IsDevelopment(),
		Production:  c.IsProduction(),
	}
}

func runEnv(cmd *cobra.Command, _ []string) error {
	if envIs != "" && !slices.Contains(envTypes, environment.Type(envIs)) {
		return errors.NewUserError(
			errors.Newf("unknown environment type %q", envIs),
			"use localhost, staging, development or production",
		)
	}

	ctx := cmd.Context()
	comp := buildComponents(ctx, cfg, logging.FromContext(ctx))

	if envIs != "" {
		if comp.env.Type() != environment.Type(envIs) {
			return errors.NewExitError(nil, errors.ExitUser)
		}
		return nil
	}

	view := newEnvView(comp.env)
	return writeOutput(cmd.OutOrStdout(), envFormat, view, func(w io.Writer) {
		printEnv(w, view)
	})
}

func printEnv(w io.Writer, v envView) {
	heading(w, "Environment")
	field(w, "Type", v.Type)
	field(w, "Site host", orNone(v.SiteHost))
	field(w, "Home host", orNone(v.HomeHost))
	field(w, "Hosting platform", orNone(v.HostingPlatform))
	field(w, "Localhost", yesNo(v.Localhost))
	field(w, "Staging", yesNo(v.Staging))
	field(w, "Development", yesNo(v.Development))
	field(w, "Production", yesNo(v.Production))
	field(w, "Docker", yesNo(v.Docker))
	field(w, "Virtual machine", yesNo(v.VirtualMachine))
}
