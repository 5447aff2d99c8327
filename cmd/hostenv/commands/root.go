// Package commands implements the CLI commands for hostenv.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thoreinstein/hostenv/cmd"
	"github.com/thoreinstein/hostenv/internal/config"
	"github.com/thoreinstein/hostenv/internal/errors"
	"github.com/thoreinstein/hostenv/internal/logging"
)

// debugEnv raises the log level when no -v flag is given.
const debugEnv = "HOSTENV_DEBUG"

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// configFile holds the value of the --config flag.
var configFile string

// cfg is the loaded configuration. It is never nil after initConfig.
var cfg *config.Config

// configLoadErr holds any error that occurred during config loading.
var configLoadErr error

// flagBindings maps persistent flags onto config keys.
var flagBindings = map[string]string{
	"site-url":        config.KeySiteURL,
	"server-software": config.KeyServerSW,
	"profile":         config.KeyRuntimeProf,
}

// configTolerant lists commands that run even when the config is broken.
var configTolerant = map[string]bool{
	"hostenv help":        true,
	"hostenv version":     true,
	"hostenv config path": true,
	"hostenv doctor":      true,
	"hostenv gen-doc":     true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	pf.BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	pf.StringVar(&logFormat, "log-format", "",
		"log format: text, json (default from config, else text)")
	pf.StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")
	pf.StringVar(&configFile, "config", "",
		"config file (default ./config.yaml or $XDG_CONFIG_HOME/hostenv/config.yaml)")
	pf.String("site-url", "",
		"site URL used to classify the environment")
	pf.String("server-software", "",
		"web server software string, as SERVER_SOFTWARE would report it")
	pf.String("profile", "",
		"runtime profile to read instead of probing the interpreter")

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("hostenv version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	for name, key := range flagBindings {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name))
	}
	cfg, configLoadErr = config.Load(configFile)
	if cfg == nil {
		cfg = config.Default()
	}
}

var rootCmd = &cobra.Command{
	Use:   "hostenv",
	Short: "Inspect the hosting environment of a PHP site",
	Long: `hostenv inspects the environment a PHP web application runs in.

It reports the interpreter's version, extensions and ini limits, classifies
the environment as localhost, staging, development or production, names the
hosting platform, identifies the web server and reads disk and load figures
from the host.

Interpreter facts come from a captured runtime profile or from probing the
php binary directly.`,
	Example: `  # Capture the interpreter once, then reuse it
  hostenv runtime capture

  # Classify the environment for a site
  hostenv env --site-url https://staging.example.com

  # Check the host against configured requirements
  hostenv doctor

  # Full machine-readable report
  hostenv report --format yaml

  See Also: hostenv doctor, hostenv config`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Initialize logging first
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return checkConfig(cmd)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags and
// the log section of the config.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(nil, "cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv(debugEnv); ok {
				switch val {
				case "1", "true":
					v = 2 // Debug
				case "2":
					v = 3 // Trace
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	formatName, path := logFormat, logFile
	if cfg != nil {
		if formatName == "" {
			formatName = cfg.Log.Format
		}
		if path == "" {
			path = cfg.Log.File
		}
	}
	format, ok := logging.ParseFormat(formatName)
	if !ok {
		return errors.NewUserError(
			errors.Newf("unknown log format %q", formatName),
			"use --log-format text or --log-format json",
		)
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var primaryHandler slog.Handler
	switch format {
	case logging.FormatJSON:
		primaryHandler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	default:
		primaryHandler = logging.NewHandler(cmd.ErrOrStderr(), opts)
	}

	handlers := []slog.Handler{primaryHandler}

	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.NewUserError(err, "failed to open log file")
		}
		// File output uses JSON format
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level: level,
		}))
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// checkConfig reports a config that failed to load, except for commands
// that can run without one.
func checkConfig(cmd *cobra.Command) error {
	if configLoadErr == nil || configTolerant[cmd.CommandPath()] {
		return nil
	}
	return errors.NewConfigError(configLoadErr)
}

// Execute runs the root command. Errors that do not carry an exit code are
// returned as user errors.
func Execute() error {
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}
	if errors.Is(err, errDoctorErrors) || errors.Is(err, errDoctorWarnings) {
		return err
	}
	return errors.AsExitError(err)
}
