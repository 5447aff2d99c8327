package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/hostenv/internal/config"
	"github.com/thoreinstein/hostenv/internal/doctor"
	"github.com/thoreinstein/hostenv/internal/editor"
	"github.com/thoreinstein/hostenv/internal/errors"
)

// configShowSecrets holds the value of the --show-secrets flag.
var configShowSecrets bool

func init() {
	for _, c := range []*cobra.Command{configCmd, configListCmd} {
		c.Flags().BoolVar(&configShowSecrets, "show-secrets", false,
			"print credential-like constants unmasked")
	}
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage hostenv configuration",
	Long: `Manage hostenv configuration stored in ./config.yaml or
~/.config/hostenv/config.yaml.

Every key can also be set through the environment with the HOSTENV_ prefix,
for example HOSTENV_SITE_URL or HOSTENV_SERVER_SOFTWARE.

Without a subcommand, lists all configuration values.`,
	Example: `  # List all configuration
  hostenv config

  # Get a specific value
  hostenv config get site_url

  # Set a value
  hostenv config set requirements.extensions mysqli,curl,mbstring

  # Set a constant
  hostenv config set constants.WP_ENVIRONMENT_TYPE staging

See Also: hostenv doctor`,
	RunE: runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a single configuration value by key.

Supports dot notation for nested keys. Array values are printed one per line.`,
	Example: `  # Get the site URL
  hostenv config get site_url

  # Get required extensions
  hostenv config get requirements.extensions

See Also: hostenv config set, hostenv config list`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and save the config file.

For list values such as local_domains or requirements.extensions, use
comma-separated values. The resulting configuration is validated before it
is written.`,
	Example: `  # Require PHP 8.1
  hostenv config set requirements.runtime_version 8.1

  # Probe a different binary with a longer timeout
  hostenv config set runtime.binary /usr/bin/php8.3
  hostenv config set runtime.timeout 30s

See Also: hostenv config get, hostenv config list`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration",
	Long: `List all configuration values in YAML format.

Constants that look like credentials are masked unless --show-secrets is
given.`,
	Example: `  # List all configuration
  hostenv config list

See Also: hostenv config get, hostenv config set`,
	Args: cobra.NoArgs,
	RunE: runConfigList,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Long:  `Print the config file in use, or where hostenv would write one.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.Path())
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in $EDITOR",
	Long: `Open the configuration file in your default editor.

Uses $EDITOR, then $VISUAL, then nano or vi.
If no configuration file exists, prints an error suggesting 'hostenv config set'.`,
	Example: `  # Open config in default editor
  hostenv config edit

  # Open with specific editor
  EDITOR=nano hostenv config edit

See Also: hostenv config list, hostenv doctor`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	out := cmd.OutOrStdout()

	if !config.KnownKey(key) {
		return unknownKeyError(key)
	}

	// Check if value exists
	if !viper.IsSet(key) {
		fmt.Fprintln(out, "not set")
		return nil
	}

	// Get the value and determine its type
	val := viper.Get(key)

	switch v := val.(type) {
	case []any:
		// Array values - print one per line
		for _, item := range v {
			fmt.Fprintln(out, item)
		}
	case []string:
		// String slice - print one per line
		for _, item := range v {
			fmt.Fprintln(out, item)
		}
	case map[string]any:
		data, err := yaml.Marshal(v)
		if err != nil {
			return errors.Wrap(err, "marshaling value")
		}
		fmt.Fprint(out, string(data))
	default:
		// Scalar values
		fmt.Fprintln(out, viper.GetString(key))
	}

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]

	if !config.KnownKey(key) {
		return unknownKeyError(key)
	}

	value, err := config.ParseValue(key, raw)
	if err != nil {
		return errors.NewUserError(err, errors.FlattenHints(err))
	}
	viper.Set(key, value)

	var updated config.Config
	if err := viper.Unmarshal(&updated); err != nil {
		return errors.NewUserError(err, "check the value's type")
	}
	if errs := config.Validate(&updated); len(errs) > 0 {
		return errors.NewUserError(errors.Join(errs...), "the config file was not changed")
	}

	path := config.Path()
	if err := config.Save(path); err != nil {
		return errors.NewSystemError(err, "check permissions on "+path)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, value)
	}
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	settings := config.Settings()
	if !configShowSecrets {
		maskConstants(settings)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

// maskConstants replaces credential-like constant values in place.
func maskConstants(settings map[string]any) {
	constants, ok := settings[config.KeyConstants].(map[string]any)
	if !ok {
		return
	}
	plain := make(map[string]string, len(constants))
	for k, v := range constants {
		plain[k] = fmt.Sprint(v)
	}
	for k, v := range doctor.MaskSecrets(plain) {
		constants[k] = v
	}
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return errors.NewUserError(
			errors.Newf("config file not found at %s", configPath),
			"create it with 'hostenv config set site_url <url>'",
		)
	}

	return editor.Open(cmd.Context(), configPath, editor.Streams{
		In:  cmd.InOrStdin(),
		Out: cmd.OutOrStdout(),
		Err: cmd.ErrOrStderr(),
	})
}

func unknownKeyError(key string) error {
	return errors.NewUserError(
		errors.Newf("unknown config key %q", key),
		"run 'hostenv config list' to see the available keys",
	)
}
