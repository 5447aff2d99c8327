// Package config provides configuration management for hostenv using Viper.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/thoreinstein/hostenv/internal/errors"
	"github.com/thoreinstein/hostenv/internal/paths"
	"github.com/thoreinstein/hostenv/internal/server"
	"github.com/thoreinstein/hostenv/internal/system"
	"github.com/thoreinstein/hostenv/pkg/fileutil"
)

// AppName is the application name used for config file naming.
const AppName = paths.AppName

// EnvPrefix prefixes environment overrides: HOSTENV_SITE_URL,
// HOSTENV_SERVER_SOFTWARE, ...
const EnvPrefix = "HOSTENV"

// CurrentVersion is the config schema version written by hostenv.
const CurrentVersion = 1

// Config keys.
const (
	KeyVersion       = "version"
	KeySiteURL       = "site_url"
	KeyHomeURL       = "home_url"
	KeyLocalDomains  = "local_domains"
	KeyConstants     = "constants"
	KeyLogFormat     = "log.format"
	KeyLogFile       = "log.file"
	KeyRuntimeProf   = "runtime.profile"
	KeyRuntimeBinary = "runtime.binary"
	KeyRuntimeTime   = "runtime.timeout"
	KeyServerSW      = "server.software"
	KeyNginxAliases  = "server.nginx_aliases"
	KeyApacheCtl     = "server.apachectl"
	KeyDiskPath      = "system.disk_path"
	KeyLoadThreshold = "system.load_threshold"
	KeyReqVersion    = "requirements.runtime_version"
	KeyReqExtensions = "requirements.extensions"
	KeyReqFunctions  = "requirements.functions"
	KeyReqMemory     = "requirements.memory"
	KeyReqDisk       = "requirements.disk_space"
)

// DefaultRuntimeTimeout bounds a live interpreter probe.
const DefaultRuntimeTimeout = 10 * time.Second

// Config represents the top-level configuration structure.
type Config struct {
	Version      int               `mapstructure:"version" yaml:"version"`
	SiteURL      string            `mapstructure:"site_url" yaml:"site_url,omitempty"`
	HomeURL      string            `mapstructure:"home_url" yaml:"home_url,omitempty"`
	LocalDomains []string          `mapstructure:"local_domains" yaml:"local_domains,omitempty"`
	Constants    map[string]string `mapstructure:"constants" yaml:"constants,omitempty"`
	Log          LogConfig         `mapstructure:"log" yaml:"log"`
	Runtime      RuntimeConfig     `mapstructure:"runtime" yaml:"runtime"`
	Server       ServerConfig      `mapstructure:"server" yaml:"server"`
	System       SystemConfig      `mapstructure:"system" yaml:"system"`
	Requirements Requirements      `mapstructure:"requirements" yaml:"requirements"`
}

// LogConfig controls log output.
type LogConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file,omitempty"`
}

// RuntimeConfig says where the interpreter snapshot comes from. A profile
// wins over probing the binary.
type RuntimeConfig struct {
	Profile string        `mapstructure:"profile" yaml:"profile,omitempty"`
	Binary  string        `mapstructure:"binary" yaml:"binary"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ServerConfig describes the web server when hostenv runs outside a
// request.
type ServerConfig struct {
	Software     string   `mapstructure:"software" yaml:"software,omitempty"`
	NginxAliases []string `mapstructure:"nginx_aliases" yaml:"nginx_aliases"`
	ApacheCtl    string   `mapstructure:"apachectl" yaml:"apachectl,omitempty"`
}

// SystemConfig tunes host checks.
type SystemConfig struct {
	DiskPath      string  `mapstructure:"disk_path" yaml:"disk_path"`
	LoadThreshold float64 `mapstructure:"load_threshold" yaml:"load_threshold"`
}

// Requirements are the minimums enforced by "hostenv doctor". Empty values
// are not checked.
type Requirements struct {
	RuntimeVersion string   `mapstructure:"runtime_version" yaml:"runtime_version,omitempty"`
	Extensions     []string `mapstructure:"extensions" yaml:"extensions,omitempty"`
	Functions      []string `mapstructure:"functions" yaml:"functions,omitempty"`
	Memory         string   `mapstructure:"memory" yaml:"memory,omitempty"`
	DiskSpace      string   `mapstructure:"disk_space" yaml:"disk_space,omitempty"`
}

// Init resets Viper and installs hostenv's search paths, environment
// binding and defaults. Call this once at application startup before
// accessing config values.
func Init() {
	viper.Reset()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(paths.ConfigDir())

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows; bind the rest so
	// Unmarshal sees HOSTENV_SITE_URL and friends.
	for _, key := range Keys() {
		if key != KeyConstants {
			_ = viper.BindEnv(key)
		}
	}

	for key, value := range defaults() {
		viper.SetDefault(key, value)
	}
}

func defaults() map[string]any {
	return map[string]any{
		KeyVersion:       CurrentVersion,
		KeyLogFormat:     "text",
		KeyRuntimeBinary: "php",
		KeyRuntimeTime:   DefaultRuntimeTimeout,
		KeyNginxAliases:  server.DefaultNginxAliases,
		KeyDiskPath:      "/",
		KeyLoadThreshold: system.DefaultLoadThreshold,
	}
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Log:     LogConfig{Format: "text"},
		Runtime: RuntimeConfig{Binary: "php", Timeout: DefaultRuntimeTimeout},
		Server:  ServerConfig{NginxAliases: append([]string(nil), server.DefaultNginxAliases...)},
		System:  SystemConfig{DiskPath: "/", LoadThreshold: system.DefaultLoadThreshold},
	}
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations and falls back to
// defaults when none exists. The result is validated.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && path == "":
			// implicit load without a file uses defaults
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			return nil, errors.WithHint(
				errors.Wrapf(errors.ErrNotFound, "config file %s", path),
				"run 'hostenv config path' to see where hostenv looks for its config",
			)
		default:
			return nil, errors.Wrap(errors.Mark(err, errors.ErrInvalidConfig), "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrInvalidConfig), "unmarshaling config")
	}

	if errs := Validate(&cfg); len(errs) > 0 {
		return &cfg, errors.Wrap(errors.Mark(errors.Join(errs...), errors.ErrInvalidConfig), "validating config")
	}
	return &cfg, nil
}

// Keys lists every known key in a stable order, for "hostenv config list".
func Keys() []string {
	return []string{
		KeyVersion, KeySiteURL, KeyHomeURL, KeyLocalDomains, KeyConstants,
		KeyLogFormat, KeyLogFile,
		KeyRuntimeProf, KeyRuntimeBinary, KeyRuntimeTime,
		KeyServerSW, KeyNginxAliases, KeyApacheCtl,
		KeyDiskPath, KeyLoadThreshold,
		KeyReqVersion, KeyReqExtensions, KeyReqFunctions, KeyReqMemory, KeyReqDisk,
	}
}

// KnownKey reports whether key is a hostenv setting or a constants.<NAME>
// entry.
func KnownKey(key string) bool {
	if name, ok := strings.CutPrefix(key, KeyConstants+"."); ok {
		return name != ""
	}
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// ParseValue converts a command-line value to the type stored under key.
// List keys take comma-separated values.
func ParseValue(key, value string) (any, error) {
	switch key {
	case KeyVersion:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidConfig, "%s must be an integer, got %q", key, value)
		}
		return n, nil
	case KeyLocalDomains, KeyNginxAliases, KeyReqExtensions, KeyReqFunctions:
		return SplitList(value), nil
	case KeyRuntimeTime:
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidConfig, "%s must be a duration such as 10s, got %q", key, value)
		}
		return d, nil
	case KeyLoadThreshold:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidConfig, "%s must be a number, got %q", key, value)
		}
		return f, nil
	case KeyConstants:
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrInvalidConfig, "%s is a map", key),
			"set a single constant with 'hostenv config set constants.NAME value'",
		)
	default:
		return value, nil
	}
}

// SplitList splits a comma-separated string, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Path returns the config file in use, or the default location when none
// was read.
func Path() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return paths.ConfigFile()
}

// Settings returns every setting as a nested map ready for YAML, with
// durations rendered as strings.
func Settings() map[string]any {
	return normalize(viper.AllSettings()).(map[string]any)
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case time.Duration:
		return t.String()
	default:
		return v
	}
}

// Save writes the current settings to path atomically, creating its
// directory. The extension of path picks YAML, JSON or TOML.
func Save(path string) error {
	if err := paths.EnsureDir(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	if err := fileutil.WriteDocument(path, Settings(), 0o600); err != nil {
		return errors.Wrap(err, "writing config file")
	}
	return nil
}
