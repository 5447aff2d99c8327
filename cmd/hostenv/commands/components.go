package commands

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/thoreinstein/hostenv/internal/config"
	"github.com/thoreinstein/hostenv/internal/environment"
	"github.com/thoreinstein/hostenv/internal/errors"
	"github.com/thoreinstein/hostenv/internal/paths"
	"github.com/thoreinstein/hostenv/internal/runtimeconfig"
	"github.com/thoreinstein/hostenv/internal/server"
	"github.com/thoreinstein/hostenv/internal/settings"
	"github.com/thoreinstein/hostenv/internal/system"
)

// components holds the four inspectors built from one config. runtime is
// nil when no snapshot could be obtained; runtimeErr then says why.
type components struct {
	runtime       *runtimeconfig.Config
	runtimeSource string
	runtimeErr    error
	env           *environment.Classifier
	server        *server.Identity
	system        *system.System
	constants     map[string]string
}

// runtimeSnapshot returns the interpreter snapshot named by c: the
// configured profile, else a previously captured default profile, else a
// live probe of the php binary. live skips both profiles.
func runtimeSnapshot(ctx context.Context, c *config.Config, live bool) (*runtimeconfig.Snapshot, string, error) {
	if !live {
		if c.Runtime.Profile != "" {
			snap, err := runtimeconfig.LoadProfile(c.Runtime.Profile)
			if err != nil {
				return nil, "", errors.WithHint(err, "fix runtime.profile or run 'hostenv runtime capture'")
			}
			return snap, c.Runtime.Profile, nil
		}
		if p := paths.DefaultProfilePath(); fileExists(p) {
			snap, err := runtimeconfig.LoadProfile(p)
			if err == nil {
				return snap, p, nil
			}
			slog.Default().Debug("ignoring captured profile", "path", p, "error", err)
		}
	}

	timeout := c.Runtime.Timeout
	if timeout <= 0 {
		timeout = config.DefaultRuntimeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	snap, err := runtimeconfig.Probe(ctx, c.Runtime.Binary)
	if err != nil {
		return nil, "", err
	}
	return snap, "probe:" + c.Runtime.Binary, nil
}

// constantsFrom restores the conventional upper-case constant names that
// viper lowercases when reading the config.
func constantsFrom(c *config.Config) map[string]string {
	out := make(map[string]string, len(c.Constants))
	for k, v := range c.Constants {
		out[strings.ToUpper(k)] = v
	}
	return out
}

// serverVars layers the configured software string over the process
// environment.
func serverVars(c *config.Config) server.Vars {
	if c.Server.Software == "" {
		return server.EnvVars{}
	}
	return server.ChainVars{
		server.MapVars{server.VarServerSoftware: c.Server.Software},
		server.EnvVars{},
	}
}

// buildComponents wires the inspectors for c. A missing interpreter is not
// an error here: runtime stays nil and runtimeErr records why.
func buildComponents(ctx context.Context, c *config.Config, logger *slog.Logger) *components {
	comp := &components{constants: constantsFrom(c)}

	snap, source, err := runtimeSnapshot(ctx, c, false)
	if err != nil {
		logger.Debug("runtime snapshot unavailable", "error", err)
		comp.runtimeErr = err
	} else {
		comp.runtime = runtimeconfig.New(snap, runtimeconfig.WithLogger(logger))
		comp.runtimeSource = source
	}

	vars := serverVars(c)

	serverOpts := []server.Option{
		server.WithVars(vars),
		server.WithNginxAliases(c.Server.NginxAliases...),
		server.WithModuleLister(server.ApacheCtl{Binary: c.Server.ApacheCtl}),
		server.WithLogger(logger),
	}
	envOpts := []environment.Option{
		environment.WithSiteURL(c.SiteURL),
		environment.WithHomeURL(c.HomeURL),
		environment.WithLocalDomains(c.LocalDomains...),
		environment.WithSettings(settings.New(comp.constants)),
		environment.WithServerVars(vars),
		environment.WithLogger(logger),
	}
	if comp.runtime != nil {
		serverOpts = append(serverOpts, server.WithCapabilities(comp.runtime))
		envOpts = append(envOpts, environment.WithSymbols(comp.runtime))
	}

	comp.server = server.New(serverOpts...)
	comp.env = environment.New(envOpts...)
	comp.system = system.New(system.WithLogger(logger))
	return comp
}

// runtimeError maps a failure to obtain a snapshot to an exit error. A
// missing binary or profile is the user's to fix.
func runtimeError(err error) error {
	if errors.Is(err, errors.ErrNotFound) || errors.Is(err, errors.ErrInvalidConfig) {
		return errors.NewUserError(err, errors.FlattenHints(err))
	}
	return errors.NewSystemError(err, "check runtime.binary and runtime.timeout")
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
