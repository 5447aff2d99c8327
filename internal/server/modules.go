package server

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/thoreinstein/hostenv/internal/errors"
)

// ModRewrite is the canonical name of Apache's rewrite module.
const ModRewrite = "mod_rewrite"

// DefaultApacheCtlTimeout bounds an apachectl invocation when the context
// has no deadline.
const DefaultApacheCtlTimeout = 5 * time.Second

// ModuleLister lists loaded Apache modules by their mod_* names.
type ModuleLister interface {
	Modules(ctx context.Context) ([]string, error)
}

// StaticModules is a fixed module list.
type StaticModules []string

// Modules implements ModuleLister.
func (s StaticModules) Modules(context.Context) ([]string, error) {
	return []string(s), nil
}

// ApacheCtl lists modules by running "apachectl -M".
type ApacheCtl struct {
	// Binary is the apachectl executable. Defaults to "apachectl".
	Binary string

	// Timeout bounds the command when ctx has no deadline.
	Timeout time.Duration
}

// Modules implements ModuleLister.
func (a ApacheCtl) Modules(ctx context.Context) ([]string, error) {
	bin := a.Binary
	if bin == "" {
		bin = "apachectl"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrNotFound, "apachectl binary %q", bin),
			"set server.apachectl to the full path of apachectl or apache2ctl",
		)
	}

	if _, ok := ctx.Deadline(); !ok {
		timeout := a.Timeout
		if timeout <= 0 {
			timeout = DefaultApacheCtlTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx, path, "-M").Output()
	if err != nil {
		return nil, errors.Wrapf(err, "running %s -M", path)
	}
	return parseModuleList(out), nil
}

// parseModuleList reads "apachectl -M" output, one " name_module (type)"
// per line, and returns mod_* names in listing order.
func parseModuleList(out []byte) []string {
	mods := []string{}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		name, ok := strings.CutSuffix(fields[0], "_module")
		if !ok || name == "" {
			continue
		}
		mods = append(mods, "mod_"+name)
	}
	return mods
}
