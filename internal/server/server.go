// Package server identifies the web server in front of the site from its
// advertised software string and request metadata, and infers what it can
// do: URL rewriting, .htaccess support, compression.
package server

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"unicode"
)

// Type is a web server family.
type Type string

// Server families, in detection order.
const (
	TypeApache    Type = "Apache"
	TypeNginx     Type = "Nginx"
	TypeLiteSpeed Type = "LiteSpeed"
	TypeIIS       Type = "IIS"
	TypeUnknown   Type = "Unknown"
)

// Request keys consulted by Identity.
const (
	VarServerSoftware      = "SERVER_SOFTWARE"
	VarCFRay               = "HTTP_CF_RAY"
	VarCFConnectingIP      = "HTTP_CF_CONNECTING_IP"
	VarModRewrite          = "HTTP_MOD_REWRITE"
	VarRedirectModRewrite  = "REDIRECT_HTTP_MOD_REWRITE"
	VarIISURLRewriteModule = "IIS_UrlRewriteModule"
)

// DefaultNginxAliases are software strings of managed hosts that run nginx
// under their own brand.
var DefaultNginxAliases = []string{"flywheel"}

// Capabilities reports runtime extensions and functions.
// *runtimeconfig.Config satisfies it.
type Capabilities interface {
	HasExtension(name string) bool
	HasFunction(name string) bool
}

// Info is the detected server family together with the raw software string.
type Info struct {
	Type     Type   `json:"type" yaml:"type"`
	Software string `json:"software" yaml:"software"`
}

// Identity answers questions about the web server. The software string and
// the Apache module listing are read once and cached until ResetCache.
type Identity struct {
	vars    Vars
	aliases []string
	lister  ModuleLister
	caps    Capabilities
	logger  *slog.Logger

	mu       sync.Mutex
	software string
	loaded   bool

	// separate from mu so a slow listing does not block Software
	modMu      sync.Mutex
	modules    []string
	modulesOK  bool
	modsLoaded bool
}

// Option configures an Identity.
type Option func(*Identity)

// WithVars sets the request metadata source. The default is EnvVars.
func WithVars(v Vars) Option {
	return func(i *Identity) {
		if v != nil {
			i.vars = v
		}
	}
}

// WithNginxAliases replaces the rebrand substrings that also count as nginx.
func WithNginxAliases(aliases ...string) Option {
	return func(i *Identity) {
		i.aliases = i.aliases[:0]
		for _, a := range aliases {
			if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
				i.aliases = append(i.aliases, a)
			}
		}
	}
}

// WithModuleLister sets the source of loaded Apache modules.
func WithModuleLister(l ModuleLister) Option {
	return func(i *Identity) { i.lister = l }
}

// WithCapabilities sets the runtime capability source used for compression
// support.
func WithCapabilities(c Capabilities) Option {
	return func(i *Identity) { i.caps = c }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(i *Identity) {
		if l != nil {
			i.logger = l
		}
	}
}

// New returns an Identity.
func New(opts ...Option) *Identity {
	i := &Identity{
		vars:    EnvVars{},
		aliases: slices.Clone(DefaultNginxAliases),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

var defaultIdentity = sync.OnceValue(func() *Identity { return New() })

// Default returns the process-wide Identity backed by the environment.
func Default() *Identity {
	return defaultIdentity()
}

// Software returns the advertised server software with control characters
// removed, or "" when none is advertised.
func (i *Identity) Software() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.loaded {
		raw, _ := i.vars.Var(VarServerSoftware)
		i.software = sanitize(raw)
		i.loaded = true
	}
	return i.software
}

// ResetCache forgets the cached software string and module listing.
func (i *Identity) ResetCache() {
	i.mu.Lock()
	i.software = ""
	i.loaded = false
	i.mu.Unlock()

	i.modMu.Lock()
	i.modules, i.modulesOK, i.modsLoaded = nil, false, false
	i.modMu.Unlock()
}

func sanitize(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s))
}

func (i *Identity) softwareContains(subs ...string) bool {
	sw := strings.ToLower(i.Software())
	for _, s := range subs {
		if strings.Contains(sw, s) {
			return true
		}
	}
	return false
}

// IsApache reports whether the software string names Apache.
func (i *Identity) IsApache() bool {
	return i.softwareContains("apache")
}

// IsNginx reports whether the software string names nginx or a known
// rebrand of it.
func (i *Identity) IsNginx() bool {
	return i.softwareContains("nginx") || i.softwareContains(i.aliases...)
}

// IsLiteSpeed reports whether the software string names LiteSpeed.
func (i *Identity) IsLiteSpeed() bool {
	return i.softwareContains("litespeed")
}

// IsIIS reports whether the software string names Microsoft IIS or its
// development server.
func (i *Identity) IsIIS() bool {
	return i.softwareContains("microsoft-iis", "expressiondevelopmentserver")
}

// typeTable is evaluated in order; the first match names the family.
var typeTable = []struct {
	typ   Type
	match func(*Identity) bool
}{
	{TypeApache, (*Identity).IsApache},
	{TypeNginx, (*Identity).IsNginx},
	{TypeLiteSpeed, (*Identity).IsLiteSpeed},
	{TypeIIS, (*Identity).IsIIS},
}

// Type returns the server family.
func (i *Identity) Type() Type {
	for _, row := range typeTable {
		if row.match(i) {
			return row.typ
		}
	}
	return TypeUnknown
}

// Info returns the family and software string.
func (i *Identity) Info() Info {
	return Info{Type: i.Type(), Software: i.Software()}
}

// IsCloudflare reports whether the request came through Cloudflare.
func (i *Identity) IsCloudflare() bool {
	return i.hasVar(VarCFRay) || i.hasVar(VarCFConnectingIP)
}

func (i *Identity) hasVar(name string) bool {
	_, ok := i.vars.Var(name)
	return ok
}

// HasModRewrite reports whether Apache has mod_rewrite loaded. With a
// module lister the listing is authoritative; without one, or when listing
// fails, the rewrite marker variables set by mod_rewrite are consulted.
func (i *Identity) HasModRewrite() bool {
	if !i.IsApache() {
		return false
	}
	if mods, ok := i.listModules(); ok {
		return slices.Contains(mods, ModRewrite)
	}
	for _, name := range []string{VarModRewrite, VarRedirectModRewrite} {
		if v, ok := i.vars.Var(name); ok && strings.EqualFold(v, "on") {
			i.logger.Debug("mod_rewrite inferred from environment", "var", name)
			return true
		}
	}
	return false
}

// SupportsHtaccess reports whether .htaccess rewrite rules take effect.
func (i *Identity) SupportsHtaccess() bool {
	return i.IsApache() && i.HasModRewrite()
}

// SupportsURLRewriting reports whether pretty permalinks can work.
// Nginx and LiteSpeed are assumed capable.
func (i *Identity) SupportsURLRewriting() bool {
	switch i.Type() {
	case TypeApache:
		return i.HasModRewrite()
	case TypeNginx, TypeLiteSpeed:
		return true
	case TypeIIS:
		return i.hasVar(VarIISURLRewriteModule)
	default:
		return false
	}
}

// SupportsGzip reports whether the runtime can gzip responses.
func (i *Identity) SupportsGzip() bool {
	return i.caps != nil && (i.caps.HasExtension("zlib") || i.caps.HasFunction("gzencode"))
}

// SupportsBrotli reports whether the runtime can brotli-compress responses.
func (i *Identity) SupportsBrotli() bool {
	return i.caps != nil && (i.caps.HasExtension("brotli") || i.caps.HasFunction("brotli_compress"))
}

// ApacheModules returns the loaded Apache modules. It is absent unless the
// server is Apache and a lister is configured and succeeds.
func (i *Identity) ApacheModules() ([]string, bool) {
	if !i.IsApache() {
		return nil, false
	}
	return i.listModules()
}

// listModules runs the lister at most once per cache lifetime. A failed
// listing is cached too.
func (i *Identity) listModules() ([]string, bool) {
	if i.lister == nil {
		return nil, false
	}
	i.modMu.Lock()
	defer i.modMu.Unlock()
	if !i.modsLoaded {
		mods, err := i.lister.Modules(context.Background())
		if err != nil {
			i.logger.Debug("listing apache modules failed", "error", err)
		}
		i.modules, i.modulesOK, i.modsLoaded = mods, err == nil, true
	}
	if !i.modulesOK {
		return nil, false
	}
	return slices.Clone(i.modules), true
}
