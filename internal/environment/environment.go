// Package environment classifies the hosting environment a site runs in:
// localhost, staging, development or production, which managed hosting
// provider (if any) serves it, and whether it runs in a container or VM.
package environment

import (
	"log/slog"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/thoreinstein/hostenv/internal/settings"
)

// Type is an environment class.
type Type string

// Environment classes, in precedence order.
const (
	TypeLocalhost   Type = "localhost"
	TypeStaging     Type = "staging"
	TypeDevelopment Type = "development"
	TypeProduction  Type = "production"
)

// Setting names consulted by the classifier.
const (
	SettingWPEnv           = "WP_ENV"
	SettingEnvironmentType = "WP_ENVIRONMENT_TYPE"
	SettingDebug           = "WP_DEBUG"
)

// stagingVariables are checked, in order, for a staging value.
var stagingVariables = []string{"WP_ENV", "ENVIRONMENT", "APP_ENV", "WORDPRESS_ENV"}

var stagingValues = []string{"staging", "stage"}

// stagingSegments mark a staging host when they appear as a whole
// dot-delimited label (other than the TLD).
var stagingSegments = map[string]struct{}{
	"staging": {},
	"stage":   {},
	"dev":     {},
	"test":    {},
	"beta":    {},
	"demo":    {},
}

var localhostLiterals = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"::1":       {},
}

// DefaultLocalDomains are development hostnames treated as localhost.
var DefaultLocalDomains = []string{
	"localhost.localdomain",
	"local.wordpress.test",
	"local.wordpress-trunk.test",
	"wordpress.local",
}

var localSuffixes = []string{".test", ".local", ".dev"}

// Symbols reports which PHP functions and classes exist.
// *runtimeconfig.Config satisfies it.
type Symbols interface {
	HasFunction(name string) bool
	HasClass(name string) bool
}

// ServerVars exposes request superglobal keys. server.Vars satisfies it.
type ServerVars interface {
	Var(name string) (string, bool)
}

// Classifier answers environment questions for one site.
type Classifier struct {
	siteURL      string
	homeURL      string
	localDomains map[string]struct{}
	settings     settings.Source
	symbols      Symbols
	vars         ServerVars
	hostname     func() (string, error)
	root         string
	probes       []Probe
	logger       *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithSiteURL sets the site URL whose host is classified.
func WithSiteURL(u string) Option {
	return func(c *Classifier) { c.siteURL = u }
}

// WithHomeURL sets the home URL. It defaults to the site URL.
func WithHomeURL(u string) Option {
	return func(c *Classifier) { c.homeURL = u }
}

// WithLocalDomains adds hostnames that are always treated as localhost.
func WithLocalDomains(domains ...string) Option {
	return func(c *Classifier) {
		for _, d := range domains {
			if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
				c.localDomains[d] = struct{}{}
			}
		}
	}
}

// WithSettings sets the source for named settings such as WP_ENV.
func WithSettings(s settings.Source) Option {
	return func(c *Classifier) {
		if s != nil {
			c.settings = s
		}
	}
}

// WithSymbols sets the source of defined functions and classes.
func WithSymbols(s Symbols) Option {
	return func(c *Classifier) { c.symbols = s }
}

// WithServerVars sets the source of request superglobal keys.
func WithServerVars(v ServerVars) Option {
	return func(c *Classifier) { c.vars = v }
}

// WithHostname replaces the machine hostname lookup.
func WithHostname(fn func() (string, error)) Option {
	return func(c *Classifier) {
		if fn != nil {
			c.hostname = fn
		}
	}
}

// WithRoot resolves sentinel files (/.dockerenv, /proc, /sys) under dir
// instead of the filesystem root.
func WithRoot(dir string) Option {
	return func(c *Classifier) { c.root = dir }
}

// WithProbes replaces the hosting platform probe table.
func WithProbes(probes []Probe) Option {
	return func(c *Classifier) { c.probes = probes }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Classifier. Without options it reads settings from the
// process environment only and has no site URL, which classifies as
// localhost.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		localDomains: make(map[string]struct{}, len(DefaultLocalDomains)),
		settings:     settings.New(nil),
		hostname:     os.Hostname,
		root:         "/",
		probes:       DefaultProbes(),
		logger:       slog.Default(),
	}
	for _, d := range DefaultLocalDomains {
		c.localDomains[d] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SiteHost returns the lowercased host of the site URL.
func (c *Classifier) SiteHost() string {
	return hostOf(c.siteURL)
}

// HomeHost returns the lowercased host of the home URL, falling back to
// the site URL.
func (c *Classifier) HomeHost() string {
	if c.homeURL == "" {
		return c.SiteHost()
	}
	return hostOf(c.homeURL)
}

// IsLocalhost reports whether either the site or home host looks like a
// local development host.
//
// An IP literal in a private or reserved range counts as local. That is a
// heuristic: a LAN-only address is not loopback, and a public hostname that
// resolves to a private address is not detected. Non-IP hostnames are never
// subjected to the range check.
func (c *Classifier) IsLocalhost() bool {
	return c.isLocalHost(c.SiteHost()) || c.isLocalHost(c.HomeHost())
}

func (c *Classifier) isLocalHost(host string) bool {
	if host == "" {
		return true
	}
	if _, ok := localhostLiterals[host]; ok {
		return true
	}
	if _, ok := c.localDomains[host]; ok {
		return true
	}
	for _, suffix := range localSuffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	if addr, err := netip.ParseAddr(host); err == nil && !isGloballyRoutable(addr) {
		return true
	}
	return false
}

// IsStaging reports whether the site looks like a staging copy, by host
// name, by environment variable, or by WP_ENVIRONMENT_TYPE.
func (c *Classifier) IsStaging() bool {
	if hasStagingSegment(c.SiteHost()) {
		return true
	}
	for _, name := range stagingVariables {
		for _, want := range stagingValues {
			if settings.EqualFold(c.settings, name, want) {
				return true
			}
		}
	}
	return settings.Get(c.settings, SettingEnvironmentType) == "staging"
}

// IsDevelopment reports whether debugging is enabled or WP_ENV says
// development.
func (c *Classifier) IsDevelopment() bool {
	return settings.Bool(c.settings, SettingDebug) ||
		settings.EqualFold(c.settings, SettingWPEnv, "development")
}

// IsProduction reports whether no other class applies.
func (c *Classifier) IsProduction() bool {
	return !c.IsLocalhost() && !c.IsStaging() && !c.IsDevelopment()
}

// Type returns the environment class, checking localhost, staging and
// development in that order.
func (c *Classifier) Type() Type {
	switch {
	case c.IsLocalhost():
		return TypeLocalhost
	case c.IsStaging():
		return TypeStaging
	case c.IsDevelopment():
		return TypeDevelopment
	default:
		return TypeProduction
	}
}

// IsDocker reports whether the process runs inside a Docker container.
func (c *Classifier) IsDocker() bool {
	if fileExists(c.path("/.dockerenv")) {
		return true
	}
	data, err := os.ReadFile(c.path("/proc/self/cgroup"))
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "docker")
}

// vmDescriptionFiles may name the hypervisor on a virtual machine.
var vmDescriptionFiles = []string{
	"/sys/class/dmi/id/product_name",
	"/sys/class/dmi/id/sys_vendor",
	"/sys/class/dmi/id/board_vendor",
	"/sys/hypervisor/type",
}

var hypervisorNames = []string{
	"vmware",
	"virtualbox",
	"kvm",
	"qemu",
	"xen",
	"hyper-v",
	"virtual machine",
	"parallels",
	"bochs",
	"bhyve",
}

// IsVirtualMachine reports whether a DMI or hypervisor description file
// names a known hypervisor.
func (c *Classifier) IsVirtualMachine() bool {
	for _, f := range vmDescriptionFiles {
		data, err := os.ReadFile(c.path(f))
		if err != nil {
			continue
		}
		desc := strings.ToLower(string(data))
		for _, name := range hypervisorNames {
			if strings.Contains(desc, name) {
				c.logger.Debug("hypervisor detected", "file", f, "match", name)
				return true
			}
		}
	}
	return false
}

// Info summarises the classification.
type Info struct {
	Type            Type   `json:"type" yaml:"type"`
	SiteHost        string `json:"site_host" yaml:"site_host"`
	HostingPlatform string `json:"hosting_platform,omitempty" yaml:"hosting_platform,omitempty"`
	Docker          bool   `json:"docker" yaml:"docker"`
	VirtualMachine  bool   `json:"virtual_machine" yaml:"virtual_machine"`
}

// Info gathers every classification into one value.
func (c *Classifier) Info() Info {
	platform, _ := c.HostingPlatform()
	return Info{
		Type:            c.Type(),
		SiteHost:        c.SiteHost(),
		HostingPlatform: platform,
		Docker:          c.IsDocker(),
		VirtualMachine:  c.IsVirtualMachine(),
	}
}

func (c *Classifier) path(p string) string {
	if c.root == "" || c.root == "/" {
		return p
	}
	return filepath.Join(c.root, filepath.FromSlash(p))
}

// hostOf extracts the lowercased host from a URL. A bare host or bare IP
// literal is accepted.
func hostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	// "::1" would otherwise parse as host ":" with port 1
	if addr, err := netip.ParseAddr(raw); err == nil {
		return strings.ToLower(addr.String())
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func hasStagingSegment(host string) bool {
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels[:len(labels)-1] {
		if _, ok := stagingSegments[label]; ok {
			return true
		}
		if strings.HasPrefix(label, "staging-") {
			return true
		}
	}
	return false
}

// nonRoutable lists the private and reserved ranges.
var nonRoutable = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("::/128"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
}

func isGloballyRoutable(addr netip.Addr) bool {
	addr = addr.Unmap().WithZone("")
	for _, p := range nonRoutable {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
