package environment

import (
	"strings"

	"github.com/thoreinstein/hostenv/internal/settings"
)

// Probe detects one managed hosting provider.
type Probe struct {
	// Name is the provider's display name.
	Name string

	// Detect reports whether the provider's fingerprint is present.
	Detect func(c *Classifier) bool
}

// DefaultProbes returns the built-in provider probes in evaluation order.
// The first match wins, so more specific providers come first.
func DefaultProbes() []Probe {
	return []Probe{
		{Name: "WP Engine", Detect: func(c *Classifier) bool {
			return c.Defined("WPE_APIKEY") || c.HasFunction("is_wpe") || c.HostnameContains("wpengine")
		}},
		{Name: "Kinsta", Detect: func(c *Classifier) bool {
			return c.Defined("KINSTAMU_VERSION") || c.HasVar("KINSTA_CACHE_ZONE")
		}},
		{Name: "WordPress VIP", Detect: func(c *Classifier) bool {
			return c.Defined("WPCOM_IS_VIP_ENV") || c.Defined("VIP_GO_APP_ENVIRONMENT")
		}},
		{Name: "WordPress.com", Detect: func(c *Classifier) bool {
			return c.Defined("IS_WPCOM") || c.Defined("IS_ATOMIC") || c.Defined("ATOMIC_SITE_ID")
		}},
		{Name: "Pantheon", Detect: func(c *Classifier) bool {
			return c.Defined("PANTHEON_ENVIRONMENT")
		}},
		{Name: "Flywheel", Detect: func(c *Classifier) bool {
			return c.Defined("FLYWHEEL_CONFIG_DIR") || c.Defined("FLYWHEEL_PLUGIN_DIR")
		}},
		{Name: "Pressable", Detect: func(c *Classifier) bool {
			return c.Defined("IS_PRESSABLE")
		}},
		{Name: "Pagely", Detect: func(c *Classifier) bool {
			return c.Defined("PAGELYBIN") || c.HasClass("PagelyCachePurge")
		}},
		{Name: "GoDaddy", Detect: func(c *Classifier) bool {
			return c.Defined("GD_SYSTEM_PLUGIN_DIR") || c.HasClass(`WPaaS\Plugin`)
		}},
		{Name: "SiteGround", Detect: func(c *Classifier) bool {
			return c.HasClass(`SiteGround_Optimizer\Loader\Loader`) || c.HostnameContains("siteground")
		}},
		{Name: "Cloudways", Detect: func(c *Classifier) bool {
			return c.HasVar("cw_allowed_ip") || c.HostnameContains("cloudwaysapps.com")
		}},
		{Name: "Bluehost", Detect: func(c *Classifier) bool {
			return c.Defined("BLUEHOST_PLUGIN_VERSION") || c.HostnameContains("bluehost")
		}},
		{Name: "DreamHost", Detect: func(c *Classifier) bool {
			return c.HostnameContains("dreamhost")
		}},
		{Name: "Platform.sh", Detect: func(c *Classifier) bool {
			return c.Defined("PLATFORM_APPLICATION")
		}},
		{Name: "Heroku", Detect: func(c *Classifier) bool {
			return c.Defined("DYNO")
		}},
	}
}

// HostingPlatform returns the name of the first probe that matches.
func (c *Classifier) HostingPlatform() (string, bool) {
	for _, p := range c.probes {
		if p.Detect != nil && p.Detect(c) {
			c.logger.Debug("hosting platform detected", "platform", p.Name)
			return p.Name, true
		}
	}
	return "", false
}

// Defined reports whether a named setting (environment variable or
// constant) is defined.
func (c *Classifier) Defined(name string) bool {
	return settings.Defined(c.settings, name)
}

// HasVar reports whether a request superglobal key is present.
func (c *Classifier) HasVar(name string) bool {
	if c.vars == nil {
		return false
	}
	_, ok := c.vars.Var(name)
	return ok
}

// HasFunction reports whether a PHP function is defined.
func (c *Classifier) HasFunction(name string) bool {
	return c.symbols != nil && c.symbols.HasFunction(name)
}

// HasClass reports whether a PHP class is declared.
func (c *Classifier) HasClass(name string) bool {
	return c.symbols != nil && c.symbols.HasClass(name)
}

// HostnameContains reports whether the machine hostname or the site host
// contains sub, ignoring case.
func (c *Classifier) HostnameContains(sub string) bool {
	sub = strings.ToLower(sub)
	if h, ok := c.Hostname(); ok && strings.Contains(strings.ToLower(h), sub) {
		return true
	}
	return strings.Contains(c.SiteHost(), sub)
}

// Hostname returns the machine hostname.
func (c *Classifier) Hostname() (string, bool) {
	h, err := c.hostname()
	if err != nil || h == "" {
		return "", false
	}
	return h, true
}
