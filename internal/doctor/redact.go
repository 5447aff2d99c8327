package doctor

import (
	"net/url"
	"strings"
)

// SecretKeyPatterns are substrings of setting names whose values must not
// be printed. Matching is case-insensitive. WordPress salts (AUTH_KEY,
// NONCE_SALT, ...) and database credentials fall under these.
var SecretKeyPatterns = []string{
	"TOKEN",
	"KEY",
	"SECRET",
	"PASSWORD",
	"AUTH",
	"CREDENTIAL",
	"SALT",
	"NONCE",
	"PRIVATE",
}

// TokenPrefixes are value prefixes of well-known API tokens, masked
// regardless of the key they appear under.
var TokenPrefixes = []string{
	"ghp_",   // GitHub personal access token
	"gho_",   // GitHub OAuth token
	"ghu_",   // GitHub user-to-server token
	"ghs_",   // GitHub server-to-server token
	"ghr_",   // GitHub refresh token
	"glpat-", // GitLab personal access token
	"sk-",    // secret API keys
	"pk-",    // publishable keys that still shouldn't be printed
	"AKIA",   // AWS access key
	"xoxb-",  // Slack bot token
	"xoxp-",  // Slack user token
	"xoxa-",  // Slack app token
	"xoxr-",  // Slack refresh token
}

// MaskSecrets returns a copy of settings with sensitive values masked.
// A value is sensitive when its key matches SecretKeyPatterns or the value
// starts with a TokenPrefixes entry. URLs with embedded passwords keep
// everything but the password.
func MaskSecrets(settings map[string]string) map[string]string {
	if settings == nil {
		return nil
	}

	masked := make(map[string]string, len(settings))
	for k, v := range settings {
		switch {
		case ShouldMask(k) || ContainsTokenPrefix(v):
			masked[k] = MaskValue(v)
		case strings.Contains(v, "://"):
			masked[k] = MaskURL(v)
		default:
			masked[k] = v
		}
	}
	return masked
}

// MaskValue masks a sensitive string. Values of 4 or fewer bytes become
// "********"; longer values keep their last 4 bytes: "****xxxx".
func MaskValue(value string) string {
	if len(value) <= 4 {
		return "********"
	}
	return "****" + value[len(value)-4:]
}

// MaskURL masks the password of a URL with user info
// (mysql://user:****word@db). Unparseable URLs are returned unchanged.
func MaskURL(rawURL string) string {
	if rawURL == "" {
		return rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.User == nil {
		return rawURL
	}

	password, ok := parsed.User.Password()
	if !ok || password == "" {
		return rawURL
	}

	parsed.User = url.UserPassword(parsed.User.Username(), MaskValue(password))
	return parsed.String()
}

// ShouldMask reports whether key names a sensitive setting.
func ShouldMask(key string) bool {
	upper := strings.ToUpper(key)
	for _, pattern := range SecretKeyPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}

// ContainsTokenPrefix reports whether value starts with a known token
// prefix.
func ContainsTokenPrefix(value string) bool {
	for _, prefix := range TokenPrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
