package wellness

import (
	"net/url"
	"strings"
)

// Platform identifies a recognized social platform by its domain.
type Platform struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

func defaultRegistry() []Platform {
	return []Platform{
		{Name: "Instagram", Domain: "instagram.com"},
		{Name: "TikTok", Domain: "tiktok.com"},
		{Name: "YouTube", Domain: "youtube.com"},
		{Name: "X", Domain: "x.com"},
		{Name: "Twitter", Domain: "twitter.com"},
		{Name: "Facebook", Domain: "facebook.com"},
		{Name: "Reddit", Domain: "reddit.com"},
		{Name: "Snapchat", Domain: "snapchat.com"},
		{Name: "LinkedIn", Domain: "linkedin.com"},
		{Name: "Pinterest", Domain: "pinterest.com"},
		{Name: "Twitch", Domain: "twitch.tv"},
	}
}

// hostOf extracts the host from a URL, tolerating bare hosts.
func hostOf(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return strings.ToLower(u.Host)
	}
	host := strings.ToLower(raw)
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host
}

// domainMatches reports whether host is domain or a subdomain of it.
func domainMatches(host, domain string) bool {
	host = strings.TrimPrefix(host, "www.")
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func matchPlatform(host string, registry []Platform) (Platform, bool) {
	for _, p := range registry {
		if domainMatches(host, p.Domain) {
			return p, true
		}
	}
	return Platform{}, false
}

func isWhitelisted(host string, whitelist []string) bool {
	for _, w := range whitelist {
		if domainMatches(host, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
