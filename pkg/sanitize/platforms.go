package sanitize

import (
	"errors"
	"net/url"
	"sort"
	"strings"
)

var (
	ErrUnknownPlatform = errors.New("unsupported platform")
	ErrSocialURL       = errors.New("must be an https link to your profile on that platform")
)

// Platform describes a social network accepted for creator links.
type Platform struct {
	Key     string
	Name    string
	Domains []string
	// ProfileURL is a format string taking the handle, e.g. "https://www.instagram.com/%s".
	ProfileURL string
}

// Platforms is an immutable registry built once at startup and passed to
// whatever needs to validate social links.
type Platforms struct {
	byKey map[string]Platform
	keys  []string
}

// NewPlatforms copies the given platforms into a registry.
func NewPlatforms(list ...Platform) *Platforms {
	p := &Platforms{byKey: make(map[string]Platform, len(list))}
	for _, pl := range list {
		domains := make([]string, len(pl.Domains))
		for i, d := range pl.Domains {
			domains[i] = strings.ToLower(strings.TrimSuffix(d, "."))
		}
		pl.Domains = domains
		p.byKey[pl.Key] = pl
		p.keys = append(p.keys, pl.Key)
	}
	sort.Strings(p.keys)
	return p
}

// DefaultPlatforms returns the platforms the marketplace supports.
func DefaultPlatforms() *Platforms {
	return NewPlatforms(
		Platform{Key: "instagram", Name: "Instagram", Domains: []string{"instagram.com"}, ProfileURL: "https://www.instagram.com/%s"},
		Platform{Key: "tiktok", Name: "TikTok", Domains: []string{"tiktok.com"}, ProfileURL: "https://www.tiktok.com/@%s"},
		Platform{Key: "youtube", Name: "YouTube", Domains: []string{"youtube.com", "youtu.be"}, ProfileURL: "https://www.youtube.com/%s"},
		Platform{Key: "twitter", Name: "X", Domains: []string{"twitter.com", "x.com"}, ProfileURL: "https://x.com/%s"},
	)
}

// Get returns the platform for key.
func (p *Platforms) Get(key string) (Platform, bool) {
	pl, ok := p.byKey[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Platform{}, false
	}
	out := pl
	out.Domains = append([]string(nil), pl.Domains...)
	return out, true
}

// Keys returns the platform keys in sorted order.
func (p *Platforms) Keys() []string {
	return append([]string(nil), p.keys...)
}

// SocialURL validates raw as a profile link for platform and returns it normalized.
// Only https is accepted and the hostname must equal, or be a subdomain of,
// one of the platform's domains.
func (p *Platforms) SocialURL(platform, raw string) (string, error) {
	pl, ok := p.byKey[strings.ToLower(strings.TrimSpace(platform))]
	if !ok {
		return "", ErrUnknownPlatform
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme != "https" || u.User != nil || u.Opaque != "" {
		return "", ErrSocialURL
	}
	if port := u.Port(); port != "" && port != "443" {
		return "", ErrSocialURL
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" || !hostAllowed(host, pl.Domains) {
		return "", ErrSocialURL
	}
	u.Host = host
	u.Fragment, u.RawFragment = "", ""
	return u.String(), nil
}

func hostAllowed(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
