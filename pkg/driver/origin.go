package driver

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// OriginPolicy decides which origins pages may load, using glob patterns
// such as "https://*.example.com" or "localhost:*".
type OriginPolicy struct {
	allowed []glob.Glob
	blocked []glob.Glob
}

// NewOriginPolicy compiles the allow and block lists.
func NewOriginPolicy(allowed, blocked []string) (*OriginPolicy, error) {
	p := &OriginPolicy{}

	for _, pattern := range allowed {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed origin '%s': %w", pattern, err)
		}
		p.allowed = append(p.allowed, g)
	}

	for _, pattern := range blocked {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid blocked origin '%s': %w", pattern, err)
		}
		p.blocked = append(p.blocked, g)
	}

	return p, nil
}

// Empty reports whether the policy allows everything.
func (p *OriginPolicy) Empty() bool {
	return p == nil || (len(p.allowed) == 0 && len(p.blocked) == 0)
}

// Allows reports whether rawURL may be loaded. URLs without a network
// origin (about:, data:, blob:) are always allowed. A pattern matches if it
// matches either the origin ("https://host:port") or the bare host.
func (p *OriginPolicy) Allows(rawURL string) bool {
	if p.Empty() {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" && scheme != "ws" && scheme != "wss" {
		return true
	}

	origin := scheme + "://" + strings.ToLower(u.Host)
	host := strings.ToLower(u.Host)
	matches := func(g glob.Glob) bool {
		return g.Match(origin) || g.Match(host)
	}

	// Blocked patterns take precedence
	for _, g := range p.blocked {
		if matches(g) {
			return false
		}
	}

	if len(p.allowed) == 0 {
		return true
	}

	for _, g := range p.allowed {
		if matches(g) {
			return true
		}
	}
	return false
}

// Check returns an error naming the origin when rawURL is not allowed.
func (p *OriginPolicy) Check(rawURL string) error {
	if p.Allows(rawURL) {
		return nil
	}
	return fmt.Errorf("access to %s is blocked by the network origin policy", rawURL)
}
