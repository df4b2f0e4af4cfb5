package api

import "strings"

// OriginPolicy decides which browser origins may open WebSockets.
// Entries match exactly, or by prefix when they end in "*".
type OriginPolicy struct {
	exact    map[string]bool
	prefixes []string
}

// DefaultAllowedOrigins is used when no origins are configured.
var DefaultAllowedOrigins = []string{
	"http://localhost:*",
	"http://127.0.0.1:*",
}

// NewOriginPolicy builds a policy from origin patterns.
func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{exact: make(map[string]bool)}
	for _, o := range origins {
		if prefix, ok := strings.CutSuffix(o, "*"); ok {
			p.prefixes = append(p.prefixes, prefix)
			continue
		}
		p.exact[o] = true
	}
	return p
}

// Allowed checks if an origin matches the policy. Requests without an
// Origin header come from non-browser clients and are allowed.
func (p *OriginPolicy) Allowed(origin string) bool {
	if origin == "" || p.exact[origin] {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}
