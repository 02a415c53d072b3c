package widget

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

// ErrInvalidOrigin is returned for values that are not http(s) origins.
var ErrInvalidOrigin = errors.New("widget: invalid origin")

// NormalizeOrigin reduces a URL or origin to scheme://host[:port] with a
// lowercase ASCII host and the default port dropped.
func NormalizeOrigin(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrigin, raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOrigin, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q", ErrInvalidOrigin, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidOrigin, raw)
	}
	if !strings.Contains(host, ":") {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", fmt.Errorf("%w: host %q: %v", ErrInvalidOrigin, host, err)
		}
		host = ascii
	} else {
		host = "[" + strings.ToLower(host) + "]"
	}
	host = strings.ToLower(host)

	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		return scheme + "://" + host + ":" + port, nil
	}
	return scheme + "://" + host, nil
}

// OriginPolicy is the set of origins a widget accepts messages from.
type OriginPolicy struct {
	allowed map[string]struct{}
}

// NewOriginPolicy normalizes every origin; any invalid entry is an error.
func NewOriginPolicy(origins ...string) (*OriginPolicy, error) {
	p := &OriginPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		n, err := NormalizeOrigin(o)
		if err != nil {
			return nil, err
		}
		p.allowed[n] = struct{}{}
	}
	return p, nil
}

// Allows reports whether messages from origin are accepted.
func (p *OriginPolicy) Allows(origin string) bool {
	if p == nil {
		return false
	}
	n, err := NormalizeOrigin(origin)
	if err != nil {
		return false
	}
	_, ok := p.allowed[n]
	return ok
}

// Origins lists the normalized allow-list in sorted order.
func (p *OriginPolicy) Origins() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.allowed))
	for o := range p.allowed {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}
