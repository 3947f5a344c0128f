// Package safety decides whether a link points somewhere it should not:
// private or reserved networks, denylisted host markers, or prohibited
// content. Everything here is pure and performs no network access.
package safety

import (
	"net/netip"
	"strings"
)

// DefaultHostDenylist holds host substrings that mark a domain unsafe.
var DefaultHostDenylist = []string{
	"sandbox",
	"internal",
	"intranet",
	".corp",
	".lan",
	".local",
	".home.arpa",
}

// DefaultContentDenylist holds substrings that make a URL prohibited.
var DefaultContentDenylist = []string{
	"porn",
	"xxx",
	"casino",
	"betting",
	"viagra",
}

// reserved lists address blocks not covered by the netip predicates.
var reserved = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("64:ff9b:1::/48"),
	netip.MustParsePrefix("100::/64"),
	netip.MustParsePrefix("2001::/23"),
	netip.MustParsePrefix("2001:db8::/32"),
}

// Classifier holds the denylists. The zero value only blocks addresses.
type Classifier struct {
	hosts   []string
	content []string
}

// New returns a Classifier with the given denylists. Entries are matched
// case-insensitively; blank entries are ignored.
func New(hostDenylist, contentDenylist []string) *Classifier {
	return &Classifier{
		hosts:   lowerAll(hostDenylist),
		content: lowerAll(contentDenylist),
	}
}

// Default returns a Classifier using the default denylists.
func Default() *Classifier {
	return New(DefaultHostDenylist, DefaultContentDenylist)
}

// IsUnsafeDomain reports whether host is loopback, private, link-local,
// reserved, or carries a denylisted marker. host must not include a port.
func (c *Classifier) IsUnsafeDomain(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	h = strings.TrimSuffix(strings.TrimPrefix(h, "["), "]")
	h = strings.TrimSuffix(h, ".")
	if h == "" {
		return true
	}
	if strings.Contains(h, "localhost") || h == "127.0.0.1" || strings.Contains(h, "::1") {
		return true
	}
	if addr, err := netip.ParseAddr(h); err == nil {
		return unsafeAddr(addr)
	}
	for _, marker := range c.hosts {
		if strings.Contains(h, marker) {
			return true
		}
	}
	return false
}

// ContainsProhibitedContent reports whether rawURL contains a denylisted
// substring anywhere, ignoring case.
func (c *Classifier) ContainsProhibitedContent(rawURL string) bool {
	u := strings.ToLower(rawURL)
	for _, word := range c.content {
		if strings.Contains(u, word) {
			return true
		}
	}
	return false
}

func unsafeAddr(addr netip.Addr) bool {
	addr = addr.WithZone("")
	if addr.Is4In6() {
		addr = addr.Unmap()
	}
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() || addr.IsMulticast() {
		return true
	}
	if addr.Is4() && addr == netip.AddrFrom4([4]byte{255, 255, 255, 255}) {
		return true
	}
	for _, p := range reserved {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
