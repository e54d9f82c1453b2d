package detect

import "strings"

// TrustContext carries what detectors may know about the host beyond the URL itself
type TrustContext struct {
	Trusted bool // Host is on the known-domain allow-list
}

// TrustList is the known-domain allow-list
type TrustList struct {
	domains map[string]bool
}

// NewTrustList builds an allow-list from domain names (case-insensitive)
func NewTrustList(domains []string) *TrustList {
	t := &TrustList{domains: make(map[string]bool, len(domains))}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, ".")
		if d != "" {
			t.domains[d] = true
		}
	}
	return t
}

// IsKnown reports whether hostname equals a trusted domain or is a subdomain of one.
// "evilgithub.com" does not match "github.com".
func (t *TrustList) IsKnown(hostname string) bool {
	if t == nil || hostname == "" {
		return false
	}

	if t.domains[hostname] {
		return true
	}

	for domain := range t.domains {
		if strings.HasSuffix(hostname, "."+domain) {
			return true
		}
	}

	return false
}

// Context evaluates the allow-list for one host
func (t *TrustList) Context(hostname string) TrustContext {
	return TrustContext{Trusted: t.IsKnown(hostname)}
}
