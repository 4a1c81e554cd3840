// Package allowlist restricts capture targets to trusted content gateways.
package allowlist

import "strings"

// Default is the set of gateway prefixes trusted out of the box. Matching is
// a literal, case-sensitive prefix comparison: no normalisation, no wildcards.
var Default = []string{
	"https://ipfs.io/ipfs/",
	"https://dweb.link/ipfs/",
	"https://cloudflare-ipfs.com/ipfs/",
	"https://gateway.pinata.cloud/ipfs/",
}

// List answers whether a candidate URL starts with one of a fixed set of
// trusted gateway prefixes.
type List struct {
	prefixes []string
}

// New creates a List over the given prefixes. An empty set admits nothing.
func New(prefixes []string) *List {
	return &List{prefixes: prefixes}
}

// Allows reports whether url starts with one of the trusted prefixes. An
// empty url is never allowed.
func (l *List) Allows(url string) bool {
	if url == "" {
		return false
	}
	for _, p := range l.prefixes {
		if strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}
