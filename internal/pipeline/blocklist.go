package pipeline

import (
	"net/url"
	"strings"

	"github.com/sells-group/venue-enrichment/internal/model"
)

// Blocklist rejects URLs on domains that never make useful sources.
type Blocklist struct {
	domains []string
}

// NewBlocklist normalizes domains to lower case without a leading dot.
// Entries are otherwise matched as written, so "www.example.com" does not
// block "example.com".
func NewBlocklist(domains []string) *Blocklist {
	b := &Blocklist{}
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			b.domains = append(b.domains, d)
		}
	}
	return b
}

// Blocked reports whether rawURL's host is a blocked domain or a subdomain of
// one. URLs without a parseable host are never blocked.
func (b *Blocklist) Blocked(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range b.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Filter returns the results whose URLs are not blocked, in order.
func (b *Blocklist) Filter(results []model.SearchResult) []model.SearchResult {
	out := make([]model.SearchResult, 0, len(results))
	for _, r := range results {
		if !b.Blocked(r.URL) {
			out = append(out, r)
		}
	}
	return out
}
