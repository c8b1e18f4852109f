package extract

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// NormalizeURL turns raw into an absolute URL. Absolute http(s) URLs are
// returned unchanged, protocol-relative URLs get https, bare hosts get
// https:// and paths resolve against base. A path with no base is an error.
func NormalizeURL(raw, base string) (string, error) {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	switch {
	case raw == "":
		return "", eris.New("extract: empty url")
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return raw, nil
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw, nil
	case looksLikeHost(raw):
		return "https://" + raw, nil
	}

	if base == "" {
		return "", eris.Errorf("extract: relative url %q requires a base url", raw)
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return "", eris.Errorf("extract: invalid base url %q", base)
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", eris.Wrapf(err, "extract: parse url %q", raw)
	}
	if ref.Scheme != "" {
		return "", eris.Errorf("extract: unsupported scheme %q", ref.Scheme)
	}
	return b.ResolveReference(ref).String(), nil
}

// looksLikeHost reports whether s starts with something shaped like a
// hostname, e.g. "bluenote.net" or "www.bluenote.net/contact".
func looksLikeHost(s string) bool {
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, ".") || strings.Contains(s, "://") {
		return false
	}
	host := s
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if strings.ContainsAny(host, " :@") || !strings.Contains(host, ".") {
		return false
	}
	tld := host[strings.LastIndex(host, ".")+1:]
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	// A file name such as "logo.png" is a relative path, not a host.
	return !imageExt[strings.ToLower(tld)] && !pageExt[strings.ToLower(tld)]
}

var pageExt = set("html", "htm", "php", "asp", "aspx", "jsp")
