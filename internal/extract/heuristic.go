// Package extract pulls venue fields out of raw page HTML.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/venue-enrichment/internal/model"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.([a-zA-Z]{2,})`)
	phoneRe = regexp.MustCompile(`\+?[\d\s\-().]{10,}`)
	spaceRe = regexp.MustCompile(`\s+`)

	socialPatterns = []struct {
		field model.Field
		re    *regexp.Regexp
		skip  map[string]bool
	}{
		{
			field: model.FieldFacebookURL,
			re:    regexp.MustCompile(`https?://(?:www\.)?facebook\.com/([a-zA-Z0-9.]+)/?`),
			skip:  set("sharer", "sharer.php", "share.php", "share", "dialog", "plugins", "tr", "login.php", "login"),
		},
		{
			field: model.FieldTwitterURL,
			re:    regexp.MustCompile(`https?://(?:www\.)?(?:twitter\.com|x\.com)/([a-zA-Z0-9_]+)/?`),
			skip:  set("intent", "share", "home", "search", "hashtag", "i"),
		},
		{
			field: model.FieldInstagramURL,
			re:    regexp.MustCompile(`https?://(?:www\.)?instagram\.com/([a-zA-Z0-9_.]+)/?`),
			skip:  set("p", "explore", "accounts", "reel", "reels", "stories"),
		},
	}

	imageExt = set("png", "jpg", "jpeg", "gif", "svg", "webp", "avif")
)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// Heuristic extracts fields that need no LLM: contact details and social
// profiles by pattern, description and logo from meta tags.
func Heuristic(html string) map[model.Field]string {
	out := make(map[model.Field]string)

	if email := firstEmail(html); email != "" {
		out[model.FieldEmail] = email
	}
	if phone := firstPhone(html); phone != "" {
		out[model.FieldPhone] = phone
	}
	for _, sp := range socialPatterns {
		for _, m := range sp.re.FindAllStringSubmatch(html, -1) {
			if sp.skip[strings.ToLower(m[1])] {
				continue
			}
			out[sp.field] = m[0]
			break
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return out
	}
	if desc := metaContent(doc, "description"); desc != "" {
		out[model.FieldDescription] = desc
	}
	if logo := metaContent(doc, "image"); logo != "" {
		out[model.FieldLogoURL] = logo
	}
	return out
}

func firstEmail(html string) string {
	for _, m := range emailRe.FindAllStringSubmatch(html, -1) {
		// Retina asset names such as logo@2x.png look like addresses.
		if imageExt[strings.ToLower(m[1])] {
			continue
		}
		return m[0]
	}
	return ""
}

func firstPhone(html string) string {
	for _, cand := range phoneRe.FindAllString(html, -1) {
		if n := countDigits(cand); n < 10 || n > 15 {
			continue
		}
		return cleanPhone(cand)
	}
	return ""
}

func cleanPhone(s string) string {
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	return strings.NewReplacer("( ", "(", " )", ")").Replace(s)
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// metaContent returns the content of the first meta tag whose name or
// property matches og:<name>, falling back to <name>. Matching ignores case.
func metaContent(doc *goquery.Document, name string) string {
	candidates := []string{name}
	if !strings.HasPrefix(strings.ToLower(name), "og:") {
		candidates = []string{"og:" + name, name}
	}
	metas := doc.Find("meta")
	for _, want := range candidates {
		var found string
		metas.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if !strings.EqualFold(s.AttrOr("property", ""), want) && !strings.EqualFold(s.AttrOr("name", ""), want) {
				return true
			}
			found = strings.TrimSpace(s.AttrOr("content", ""))
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}
