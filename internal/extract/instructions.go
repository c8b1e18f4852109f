package extract

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/sells-group/venue-enrichment/internal/model"
)

// ExtractionError reports an instruction whose pattern could not be compiled
// or evaluated.
type ExtractionError struct {
	Field   model.Field
	Method  model.Method
	Pattern string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract: %s via %s %q: %v", e.Field, e.Method, e.Pattern, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

var attrNameRe = regexp.MustCompile(`^[a-zA-Z_:][-a-zA-Z0-9_:.]*$`)

// page lazily parses the HTML once per representation.
type page struct {
	raw  string
	doc  *goquery.Document
	root *html.Node
}

func (p *page) goquery() (*goquery.Document, error) {
	if p.doc == nil {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.raw))
		if err != nil {
			return nil, eris.Wrap(err, "parse html")
		}
		p.doc = doc
	}
	return p.doc, nil
}

func (p *page) node() (*html.Node, error) {
	if p.root == nil {
		root, err := htmlquery.Parse(strings.NewReader(p.raw))
		if err != nil {
			return nil, eris.Wrap(err, "parse html")
		}
		p.root = root
	}
	return p.root, nil
}

// Execute runs instructions against html in ascending priority order. The
// first non-empty value for a field wins. An instruction whose pattern is
// invalid aborts the whole batch with an *ExtractionError.
func Execute(rawHTML string, instructions []model.ScrapingInstruction) (map[model.Field]string, error) {
	ordered := slices.Clone(instructions)
	slices.SortStableFunc(ordered, func(a, b model.ScrapingInstruction) int {
		return a.Priority - b.Priority
	})

	p := &page{raw: rawHTML}
	out := make(map[model.Field]string)
	for _, in := range ordered {
		if _, done := out[in.Field]; done {
			continue
		}
		value, err := p.run(in)
		if err != nil {
			return nil, &ExtractionError{Field: in.Field, Method: in.Method, Pattern: in.Pattern, Err: err}
		}
		if value = strings.TrimSpace(value); value == "" {
			continue
		}
		zap.L().Debug("extract: instruction matched",
			zap.String("field", string(in.Field)),
			zap.String("method", string(in.Method)),
		)
		out[in.Field] = value
	}
	return out, nil
}

func (p *page) run(in model.ScrapingInstruction) (string, error) {
	switch in.Method {
	case model.MethodRegex:
		return matchRegex(p.raw, in.Pattern)
	case model.MethodCSSSelector:
		return p.selectCSS(in.Pattern)
	case model.MethodMetaTag:
		doc, err := p.goquery()
		if err != nil {
			return "", err
		}
		return metaContent(doc, in.Pattern), nil
	case model.MethodTextSearch:
		return textSearch(p.raw, in.Pattern), nil
	case model.MethodXPath:
		return p.evalXPath(in.Pattern)
	}
	return "", eris.Errorf("unsupported method %q", in.Method)
}

func matchRegex(text, pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", eris.Wrap(err, "compile regex")
	}
	m := re.FindStringSubmatch(text)
	switch {
	case m == nil:
		return "", nil
	case len(m) > 1:
		return m[1], nil
	default:
		return m[0], nil
	}
}

// selectCSS evaluates "selector" or "selector@attr".
func (p *page) selectCSS(pattern string) (string, error) {
	sel, attr := pattern, ""
	if i := strings.LastIndex(pattern, "@"); i > 0 && attrNameRe.MatchString(pattern[i+1:]) {
		sel, attr = pattern[:i], pattern[i+1:]
	}
	matcher, err := cascadia.Compile(sel)
	if err != nil {
		return "", eris.Wrap(err, "compile selector")
	}
	doc, err := p.goquery()
	if err != nil {
		return "", err
	}
	found := doc.FindMatcher(matcher).First()
	if found.Length() == 0 {
		return "", nil
	}
	if attr != "" {
		return found.AttrOr(attr, ""), nil
	}
	return strings.Join(strings.Fields(found.Text()), " "), nil
}

func textSearch(text, pattern string) string {
	needle := strings.ToLower(pattern)
	if needle == "" {
		return ""
	}
	for line := range strings.Lines(text) {
		if strings.Contains(strings.ToLower(line), needle) {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

func (p *page) evalXPath(pattern string) (string, error) {
	expr, err := xpath.Compile(pattern)
	if err != nil {
		return "", eris.Wrap(err, "compile xpath")
	}
	root, err := p.node()
	if err != nil {
		return "", err
	}
	switch v := expr.Evaluate(htmlquery.CreateXPathNavigator(root)).(type) {
	case *xpath.NodeIterator:
		if v.MoveNext() {
			return v.Current().Value(), nil
		}
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", nil
	}
}
