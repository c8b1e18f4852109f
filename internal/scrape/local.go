package scrape

import (
	"context"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/venue-enrichment/internal/model"
)

// MaxBodyBytes caps how much of a response body is read.
const MaxBodyBytes = 2 << 20

// DefaultUserAgents is the pool a user agent is drawn from per request.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
}

// LocalScraper fetches HTML directly over net/http. It rotates user agents,
// waits on its rate limiter and rejects block pages so the chain can fall
// through to a hosted reader.
type LocalScraper struct {
	client     *http.Client
	userAgents []string
	limiter    RateLimiter
}

// LocalOption configures a LocalScraper.
type LocalOption func(*LocalScraper)

// WithUserAgents replaces the user agent pool. An empty pool is ignored.
func WithUserAgents(agents []string) LocalOption {
	return func(l *LocalScraper) {
		if len(agents) > 0 {
			l.userAgents = agents
		}
	}
}

// WithRateLimiter sets the limiter consulted before each request.
func WithRateLimiter(rl RateLimiter) LocalOption {
	return func(l *LocalScraper) {
		if rl != nil {
			l.limiter = rl
		}
	}
}

// WithHTTPClient overrides the http.Client.
func WithHTTPClient(hc *http.Client) LocalOption {
	return func(l *LocalScraper) {
		l.client = hc
	}
}

// WithProxy routes requests through proxyURL instead of the environment's
// proxy settings. A blank URL is ignored.
func WithProxy(proxyURL string) LocalOption {
	return func(l *LocalScraper) {
		if proxyURL == "" {
			return
		}
		u, err := url.Parse(proxyURL)
		if err != nil {
			zap.L().Warn("local_http: ignoring invalid proxy url", zap.String("proxy", proxyURL), zap.Error(err))
			return
		}
		if t, ok := l.client.Transport.(*http.Transport); ok {
			t.Proxy = http.ProxyURL(u)
		}
	}
}

// NewLocalScraper creates a LocalScraper bounded by timeout.
func NewLocalScraper(timeout time.Duration, opts ...LocalOption) *LocalScraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	l := &LocalScraper{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgents: DefaultUserAgents,
		limiter:    NopLimiter{},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *LocalScraper) Name() string           { return "local_http" }
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches a URL and returns its raw HTML.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*model.CrawledPage, error) {
	u, err := url.Parse(targetURL)
	if err != nil || u.Host == "" {
		return nil, &FetchError{URL: targetURL, Scraper: l.Name(), Reason: "invalid url", Err: err}
	}
	if err := l.limiter.Wait(ctx, u.Hostname()); err != nil {
		return nil, &FetchError{URL: targetURL, Scraper: l.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", l.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: targetURL, Scraper: l.Name(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, &FetchError{URL: targetURL, Scraper: l.Name(), StatusCode: resp.StatusCode, Reason: "read body", Err: err}
	}

	if blocked, kind := DetectBlock(resp, body); blocked {
		return nil, &FetchError{URL: targetURL, Scraper: l.Name(), StatusCode: resp.StatusCode, Reason: "blocked (" + string(kind) + ")"}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: targetURL, Scraper: l.Name(), StatusCode: resp.StatusCode}
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil, &FetchError{URL: targetURL, Scraper: l.Name(), StatusCode: resp.StatusCode, Reason: "empty body"}
	}

	zap.L().Debug("local_http: fetched",
		zap.String("url", targetURL),
		zap.Int("bytes", len(body)),
	)

	return &model.CrawledPage{
		URL:        targetURL,
		Title:      extractTitle(body),
		HTML:       string(body),
		StatusCode: resp.StatusCode,
		Source:     l.Name(),
	}, nil
}

func (l *LocalScraper) userAgent() string {
	return l.userAgents[rand.IntN(len(l.userAgents))]
}

var titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// extractTitle pulls the <title> from HTML.
func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if len(m) > 1 {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}
