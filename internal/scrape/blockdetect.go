package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot page detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
	BlockDenied     BlockType = "access_denied"
)

// challengePageSize bounds the body size at which page text is treated as a
// challenge rather than incidental copy. Venue pages commonly embed a
// reCAPTCHA contact form.
const challengePageSize = 8 << 10

// DetectBlock checks a response for signs of anti-bot protection.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-mitigated") != "" ||
			strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
	}

	if len(body) > challengePageSize {
		return false, BlockNone
	}

	lower := strings.ToLower(string(body))

	switch {
	case strings.Contains(lower, "checking your browser"),
		strings.Contains(lower, "cf-browser-verification"),
		strings.Contains(lower, "just a moment") && strings.Contains(lower, "cloudflare"):
		return true, BlockCloudflare
	case strings.Contains(lower, "captcha") && (strings.Contains(lower, "verify you are human") ||
		strings.Contains(lower, "are you a robot") || len(body) < 2000):
		return true, BlockCaptcha
	case strings.Contains(lower, "<title>access denied</title>"),
		strings.Contains(lower, "you don't have permission to access"):
		return true, BlockDenied
	}

	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "enable javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, `http-equiv="refresh"`) {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}
