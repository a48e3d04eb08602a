package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Page is the slice of an HTTP response the detectors look at.
type Page struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Detection names the challenge that was recognised on a page.
type Detection struct {
	Detected bool
	Source   string
}

// Detector examines a fetched page and reports whether a bot challenge or
// block page was served instead of results.
type Detector func(p *Page) (detected bool, source string)

// DefaultDetectors returns the detectors for the search engines and CDNs the
// SERP providers talk to. Order matters: the first hit wins.
func DefaultDetectors() []Detector {
	return []Detector{
		detectGoogleSorry,
		detectDuckDuckGoAnomaly,
		detectRecaptcha,
		detectCloudflare,
		detectRateLimited,
	}
}

// Analyze runs p through detectors and returns the first detection.
func Analyze(p *Page, detectors []Detector) Detection {
	if p == nil {
		return Detection{}
	}
	for _, d := range detectors {
		if detected, source := d(p); detected {
			return Detection{Detected: true, Source: source}
		}
	}
	return Detection{}
}

func header(h http.Header, key string) string {
	if h == nil {
		return ""
	}
	return h.Get(key)
}

// detectGoogleSorry spots Google's "unusual traffic" interstitial, served
// either directly or after a redirect to /sorry/index.
func detectGoogleSorry(p *Page) (bool, string) {
	if strings.Contains(p.URL, "/sorry/") {
		return true, "GoogleSorry"
	}
	if bytes.Contains(p.Body, []byte("Our systems have detected unusual traffic")) ||
		bytes.Contains(p.Body, []byte("/sorry/index")) {
		return true, "GoogleSorry"
	}
	return false, ""
}

// detectDuckDuckGoAnomaly spots the DuckDuckGo HTML endpoint's bot modal.
func detectDuckDuckGoAnomaly(p *Page) (bool, string) {
	if bytes.Contains(p.Body, []byte("anomaly-modal")) ||
		(bytes.Contains(p.Body, []byte("If this persists, please")) && bytes.Contains(p.Body, []byte("duckduckgo"))) {
		return true, "DuckDuckGoAnomaly"
	}
	return false, ""
}

// detectRecaptcha spots generic reCAPTCHA walls.
func detectRecaptcha(p *Page) (bool, string) {
	if bytes.Contains(p.Body, []byte("g-recaptcha")) ||
		bytes.Contains(p.Body, []byte("www.google.com/recaptcha/api")) {
		return true, "reCAPTCHA"
	}
	return false, ""
}

// detectCloudflare looks for Cloudflare challenge/block signatures.
func detectCloudflare(p *Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden && p.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header(p.Headers, "Server")), "cloudflare") {
		return true, "Cloudflare"
	}
	if bytes.Contains(p.Body, []byte("cf-browser-verification")) ||
		bytes.Contains(p.Body, []byte("cf-turnstile")) ||
		bytes.Contains(p.Body, []byte("Attention Required! | Cloudflare")) {
		return true, "Cloudflare"
	}
	return false, ""
}

// detectRateLimited treats a bare 429 as a block.
func detectRateLimited(p *Page) (bool, string) {
	if p.StatusCode == http.StatusTooManyRequests {
		return true, "RateLimited"
	}
	return false, ""
}
